package main

import (
	"context"
	"flag"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
)

// recompute-stock rebuilds every product's stock from its transaction history
// while the server is stopped.
func main() {
	migrate := flag.Bool("migrate", false, "run schema migration first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}
	log, err := logger.Init(cfg.Logger.Level, "", false)
	if err != nil {
		zap.S().Fatalf("init logger: %v", err)
	}
	defer log.Sync()

	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close(db)

	if *migrate {
		if err := database.Migrate(db, model.Tables...); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
	}

	ledger := service.NewLedgerService(
		repository.NewUnitOfWork(db),
		repository.NewProductRepo(db),
		repository.NewTransactionRepo(db),
		nil,
	)
	corrections, err := ledger.RecomputeAllStock(context.Background())
	if err != nil {
		log.Fatal("recompute stock", zap.Error(err))
	}
	log.Info("stock recomputed", zap.Int("corrected", len(corrections)))
}
