package main

import (
	"flag"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	username := flag.String("username", "admin", "account to reset")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}
	log, err := logger.Init(cfg.Logger.Level, "", false)
	if err != nil {
		zap.S().Fatalf("init logger: %v", err)
	}
	defer log.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer database.Close(db)

	// 3. Find user
	users := repository.NewUserRepo(db)
	user, err := users.FindByUsername(*username)
	if err != nil {
		log.Fatal("user not found", zap.String("username", *username), zap.Error(err))
	}

	// 4. Hash and store the new password, then end existing sessions
	if err := user.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		log.Fatal("update password", zap.Error(err))
	}
	if err := users.UpdateTokenVersion(user.ID, uuid.New().String()); err != nil {
		log.Fatal("rotate token version", zap.Error(err))
	}

	log.Info("password reset", zap.String("username", user.Username))
}
