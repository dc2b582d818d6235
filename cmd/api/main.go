package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/scheduler"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("load config: %v", err)
	}

	log, err := logger.Init(cfg.Logger.Level, cfg.Logger.File, cfg.IsProduction())
	if err != nil {
		zap.S().Fatalf("init logger: %v", err)
	}
	defer log.Sync()

	jwt.Configure(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	if err := database.Migrate(db, model.Tables...); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	// 3. Setup WebSocket Hub
	hub := ws.NewHub()
	go hub.Run()

	// 4. Dependency Injection (Wiring Layers)
	uow := repository.NewUnitOfWork(db)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	invRepo := repository.NewInventoryRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	activityRepo := repository.NewActivityLogRepo(db)

	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	if err := userService.SeedDefaults(cfg.Auth.SeedAdminPassword); err != nil {
		log.Fatal("seed defaults", zap.Error(err))
	}

	ledgerService := service.NewLedgerService(uow, productRepo, txRepo, hub)
	productService := service.NewProductService(uow, productRepo, txRepo, hub)
	invService := service.NewInventoryService(invRepo, ledgerService)
	activityService := service.NewActivityLogService(activityRepo)
	backupService := service.NewBackupService(db, cfg.Database, cfg.Backup.Dir)

	services := handler.Services{
		Auth:                service.NewAuthService(userRepo),
		Users:               userService,
		Products:            productService,
		Ledger:              ledgerService,
		Inventory:           invService,
		Dashboard:           service.NewDashboardService(txRepo, invService, ledgerService),
		Exports:             service.NewExportService(productService, ledgerService, invService),
		Backups:             backupService,
		Activity:            activityService,
		BackupRetentionDays: cfg.Backup.RetentionDays,
	}

	// 5. Background jobs
	jobs := scheduler.Config{
		BackupRetentionDays:   cfg.Backup.RetentionDays,
		ActivityRetentionDays: cfg.ActivityRetentionDays,
	}
	if cfg.Database.Driver == config.DriverSQLite {
		jobs.BackupSchedule = cfg.Backup.Schedule
	}
	sched := scheduler.New(jobs, backupService, activityService)
	if err := sched.Start(); err != nil {
		log.Fatal("start scheduler", zap.Error(err))
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Inventory Ledger v1.0",
		BodyLimit:    16 << 20,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: handler.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger())

	// 7. Routes
	handler.RegisterRoutes(app, services)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Serve))

	if cfg.StaticDir != "" {
		serveSPA(app, cfg.StaticDir)
	}

	// 8. Graceful Shutdown
	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("driver", cfg.Database.Driver))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	sched.Stop()
	hub.Stop()
	if err := database.Close(db); err != nil {
		log.Error("close database", zap.Error(err))
	}
	log.Info("server exited")
}

// serveSPA serves the built front end and falls back to index.html for
// client-side routes. Unknown /api paths still get a JSON 404.
func serveSPA(app *fiber.App, dir string) {
	app.Static("/", dir)
	index := filepath.Join(dir, "index.html")
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api") {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}
