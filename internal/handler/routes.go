package handler

import (
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP API is built on.
type Services struct {
	Auth                service.AuthService
	Users               service.UserService
	Products            service.ProductService
	Ledger              service.LedgerService
	Inventory           service.InventoryService
	Dashboard           service.DashboardService
	Exports             service.ExportService
	Backups             service.BackupService
	Activity            service.ActivityLogService
	BackupRetentionDays int
}

// RegisterRoutes mounts the JSON API under /api.
func RegisterRoutes(app *fiber.App, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.Activity)
	userHandler := NewUserHandler(s.Users, s.Activity)
	roleHandler := NewRoleHandler(s.Users)
	productHandler := NewProductHandler(s.Products, s.Activity)
	txHandler := NewTransactionHandler(s.Ledger, s.Activity)
	invHandler := NewInventoryHandler(s.Inventory, s.Ledger)
	dashHandler := NewDashboardHandler(s.Dashboard)
	exportHandler := NewExportHandler(s.Exports, s.Activity)
	backupHandler := NewBackupHandler(s.Backups, s.Activity, s.BackupRetentionDays)
	activityHandler := NewActivityLogHandler(s.Activity)

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok", "time": time.Now()})
	})

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(s.Auth)
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/refresh", requireAuth, authHandler.Refresh)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	protected := api.Group("", requireAuth)
	priv := middleware.RequirePrivilege

	// Products
	protected.Get("/products", priv(model.PrivProductView), productHandler.GetProducts)
	protected.Get("/products/status/low-stock", priv(model.PrivProductView), productHandler.GetLowStock)
	protected.Get("/products/code/internal/:code", priv(model.PrivProductView), productHandler.GetByInternalCode)
	protected.Get("/products/code/unique/:code", priv(model.PrivProductView), productHandler.GetByUniqueCode)
	protected.Get("/products/:id", priv(model.PrivProductView), productHandler.GetProduct)
	protected.Post("/products", priv(model.PrivProductCreate), productHandler.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivProductUpdate), productHandler.UpdateProduct)
	protected.Delete("/products/:id", priv(model.PrivProductDelete), productHandler.DeleteProduct)

	// Ledger
	protected.Get("/transactions", priv(model.PrivTransactionView), txHandler.GetTransactions)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), txHandler.GetTransaction)
	protected.Post("/transactions/inbound", priv(model.PrivTransactionCreate), txHandler.CreateInbound)
	protected.Post("/transactions/outbound", priv(model.PrivTransactionCreate), txHandler.CreateOutbound)
	protected.Post("/transactions/recompute", priv(model.PrivStockRecompute), txHandler.RecomputeStock)
	protected.Delete("/transactions/:id", priv(model.PrivTransactionDelete), txHandler.DeleteTransaction)

	// Inventory reports and dashboard
	inv := protected.Group("/inventory", priv(model.PrivInventoryView))
	inv.Get("/current", invHandler.GetCurrent)
	inv.Get("/summary", invHandler.GetSummary)
	inv.Get("/low-stock", invHandler.GetLowStock)
	inv.Get("/out-of-stock", invHandler.GetOutOfStock)
	inv.Get("/turnover", invHandler.GetTurnover)
	inv.Get("/movements/:productId", invHandler.GetMovements)
	inv.Get("/status/:productId", invHandler.GetProductStatus)
	inv.Get("/dashboard", dashHandler.GetStockMovement)
	inv.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	// Spreadsheets
	exp := protected.Group("/export")
	download := priv(model.PrivExport)
	exp.Get("/products", download, exportHandler.Export(export.KindProducts))
	exp.Get("/inventory", download, exportHandler.Export(export.KindInventory))
	exp.Get("/transactions", download, exportHandler.Export(export.KindTransactions))
	exp.Get("/transactions/inbound", download, exportHandler.Export(export.KindInbound))
	exp.Get("/transactions/outbound", download, exportHandler.Export(export.KindOutbound))
	exp.Get("/low-stock", download, exportHandler.Export(export.KindLowStock))
	exp.Post("/custom", download, exportHandler.Custom)
	exp.Get("/template/products", download, exportHandler.Template(export.KindProducts))
	exp.Get("/template/inbound", download, exportHandler.Template(export.KindInbound))
	exp.Get("/template/outbound", download, exportHandler.Template(export.KindOutbound))
	exp.Post("/upload/products", priv(model.PrivImport), priv(model.PrivProductCreate), exportHandler.Upload(export.KindProducts))
	exp.Post("/upload/inbound", priv(model.PrivImport), priv(model.PrivTransactionCreate), exportHandler.Upload(export.KindInbound))
	exp.Post("/upload/outbound", priv(model.PrivImport), priv(model.PrivTransactionCreate), exportHandler.Upload(export.KindOutbound))

	// Administration
	backups := protected.Group("/backups", priv(model.PrivBackupManage))
	backups.Post("", backupHandler.CreateBackup)
	backups.Get("", backupHandler.ListBackups)
	backups.Post("/restore", backupHandler.RestoreBackup)
	backups.Post("/cleanup", backupHandler.CleanupBackups)
	backups.Delete("/:filename", backupHandler.DeleteBackup)

	protected.Get("/activity-logs", priv(model.PrivActivityLogView), activityHandler.GetActivityLogs)
	protected.Get("/activity-logs/user/:userId", activityHandler.GetUserActivityLogs)

	// Users
	protected.Get("/users", priv(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", priv(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserUpdatePrivilege), userHandler.UpdateUserPrivileges)
	userAdmin := middleware.RequireAnyPrivilege(model.PrivUserView, model.PrivUserUpdatePrivilege)
	protected.Get("/roles", userAdmin, roleHandler.GetRoles)
	protected.Get("/privileges", userAdmin, roleHandler.GetPrivileges)
}
