package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Product"
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionDelete = "transaction:delete"
	PrivStockRecompute    = "stock:recompute"

	PrivInventoryView = "inventory:view"
	PrivExport        = "export:download"
	PrivImport        = "import:upload"

	PrivBackupManage    = "backup:manage"
	PrivActivityLogView = "activity_log:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Deactivate User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	// Product catalog
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Ledger
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Record Inbound/Outbound"},
	{Code: PrivTransactionDelete, Name: "Delete Transaction"},
	{Code: PrivStockRecompute, Name: "Recompute Stock"},
	// Reports
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivExport, Name: "Export Spreadsheets"},
	{Code: PrivImport, Name: "Upload Spreadsheets"},
	// Administration
	{Code: PrivBackupManage, Name: "Manage Backups"},
	{Code: PrivActivityLogView, Name: "View Activity Log"},
}

// adminOnly privileges are withheld from the USER role.
var adminOnly = map[string]bool{
	PrivUserCreate:          true,
	PrivUserUpdate:          true,
	PrivUserDelete:          true,
	PrivUserUpdatePrivilege: true,
	PrivTransactionDelete:   true,
	PrivStockRecompute:      true,
	PrivBackupManage:        true,
	PrivActivityLogView:     true,
}

// IsAdminOnly reports whether code is reserved to the ADMIN role.
func IsAdminOnly(code string) bool {
	return adminOnly[code]
}
