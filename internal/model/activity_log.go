package model

import (
	"time"

	"gorm.io/datatypes"
)

type ActionType string

const (
	ActionCreate ActionType = "CREATE"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
	ActionLogin  ActionType = "LOGIN"
	ActionLogout ActionType = "LOGOUT"
)

// ActivityLog is the audit record of a user action. Entity holds the affected table.
type ActivityLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	ActionType ActionType     `gorm:"type:varchar(20);not null;index" json:"action_type"`
	Entity     string         `gorm:"column:table_name;type:varchar(50);not null;index" json:"table_name"`
	RecordID   *uint          `json:"record_id"`
	OldData    datatypes.JSON `json:"old_data"`
	NewData    datatypes.JSON `json:"new_data"`
	IPAddress  string         `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent  string         `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
