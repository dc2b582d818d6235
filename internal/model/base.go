package model

import (
	"time"
)

// BaseModel handles the surrogate key and the audit trail
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(100)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(100)" json:"updated_by,omitempty"`
}

// Tables lists every model managed by AutoMigrate, parents first.
var Tables = []interface{}{
	&Privilege{},
	&Role{},
	&User{},
	&Product{},
	&Transaction{},
	&ActivityLog{},
}
