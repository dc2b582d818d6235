package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InternalCodePrefix starts every system generated product code, e.g. P000042.
const InternalCodePrefix = "P"

// FormatInternalCode renders the sequence number as an internal product code.
func FormatInternalCode(seq int) string {
	return fmt.Sprintf("%s%06d", InternalCodePrefix, seq)
}

type Product struct {
	BaseModel
	InternalCode string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"internal_code"`
	UniqueCode   string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"unique_code"`
	Name         string          `gorm:"type:varchar(200);not null;index" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Unit         string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"unit_price"`
	MinStock     int             `gorm:"not null;default:0" json:"min_stock"`

	// Maintained only by the ledger: the signed sum of this product's transactions.
	CurrentStock int `gorm:"not null;default:0;check:current_stock >= 0" json:"current_stock"`

	Transactions []Transaction `gorm:"constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

type StockStatus string

const (
	StockNormal     StockStatus = "NORMAL"
	StockLow        StockStatus = "LOW"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

// Status classifies the stock level against the reorder threshold.
func (p *Product) Status() StockStatus {
	switch {
	case p.CurrentStock <= 0:
		return StockOutOfStock
	case p.CurrentStock <= p.MinStock:
		return StockLow
	default:
		return StockNormal
	}
}

// IsLowStock reports whether the product is at or under its reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.CurrentStock <= p.MinStock
}
