package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxInbound  TransactionType = "INBOUND"
	TxOutbound TransactionType = "OUTBOUND"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TxInbound || t == TxOutbound
}

// Sign is +1 for stock increasing transactions and -1 otherwise.
func (t TransactionType) Sign() int {
	if t == TxInbound {
		return 1
	}
	return -1
}

// DateLayout is the business date format of TransactionDate.
const DateLayout = "2006-01-02"

// Transaction is an immutable stock movement. It can only be created or deleted.
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Type      TransactionType `gorm:"type:varchar(10);not null;index" json:"type"`
	Quantity  int             `gorm:"not null" json:"quantity"`

	// INBOUND only
	UnitPrice   decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"unit_price"`
	TotalAmount decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"total_amount"`
	Supplier    *string             `gorm:"type:varchar(200)" json:"supplier"`

	// OUTBOUND only
	Reason *string `gorm:"type:varchar(200)" json:"reason"`

	TransactionDate string    `gorm:"type:varchar(10);not null;index" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	CreatedBy       string    `gorm:"type:varchar(100)" json:"created_by,omitempty"`
}

// SignedQuantity is the effect of the transaction on current stock.
func (t *Transaction) SignedQuantity() int {
	return t.Type.Sign() * t.Quantity
}
