package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryRepository interface {
	CurrentInventory(ctx context.Context) ([]InventoryRow, error)
	Counts(ctx context.Context, recentSince string) (*InventoryCounts, error)
	StockValuation(ctx context.Context) (decimal.Decimal, error)
	OutOfStock(ctx context.Context) ([]model.Product, error)
	LowStockPrioritized(ctx context.Context) ([]model.Product, error)
}

// InventoryRow is a product with its lifetime inbound/outbound totals.
type InventoryRow struct {
	model.Product
	TotalInbound     int     `json:"total_inbound"`
	TotalOutbound    int     `json:"total_outbound"`
	LastInboundDate  *string `json:"last_inbound_date"`
	LastOutboundDate *string `json:"last_outbound_date"`
}

type InventoryCounts struct {
	TotalProducts      int64
	LowStock           int64
	OutOfStock         int64
	RecentTransactions int64
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) aggregate(txType model.TransactionType, total, last string) *gorm.DB {
	return r.db.Model(&model.Transaction{}).
		Select("product_id, SUM(quantity) AS "+total+", MAX(transaction_date) AS "+last).
		Where("type = ?", string(txType)).
		Group("product_id")
}

func (r *inventoryRepo) CurrentInventory(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.WithContext(ctx).
		Table("products p").
		Select(`p.*,
			COALESCE(i.total_inbound, 0) AS total_inbound,
			COALESCE(o.total_outbound, 0) AS total_outbound,
			i.last_inbound_date,
			o.last_outbound_date`).
		Joins("LEFT JOIN (?) i ON i.product_id = p.id", r.aggregate(model.TxInbound, "total_inbound", "last_inbound_date")).
		Joins("LEFT JOIN (?) o ON o.product_id = p.id", r.aggregate(model.TxOutbound, "total_outbound", "last_outbound_date")).
		Order("p.name").
		Scan(&rows).Error
	return rows, err
}

// Counts gathers the summary counters. Low stock excludes products that are out of stock.
func (r *inventoryRepo) Counts(ctx context.Context, recentSince string) (*InventoryCounts, error) {
	var c InventoryCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&c.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("current_stock > 0 AND current_stock <= min_stock").
		Count(&c.LowStock).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("current_stock <= 0").
		Count(&c.OutOfStock).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Transaction{}).
		Where("transaction_date >= ?", recentSince).
		Count(&c.RecentTransactions).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// StockValuation prices each product's stock at its most recent inbound unit price.
func (r *inventoryRepo) StockValuation(ctx context.Context) (decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT p.current_stock,
			(SELECT t.unit_price FROM transactions t
			  WHERE t.product_id = p.id AND t.type = ? AND t.unit_price IS NOT NULL
			  ORDER BY t.created_at DESC, t.id DESC
			  LIMIT 1) AS last_price
		FROM products p
		WHERE p.current_stock > 0`, string(model.TxInbound)).Rows()
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var (
			stock int64
			price decimal.NullDecimal
		)
		if err := rows.Scan(&stock, &price); err != nil {
			return decimal.Zero, err
		}
		if price.Valid {
			total = total.Add(price.Decimal.Mul(decimal.NewFromInt(stock)))
		}
	}
	return total, rows.Err()
}

func (r *inventoryRepo) OutOfStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("current_stock <= 0").Order("name").Find(&products).Error
	return products, err
}

// LowStockPrioritized lists products at or under threshold, empty ones first.
func (r *inventoryRepo) LowStockPrioritized(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("current_stock <= min_stock").
		Order("CASE WHEN current_stock <= 0 THEN 0 ELSE 1 END, current_stock ASC, name").
		Find(&products).Error
	return products, err
}
