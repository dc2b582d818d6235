package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	recentWindowDays   = 30
	statusMovementDays = 7
)

// InventoryItem is a product row with its classification and lifetime totals.
type InventoryItem struct {
	repository.InventoryRow
	StockStatus model.StockStatus `json:"stock_status"`
	IsLowStock  bool              `json:"is_low_stock"`
}

type InventorySummary struct {
	TotalProducts           int64           `json:"total_products"`
	TotalStockValue         decimal.Decimal `json:"total_stock_value"`
	LowStockCount           int64           `json:"low_stock_count"`
	OutOfStockCount         int64           `json:"out_of_stock_count"`
	RecentTransactionsCount int64           `json:"recent_transactions_count"`
}

// ProductStatus bundles one product's inventory row with its recent activity.
type ProductStatus struct {
	Product         InventoryItem           `json:"product"`
	RecentMovements []StockMovement         `json:"recent_movements"`
	TurnoverInfo    *repository.TurnoverRow `json:"turnover_info"`
}

type InventoryService interface {
	Current(ctx context.Context) ([]InventoryItem, error)
	Summary(ctx context.Context) (*InventorySummary, error)
	LowStock(ctx context.Context) ([]InventoryItem, error)
	OutOfStock(ctx context.Context) ([]InventoryItem, error)
	ProductStatus(ctx context.Context, productID uint) (*ProductStatus, error)
}

type inventoryService struct {
	invRepo repository.InventoryRepository
	ledger  LedgerService
	now     func() time.Time
}

func NewInventoryService(invRepo repository.InventoryRepository, ledger LedgerService) InventoryService {
	return &inventoryService{
		invRepo: invRepo,
		ledger:  ledger,
		now:     time.Now,
	}
}

func classify(p model.Product) InventoryItem {
	return InventoryItem{
		InventoryRow: repository.InventoryRow{Product: p},
		StockStatus:  p.Status(),
		IsLowStock:   p.IsLowStock(),
	}
}

func (s *inventoryService) Current(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.invRepo.CurrentInventory(ctx)
	if err != nil {
		return nil, storeError(err, "inventory")
	}
	items := make([]InventoryItem, len(rows))
	for i, row := range rows {
		items[i] = InventoryItem{
			InventoryRow: row,
			StockStatus:  row.Product.Status(),
			IsLowStock:   row.Product.IsLowStock(),
		}
	}
	return items, nil
}

func (s *inventoryService) Summary(ctx context.Context) (*InventorySummary, error) {
	since := s.now().AddDate(0, 0, -recentWindowDays).Format(model.DateLayout)
	counts, err := s.invRepo.Counts(ctx, since)
	if err != nil {
		return nil, storeError(err, "inventory")
	}
	value, err := s.invRepo.StockValuation(ctx)
	if err != nil {
		return nil, storeError(err, "inventory")
	}
	return &InventorySummary{
		TotalProducts:           counts.TotalProducts,
		TotalStockValue:         value,
		LowStockCount:           counts.LowStock,
		OutOfStockCount:         counts.OutOfStock,
		RecentTransactionsCount: counts.RecentTransactions,
	}, nil
}

// LowStock lists products at or under their threshold, empty ones first.
func (s *inventoryService) LowStock(ctx context.Context) ([]InventoryItem, error) {
	products, err := s.invRepo.LowStockPrioritized(ctx)
	if err != nil {
		return nil, storeError(err, "inventory")
	}
	items := make([]InventoryItem, len(products))
	for i, p := range products {
		items[i] = classify(p)
	}
	return items, nil
}

func (s *inventoryService) OutOfStock(ctx context.Context) ([]InventoryItem, error) {
	products, err := s.invRepo.OutOfStock(ctx)
	if err != nil {
		return nil, storeError(err, "inventory")
	}
	items := make([]InventoryItem, len(products))
	for i, p := range products {
		items[i] = classify(p)
	}
	return items, nil
}

func (s *inventoryService) ProductStatus(ctx context.Context, productID uint) (*ProductStatus, error) {
	items, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	var status *ProductStatus
	for _, item := range items {
		if item.ID == productID {
			status = &ProductStatus{Product: item}
			break
		}
	}
	if status == nil {
		return nil, NotFound("product not found")
	}

	if status.RecentMovements, err = s.ledger.StockMovements(ctx, productID, statusMovementDays); err != nil {
		return nil, err
	}
	turnover, err := s.ledger.StockTurnover(ctx, &productID)
	if err != nil {
		return nil, err
	}
	if len(turnover) > 0 {
		status.TurnoverInfo = &turnover[0]
	}
	return status, nil
}
