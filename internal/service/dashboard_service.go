package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

const (
	dashboardRecentLimit = 10
	dashboardTopTurnover = 5
)

// DashboardStats is the landing page payload.
type DashboardStats struct {
	Summary            *InventorySummary            `json:"summary"`
	RecentTransactions []repository.TransactionView `json:"recent_transactions"`
	TopTurnover        []repository.TurnoverRow     `json:"top_turnover"`
}

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	txRepo    repository.TransactionRepository
	inventory InventoryService
	ledger    LedgerService
	now       func() time.Time
}

func NewDashboardService(txRepo repository.TransactionRepository, inventory InventoryService, ledger LedgerService) DashboardService {
	return &dashboardService{
		txRepo:    txRepo,
		inventory: inventory,
		ledger:    ledger,
		now:       time.Now,
	}
}

// GetStockMovement returns daily inbound/outbound totals for the chart.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = defaultMovementDays
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.txRepo.GetStockMovement(ctx, startDate.Format(model.DateLayout), endDate.Format(model.DateLayout))
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	summary, err := s.inventory.Summary(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.ledger.ListTransactions(ctx, repository.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}

	turnover, err := s.ledger.StockTurnover(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(turnover) > dashboardTopTurnover {
		turnover = turnover[:dashboardTopTurnover]
	}

	return &DashboardStats{
		Summary:            summary,
		RecentTransactions: recent,
		TopTurnover:        turnover,
	}, nil
}
