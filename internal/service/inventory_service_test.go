package service

import (
	"context"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
)

func TestInventoryReports(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db, nil)
	now := func() time.Time { return time.Date(2025, 3, 31, 10, 0, 0, 0, time.Local) }
	ledger.now = now
	inventory := NewInventoryService(repository.NewInventoryRepo(db), ledger).(*inventoryService)
	inventory.now = now
	ctx := context.Background()

	alpha := seedProduct(t, db, "P000001", "Alpha")
	beta := seedProduct(t, db, "P000002", "Beta")
	gamma := seedProduct(t, db, "P000003", "Gamma")

	steps := []func() error{
		func() error {
			_, err := ledger.ProcessInbound(ctx, InboundRequest{ProductID: alpha.ID, Quantity: 10, UnitPrice: price(200), TransactionDate: "2025-03-20"}, testActor)
			return err
		},
		func() error {
			_, err := ledger.ProcessInbound(ctx, InboundRequest{ProductID: beta.ID, Quantity: 5, UnitPrice: price(100), TransactionDate: "2025-03-20"}, testActor)
			return err
		},
		func() error {
			_, err := ledger.ProcessOutbound(ctx, OutboundRequest{ProductID: beta.ID, Quantity: 2, TransactionDate: "2025-03-28"}, testActor)
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	summary, err := inventory.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalProducts != 3 || summary.LowStockCount != 1 || summary.OutOfStockCount != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.RecentTransactionsCount != 3 {
		t.Fatalf("expected 3 recent transactions, got %d", summary.RecentTransactionsCount)
	}
	if summary.TotalStockValue.IntPart() != 2300 {
		t.Fatalf("expected stock value 2300, got %s", summary.TotalStockValue)
	}

	current, err := inventory.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	want := map[uint]model.StockStatus{alpha.ID: model.StockNormal, beta.ID: model.StockLow, gamma.ID: model.StockOutOfStock}
	for _, item := range current {
		if item.StockStatus != want[item.ID] {
			t.Errorf("%s: status %s, want %s", item.Name, item.StockStatus, want[item.ID])
		}
		if item.ID == beta.ID && (item.TotalInbound != 5 || item.TotalOutbound != 2) {
			t.Errorf("beta totals %d/%d", item.TotalInbound, item.TotalOutbound)
		}
	}

	low, _ := inventory.LowStock(ctx)
	if len(low) != 2 || low[0].ID != gamma.ID {
		t.Fatalf("out of stock products should lead the low stock list, got %+v", low)
	}
	out, _ := inventory.OutOfStock(ctx)
	if len(out) != 1 || out[0].ID != gamma.ID {
		t.Fatalf("unexpected out of stock list %+v", out)
	}

	status, err := inventory.ProductStatus(ctx, beta.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	// the inbound on the 20th is outside the 7 day window
	if len(status.RecentMovements) != 1 || status.RecentMovements[0].StockAfter != 3 {
		t.Fatalf("unexpected movements %+v", status.RecentMovements)
	}
	if status.TurnoverInfo == nil || status.TurnoverInfo.TotalOutbound != 2 {
		t.Fatalf("unexpected turnover %+v", status.TurnoverInfo)
	}
	if _, err := inventory.ProductStatus(ctx, 999); !IsKind(err, KindNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	ledger := newTestLedger(db, nil)
	now := func() time.Time { return time.Date(2025, 3, 31, 10, 0, 0, 0, time.Local) }
	ledger.now = now
	inventory := NewInventoryService(repository.NewInventoryRepo(db), ledger)
	dashboard := NewDashboardService(repository.NewTransactionRepo(db), inventory, ledger).(*dashboardService)
	dashboard.now = now
	ctx := context.Background()

	p := seedProduct(t, db, "P000001", "Alpha")
	for i := 0; i < 12; i++ {
		date := time.Date(2025, 3, 18+i, 0, 0, 0, 0, time.Local).Format(model.DateLayout)
		if _, err := ledger.ProcessInbound(ctx, InboundRequest{ProductID: p.ID, Quantity: 2, TransactionDate: date}, testActor); err != nil {
			t.Fatalf("inbound: %v", err)
		}
	}
	if _, err := ledger.ProcessOutbound(ctx, OutboundRequest{ProductID: p.ID, Quantity: 4, TransactionDate: "2025-03-29"}, testActor); err != nil {
		t.Fatalf("outbound: %v", err)
	}

	stats, err := dashboard.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats.RecentTransactions) != dashboardRecentLimit {
		t.Fatalf("expected %d recent transactions, got %d", dashboardRecentLimit, len(stats.RecentTransactions))
	}
	if stats.RecentTransactions[0].Type != model.TxOutbound {
		t.Fatalf("newest transaction should come first, got %+v", stats.RecentTransactions[0])
	}
	if len(stats.TopTurnover) != 1 || stats.Summary.TotalProducts != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	movement, err := dashboard.GetStockMovement(ctx, 3)
	if err != nil {
		t.Fatalf("movement: %v", err)
	}
	var in, out int
	for _, d := range movement {
		in += d.Inbound
		out += d.Outbound
	}
	// 28th..31st: inbound on the 28th and 29th
	if in != 4 || out != 4 {
		t.Fatalf("unexpected movement totals in=%d out=%d (%+v)", in, out, movement)
	}
}
