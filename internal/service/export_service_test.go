package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/repository"

	"gorm.io/gorm"
)

func newTestExporter(db *gorm.DB) (*exportService, ProductService, LedgerService) {
	catalog := newTestCatalog(db, nil)
	ledger := newTestLedger(db, nil)
	inventory := NewInventoryService(repository.NewInventoryRepo(db), ledger)
	svc := NewExportService(catalog, ledger, inventory).(*exportService)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local) }
	return svc, catalog, ledger
}

func TestUploadProductsAppliesRowsIndependently(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, _ := newTestExporter(db)
	ctx := context.Background()

	csv := strings.Join([]string{
		"제품고유번호,제품명,단위,단가,최소재고량",
		"BOLT-1,Bolt,ea,\"1,200\",5",
		"BOLT-1,Duplicate,ea,100,1",
		",Missing code,ea,100,1",
		"NUT-1,Nut,ea,abc,1",
		"WASHER-1,Washer,ea,,",
	}, "\n")

	result, err := svc.Upload(ctx, export.KindProducts, "products.csv", strings.NewReader(csv), testActor)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.SuccessCount != 2 || result.FailedCount != 2 || result.Total != 4 {
		t.Fatalf("unexpected counts %+v", result)
	}
	failedRows := map[int]bool{}
	for _, f := range result.Results.Failed {
		failedRows[f.Row] = true
	}
	if !failedRows[3] || !failedRows[5] {
		t.Fatalf("expected rows 3 and 5 to fail, got %+v", result.Results.Failed)
	}

	bolt, err := catalog.GetByUniqueCode(ctx, "BOLT-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if bolt.UnitPrice.IntPart() != 1200 || bolt.MinStock != 5 {
		t.Fatalf("unexpected product %+v", bolt)
	}
}

func TestUploadInboundAndOutbound(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, _ := newTestExporter(db)
	ctx := context.Background()

	p, err := catalog.Create(ctx, createProductReq("BOLT-1", "Bolt"), testActor)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inbound := strings.Join([]string{
		"내부관리번호,제품고유번호,단가,총입고량,최근입고일",
		",BOLT-1,250,10,2025/01/15",
		",GHOST-1,250,10,2025-01-15",
		p.InternalCode + ",,,5,2025-01-16",
	}, "\n")
	result, err := svc.Upload(ctx, export.KindInbound, "in.csv", strings.NewReader(inbound), testActor)
	if err != nil {
		t.Fatalf("inbound upload: %v", err)
	}
	if result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Fatalf("unexpected inbound counts %+v", result)
	}
	if result.Results.Failed[0].Row != 3 {
		t.Fatalf("expected row 3 to fail, got %+v", result.Results.Failed)
	}

	outbound := strings.Join([]string{
		"제품고유번호,총출고량,최근출고일",
		"BOLT-1,12,2025-01-20",
		"BOLT-1,100,2025-01-21",
	}, "\n")
	result, err = svc.Upload(ctx, export.KindOutbound, "out.csv", strings.NewReader(outbound), testActor)
	if err != nil {
		t.Fatalf("outbound upload: %v", err)
	}
	if result.SuccessCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected outbound counts %+v", result)
	}
	if !strings.Contains(result.Results.Failed[0].Error, "insufficient stock") {
		t.Fatalf("unexpected failure %q", result.Results.Failed[0].Error)
	}

	if got := stockOf(t, db, p.ID); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	assertInvariant(t, db)
}

func TestExportInventoryWorkbook(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, ledger := newTestExporter(db)
	ctx := context.Background()

	p, _ := catalog.Create(ctx, createProductReq("BOLT-1", "Bolt"), testActor)
	if _, err := ledger.ProcessInbound(ctx, InboundRequest{ProductID: p.ID, Quantity: 7, TransactionDate: "2025-02-01"}, testActor); err != nil {
		t.Fatalf("inbound: %v", err)
	}

	file, err := svc.Export(ctx, export.KindInventory, export.FormatXLSX, repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if file.Name != "재고현황_20250301_120000.xlsx" {
		t.Fatalf("unexpected file name %s", file.Name)
	}

	rows, err := export.ReadXLSX(bytes.NewReader(file.Data))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Get(export.ColUniqueCode) != "BOLT-1" || row.Get(export.ColCurrentStock) != "7" {
		t.Fatalf("unexpected row %+v", row.Cells)
	}
	if row.Get(export.ColLastInbound) != "2025-02-01" || row.Get(export.ColStockStatus) != "정상" {
		t.Fatalf("unexpected row %+v", row.Cells)
	}
}

func TestExportTransactionsCSV(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, ledger := newTestExporter(db)
	ctx := context.Background()

	p, _ := catalog.Create(ctx, createProductReq("BOLT-1", "Bolt"), testActor)
	ledger.ProcessInbound(ctx, InboundRequest{ProductID: p.ID, Quantity: 7, UnitPrice: price(100), TransactionDate: "2025-02-01"}, testActor)
	ledger.ProcessOutbound(ctx, OutboundRequest{ProductID: p.ID, Quantity: 2, TransactionDate: "2025-02-02"}, testActor)

	file, err := svc.Export(ctx, export.KindOutbound, export.FormatCSV, repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := export.ReadCSV(bytes.NewReader(file.Data))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 || rows[0].Get(export.ColOutboundQty) != "2" {
		t.Fatalf("expected only the outbound row, got %+v", rows)
	}

	if _, err := svc.Export(ctx, export.KindTransactions, export.FormatCSV, repository.TransactionFilter{StartDate: "2025/02/01"}); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestTemplateRoundTripsThroughUpload(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, _ := newTestExporter(db)
	ctx := context.Background()

	tmpl, err := svc.Template(export.KindProducts, export.FormatXLSX)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.HasPrefix(tmpl.Name, export.TemplateProducts) {
		t.Fatalf("unexpected template name %s", tmpl.Name)
	}

	result, err := svc.Upload(ctx, export.KindProducts, tmpl.Name, bytes.NewReader(tmpl.Data), testActor)
	if err != nil {
		t.Fatalf("upload template: %v", err)
	}
	if result.SuccessCount != 1 {
		t.Fatalf("expected the sample row to import, got %+v", result)
	}
	if _, err := catalog.GetByUniqueCode(ctx, "ABC-123"); err != nil {
		t.Fatalf("sample product missing: %v", err)
	}

	if _, err := svc.Template(export.KindLowStock, export.FormatXLSX); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestTemplateAsCSV(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, _ := newTestExporter(db)
	ctx := context.Background()

	tmpl, err := svc.Template(export.KindProducts, export.FormatCSV)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.HasSuffix(tmpl.Name, ".csv") || tmpl.ContentType != export.FormatCSV.ContentType() {
		t.Fatalf("unexpected template file %s (%s)", tmpl.Name, tmpl.ContentType)
	}
	rows, err := export.ReadCSV(bytes.NewReader(tmpl.Data))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 || rows[0].Get(export.ColUniqueCode) != "ABC-123" {
		t.Fatalf("expected the sample row, got %+v", rows)
	}

	result, err := svc.Upload(ctx, export.KindProducts, tmpl.Name, bytes.NewReader(tmpl.Data), testActor)
	if err != nil || result.SuccessCount != 1 {
		t.Fatalf("upload csv template: %+v %v", result, err)
	}
	if _, err := catalog.GetByUniqueCode(ctx, "ABC-123"); err != nil {
		t.Fatalf("sample product missing: %v", err)
	}
}

func TestCustomExportFilters(t *testing.T) {
	db := setupTestDB(t)
	svc, catalog, ledger := newTestExporter(db)
	ctx := context.Background()

	// min stock 3: alpha ends at 6, beta at 2, gamma at 0
	alpha, _ := catalog.Create(ctx, createProductReq("ALPHA", "Alpha"), testActor)
	beta, _ := catalog.Create(ctx, createProductReq("BETA", "Beta"), testActor)
	if _, err := catalog.Create(ctx, createProductReq("GAMMA", "Gamma"), testActor); err != nil {
		t.Fatalf("create: %v", err)
	}
	ledger.ProcessInbound(ctx, InboundRequest{ProductID: alpha.ID, Quantity: 10, TransactionDate: "2025-02-01"}, testActor)
	ledger.ProcessInbound(ctx, InboundRequest{ProductID: beta.ID, Quantity: 2, TransactionDate: "2025-02-03"}, testActor)
	ledger.ProcessOutbound(ctx, OutboundRequest{ProductID: alpha.ID, Quantity: 4, TransactionDate: "2025-02-05"}, testActor)

	readRows := func(req CustomExportRequest) []export.Row {
		t.Helper()
		file, err := svc.Custom(ctx, req, export.FormatCSV)
		if err != nil {
			t.Fatalf("custom export %+v: %v", req, err)
		}
		rows, err := export.ReadCSV(bytes.NewReader(file.Data))
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		return rows
	}

	rows := readRows(CustomExportRequest{ExportType: export.KindProducts, ProductIDs: []uint{alpha.ID, beta.ID}, IncludeLowStockOnly: true})
	if len(rows) != 1 || rows[0].Get(export.ColUniqueCode) != "BETA" {
		t.Fatalf("products: expected only BETA, got %+v", rows)
	}

	rows = readRows(CustomExportRequest{ExportType: export.KindTransactions, ProductIDs: []uint{alpha.ID}, TransactionType: "outbound"})
	if len(rows) != 1 || rows[0].Get(export.ColQuantity) != "4" {
		t.Fatalf("transactions by product and type: got %+v", rows)
	}

	rows = readRows(CustomExportRequest{ExportType: export.KindTransactions, StartDate: "2025-02-02", EndDate: "2025-02-04"})
	if len(rows) != 1 || rows[0].Get(export.ColUniqueCode) != "BETA" {
		t.Fatalf("transactions by date: got %+v", rows)
	}

	rows = readRows(CustomExportRequest{ExportType: export.KindInventory, IncludeLowStockOnly: true})
	if len(rows) != 2 {
		t.Fatalf("inventory low stock: expected 2 rows, got %+v", rows)
	}
	for _, row := range rows {
		if row.Get(export.ColUniqueCode) == "ALPHA" {
			t.Fatalf("ALPHA is not low on stock: %+v", rows)
		}
	}

	file, err := svc.Custom(ctx, CustomExportRequest{ExportType: export.KindInventory}, export.FormatXLSX)
	if err != nil || !strings.HasPrefix(file.Name, export.KindInventory.Title()) {
		t.Fatalf("xlsx custom export: %v %+v", err, file)
	}

	bad := []CustomExportRequest{
		{},
		{ExportType: export.KindLowStock},
		{ExportType: export.KindTransactions, TransactionType: "MOVE"},
		{ExportType: export.KindTransactions, StartDate: "2025/02/01"},
	}
	for i, req := range bad {
		if _, err := svc.Custom(ctx, req, export.FormatCSV); !IsKind(err, KindInvalidInput) {
			t.Errorf("case %d: expected INVALID_INPUT, got %v", i, err)
		}
	}
}
