package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCellName(t *testing.T) {
	cases := map[string]string{
		CellName(0, 1):   "A1",
		CellName(25, 2):  "Z2",
		CellName(26, 3):  "AA3",
		CellName(27, 10): "AB10",
		CellName(701, 1): "ZZ1",
		CellName(702, 1): "AAA1",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 1, 15, 9, 30, 5, 0, time.UTC)
	if got := FileName(KindInventory.Title(), FormatXLSX, now); got != "재고현황_20250115_093005.xlsx" {
		t.Fatalf("got %s", got)
	}
	if got := FileName(Kind("custom").Title(), FormatCSV, now); got != "custom_20250115_093005.csv" {
		t.Fatalf("got %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatXLSX {
		t.Fatalf("default: %v %v", f, err)
	}
	if f, err := ParseFormat("CSV"); err != nil || f != FormatCSV {
		t.Fatalf("csv: %v %v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2025-01-15":          "2025-01-15",
		"2025/01/15":          "2025-01-15",
		"2025.01.15":          "2025-01-15",
		"2025-01-15 13:45:00": "2025-01-15",
		"45672":               "2025-01-15",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in)
		if err != nil || got != want {
			t.Errorf("%s: got %s %v, want %s", in, got, err, want)
		}
	}
	if _, err := NormalizeDate("15-01-2025"); err == nil {
		t.Error("expected error for day-first date")
	}
}

func TestParseIntLeadingZeroAndDecimals(t *testing.T) {
	cases := map[string]int{"010": 10, "1,200": 1200, "7.0": 7, "0": 0, "": 0}
	for in, want := range cases {
		got, err := parseInt(in)
		if err != nil || got != want {
			t.Errorf("%q: got %d %v, want %d", in, got, err, want)
		}
	}
	if _, err := parseInt("2.5"); err == nil {
		t.Error("expected error for fractional quantity")
	}
}

func TestParseProductsSkipsIncompleteRows(t *testing.T) {
	rows := []Row{
		{Line: 2, Cells: map[string]string{ColUniqueCode: "ABC-123", ColName: "샘플제품", ColUnit: "개", ColUnitPrice: "10000", ColMinStock: "10"}},
		{Line: 3, Cells: map[string]string{ColUniqueCode: "ABC-124", ColName: "이름만"}},
		{Line: 4, Cells: map[string]string{"unique_code": "X-1", "name": "English", "unit": "ea", "unit_price": "abc"}},
	}
	products, errs := ParseProducts(rows)
	if len(products) != 1 || products[0].UniqueCode != "ABC-123" || products[0].MinStock != 10 {
		t.Fatalf("unexpected products %+v", products)
	}
	if products[0].UnitPrice.IntPart() != 10000 {
		t.Fatalf("unexpected price %s", products[0].UnitPrice)
	}
	if len(errs) != 1 || errs[0].Line != 4 {
		t.Fatalf("expected one error on line 4, got %+v", errs)
	}
}

func TestParseInboundAliases(t *testing.T) {
	rows := []Row{
		{Line: 2, Cells: map[string]string{ColUniqueCode: "ABC-123", ColTotalInbound: "100", ColLastInbound: "2025-01-15", ColUnitPrice: "10000"}},
		{Line: 3, Cells: map[string]string{ColInternalCode: "P000002", ColInboundQty: "5", ColInboundDate: "2025/02/01", ColSupplier: "ACME"}},
		{Line: 4, Cells: map[string]string{ColUniqueCode: "ABC-123", ColTotalInbound: "-3", ColLastInbound: "2025-01-15"}},
		{Line: 5, Cells: map[string]string{ColUniqueCode: "ABC-123", ColLastInbound: "2025-01-15"}},
	}
	uploads, errs := ParseInbound(rows)
	if len(uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %+v", uploads)
	}
	if uploads[0].Quantity != 100 || uploads[0].UnitPrice == nil || uploads[0].UnitPrice.IntPart() != 10000 {
		t.Fatalf("unexpected first upload %+v", uploads[0])
	}
	if uploads[1].InternalCode != "P000002" || uploads[1].TransactionDate != "2025-02-01" || uploads[1].UnitPrice != nil {
		t.Fatalf("unexpected second upload %+v", uploads[1])
	}
	if len(errs) != 1 || errs[0].Line != 4 {
		t.Fatalf("expected the negative quantity to be reported, got %+v", errs)
	}
}

func TestParseOutbound(t *testing.T) {
	rows := []Row{
		{Line: 2, Cells: map[string]string{ColUniqueCode: "ABC-123", ColTotalOutbound: "50", ColLastOutbound: "2025-01-15", ColReason: "판매"}},
		{Line: 3, Cells: map[string]string{ColUniqueCode: "ABC-123", ColTotalInbound: "50", ColLastInbound: "2025-01-15"}},
	}
	uploads, errs := ParseOutbound(rows)
	if len(errs) != 0 || len(uploads) != 1 {
		t.Fatalf("unexpected result %+v %+v", uploads, errs)
	}
	if uploads[0].Quantity != 50 || uploads[0].Reason != "판매" {
		t.Fatalf("unexpected upload %+v", uploads[0])
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	price := 10000.0
	inbound := 100
	records := []InventoryRecord{
		{UniqueCode: "ABC-123", UnitPrice: &price, TotalInbound: &inbound, LastInbound: "2025-01-15"},
		{UniqueCode: "ABC-124"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, TemplateInbound, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Line != 2 || rows[0].Get(ColTotalInbound) != "100" || rows[0].Get(ColUnitPrice) != "10000" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Get(ColUniqueCode) != "ABC-124" || rows[1].Get(ColTotalInbound) != "" {
		t.Fatalf("unexpected second row %+v", rows[1])
	}

	uploads, errs := ParseInbound(rows)
	if len(uploads) != 1 || len(errs) != 0 {
		t.Fatalf("template rows should parse: %+v %+v", uploads, errs)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	records := []OutboundRecord{{TransactionDate: "2025-01-15", UniqueCode: "ABC-123", Quantity: 3, Reason: "판매"}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), utf8BOM+ColOutboundDate) {
		t.Fatalf("expected BOM and header, got %q", buf.String())
	}

	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	uploads, errs := ParseOutbound(rows)
	if len(errs) != 0 || len(uploads) != 1 || uploads[0].Quantity != 3 {
		t.Fatalf("unexpected result %+v %+v", uploads, errs)
	}
}
