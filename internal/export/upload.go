package export

import (
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Column aliases accepted by the uploads. The Korean names match the export
// and template layouts; the English ones match the JSON API fields.
var (
	aliasInternalCode = []string{ColInternalCode, "internal_code"}
	aliasUniqueCode   = []string{ColUniqueCode, "unique_code"}
	aliasName         = []string{ColName, "name"}
	aliasDescription  = []string{ColDescription, "description"}
	aliasUnit         = []string{ColUnit, "unit"}
	aliasUnitPrice    = []string{ColUnitPrice, "unit_price"}
	aliasMinStock     = []string{ColMinStock, "min_stock"}
	aliasSupplier     = []string{ColSupplier, "supplier"}
	aliasReason       = []string{ColReason, "reason"}
	aliasInboundQty   = []string{ColTotalInbound, ColInboundQty, "quantity"}
	aliasOutboundQty  = []string{ColTotalOutbound, ColOutboundQty, "quantity"}
	aliasInboundDate  = []string{ColLastInbound, ColTxDate, "transaction_date", ColInboundDate}
	aliasOutboundDate = []string{ColLastOutbound, ColTxDate, "transaction_date", ColOutboundDate}
)

// excelEpoch is day zero of spreadsheet date serial numbers.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// RowError reports an uploaded row that could not be read.
type RowError struct {
	Line    int    `json:"row"`
	Message string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Message)
}

type ProductUpload struct {
	Line         int
	InternalCode string
	UniqueCode   string
	Name         string
	Description  string
	Unit         string
	UnitPrice    decimal.Decimal
	MinStock     int
}

type InboundUpload struct {
	Line            int
	InternalCode    string
	UniqueCode      string
	Quantity        int
	UnitPrice       *decimal.Decimal
	Supplier        string
	TransactionDate string
}

type OutboundUpload struct {
	Line            int
	InternalCode    string
	UniqueCode      string
	Quantity        int
	Reason          string
	TransactionDate string
}

// ParseProducts keeps rows carrying a unique code, a name and a unit; others are ignored.
func ParseProducts(rows []Row) ([]ProductUpload, []RowError) {
	var (
		out  []ProductUpload
		errs []RowError
	)
	for _, row := range rows {
		unique, name, unit := row.Get(aliasUniqueCode...), row.Get(aliasName...), row.Get(aliasUnit...)
		if unique == "" || name == "" || unit == "" {
			continue
		}
		price, err := parseDecimal(row.Get(aliasUnitPrice...))
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Message: "invalid unit price: " + err.Error()})
			continue
		}
		minStock, err := parseInt(row.Get(aliasMinStock...))
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Message: "invalid min stock: " + err.Error()})
			continue
		}
		out = append(out, ProductUpload{
			Line:         row.Line,
			InternalCode: row.Get(aliasInternalCode...),
			UniqueCode:   unique,
			Name:         name,
			Description:  row.Get(aliasDescription...),
			Unit:         unit,
			UnitPrice:    price,
			MinStock:     minStock,
		})
	}
	return out, errs
}

// ParseInbound keeps rows carrying a product code, a quantity and a date.
func ParseInbound(rows []Row) ([]InboundUpload, []RowError) {
	var (
		out  []InboundUpload
		errs []RowError
	)
	for _, row := range rows {
		internal, unique := row.Get(aliasInternalCode...), row.Get(aliasUniqueCode...)
		rawQty, rawDate := row.Get(aliasInboundQty...), row.Get(aliasInboundDate...)
		if (internal == "" && unique == "") || rawQty == "" || rawDate == "" {
			continue
		}
		qty, date, err := quantityAndDate(rawQty, rawDate)
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Message: err.Error()})
			continue
		}
		up := InboundUpload{
			Line:            row.Line,
			InternalCode:    internal,
			UniqueCode:      unique,
			Quantity:        qty,
			Supplier:        row.Get(aliasSupplier...),
			TransactionDate: date,
		}
		if raw := row.Get(aliasUnitPrice...); raw != "" {
			price, err := parseDecimal(raw)
			if err != nil {
				errs = append(errs, RowError{Line: row.Line, Message: "invalid unit price: " + err.Error()})
				continue
			}
			up.UnitPrice = &price
		}
		out = append(out, up)
	}
	return out, errs
}

// ParseOutbound keeps rows carrying a product code, a quantity and a date.
func ParseOutbound(rows []Row) ([]OutboundUpload, []RowError) {
	var (
		out  []OutboundUpload
		errs []RowError
	)
	for _, row := range rows {
		internal, unique := row.Get(aliasInternalCode...), row.Get(aliasUniqueCode...)
		rawQty, rawDate := row.Get(aliasOutboundQty...), row.Get(aliasOutboundDate...)
		if (internal == "" && unique == "") || rawQty == "" || rawDate == "" {
			continue
		}
		qty, date, err := quantityAndDate(rawQty, rawDate)
		if err != nil {
			errs = append(errs, RowError{Line: row.Line, Message: err.Error()})
			continue
		}
		out = append(out, OutboundUpload{
			Line:            row.Line,
			InternalCode:    internal,
			UniqueCode:      unique,
			Quantity:        qty,
			Reason:          row.Get(aliasReason...),
			TransactionDate: date,
		})
	}
	return out, errs
}

func quantityAndDate(rawQty, rawDate string) (int, string, error) {
	qty, err := parseInt(rawQty)
	if err != nil || qty <= 0 {
		return 0, "", fmt.Errorf("quantity must be a positive integer, got %q", rawQty)
	}
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return 0, "", err
	}
	return qty, date, nil
}

// NormalizeDate accepts YYYY-MM-DD, YYYY/MM/DD, YYYY.MM.DD, a leading date
// part of a timestamp, or a spreadsheet serial number.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if serial, err := cast.ToFloat64E(s); err == nil && serial > 0 && !strings.ContainsAny(s, "-/.") {
		return excelEpoch.AddDate(0, 0, int(serial)).Format(model.DateLayout), nil
	}
	s = strings.NewReplacer("/", "-", ".", "-").Replace(s)
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t.Format(model.DateLayout), nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	// cast parses with base 0, so a leading zero would read as octal.
	if t := strings.TrimLeft(s, "0"); t != s {
		if t == "" {
			return 0, nil
		}
		s = t
	}
	if n, err := cast.ToIntE(s); err == nil {
		return n, nil
	}
	// Spreadsheets often hand back integral numbers as "10.0".
	f, err := cast.ToFloat64E(s)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q is negative", s)
	}
	return d, nil
}
