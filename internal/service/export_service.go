package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type UploadSuccess struct {
	Row  int         `json:"row"`
	Data interface{} `json:"data"`
}

type UploadFailure struct {
	Row   int         `json:"row"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error"`
}

type UploadResults struct {
	Success []UploadSuccess `json:"success"`
	Failed  []UploadFailure `json:"failed"`
}

type UploadResult struct {
	Message      string        `json:"message"`
	Total        int           `json:"total"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Results      UploadResults `json:"results"`
}

func (r *UploadResult) succeed(row int, data interface{}) {
	r.Results.Success = append(r.Results.Success, UploadSuccess{Row: row, Data: data})
}

func (r *UploadResult) fail(row int, data interface{}, err error) {
	r.Results.Failed = append(r.Results.Failed, UploadFailure{Row: row, Data: data, Error: err.Error()})
}

func (r *UploadResult) finish(what string) {
	r.SuccessCount = len(r.Results.Success)
	r.FailedCount = len(r.Results.Failed)
	r.Total = r.SuccessCount + r.FailedCount
	r.Message = fmt.Sprintf("%s upload finished: %d succeeded, %d failed", what, r.SuccessCount, r.FailedCount)
}

// CustomExportRequest narrows one products, transactions or inventory export.
// Every set filter applies; filters that do not fit the export type are ignored.
type CustomExportRequest struct {
	ExportType          export.Kind `json:"export_type" validate:"required,oneof=products transactions inventory"`
	StartDate           string      `json:"start_date" validate:"omitempty,date_ymd"`
	EndDate             string      `json:"end_date" validate:"omitempty,date_ymd"`
	ProductIDs          []uint      `json:"product_ids"`
	TransactionType     string      `json:"transaction_type" validate:"omitempty,tx_type"`
	IncludeLowStockOnly bool        `json:"include_low_stock_only"`
}

type ExportService interface {
	Export(ctx context.Context, kind export.Kind, format export.Format, filter repository.TransactionFilter) (*ExportFile, error)
	Custom(ctx context.Context, req CustomExportRequest, format export.Format) (*ExportFile, error)
	Template(kind export.Kind, format export.Format) (*ExportFile, error)
	Upload(ctx context.Context, kind export.Kind, filename string, r io.Reader, actor Actor) (*UploadResult, error)
}

type exportService struct {
	products  ProductService
	ledger    LedgerService
	inventory InventoryService
	now       func() time.Time
}

func NewExportService(products ProductService, ledger LedgerService, inventory InventoryService) ExportService {
	return &exportService{
		products:  products,
		ledger:    ledger,
		inventory: inventory,
		now:       time.Now,
	}
}

func (s *exportService) Export(ctx context.Context, kind export.Kind, format export.Format, filter repository.TransactionFilter) (*ExportFile, error) {
	records, err := s.records(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	return s.render(kind.Title(), kind.Title(), format, records)
}

func (s *exportService) records(ctx context.Context, kind export.Kind, filter repository.TransactionFilter) (interface{}, error) {
	switch kind {
	case export.KindProducts:
		products, err := s.products.List(ctx, "")
		if err != nil {
			return nil, err
		}
		records := make([]export.ProductRecord, len(products))
		for i := range products {
			records[i] = productRecord(&products[i])
		}
		return records, nil

	case export.KindInventory:
		items, err := s.inventory.Current(ctx)
		if err != nil {
			return nil, err
		}
		records := make([]export.InventoryRecord, len(items))
		for i, item := range items {
			records[i] = inventoryRecord(item)
		}
		return records, nil

	case export.KindLowStock:
		items, err := s.inventory.Current(ctx)
		if err != nil {
			return nil, err
		}
		records := []export.LowStockRecord{}
		for _, item := range items {
			if !item.IsLowStock {
				continue
			}
			shortage := item.MinStock - item.CurrentStock
			if shortage < 0 {
				shortage = 0
			}
			records = append(records, export.LowStockRecord{
				InternalCode: item.InternalCode,
				UniqueCode:   item.UniqueCode,
				Name:         item.Name,
				Unit:         item.Unit,
				MinStock:     item.MinStock,
				CurrentStock: item.CurrentStock,
				Shortage:     shortage,
				StockStatus:  export.StatusText(item.StockStatus),
			})
		}
		return records, nil

	case export.KindTransactions:
		views, err := s.ledger.ListTransactions(ctx, filter)
		if err != nil {
			return nil, err
		}
		records := make([]export.TransactionRecord, len(views))
		for i := range views {
			records[i] = transactionRecord(&views[i])
		}
		return records, nil

	case export.KindInbound:
		filter.Type = model.TxInbound
		views, err := s.ledger.ListTransactions(ctx, filter)
		if err != nil {
			return nil, err
		}
		records := make([]export.InboundRecord, len(views))
		for i, v := range views {
			records[i] = export.InboundRecord{
				TransactionDate: v.TransactionDate,
				InternalCode:    v.ProductInternalCode,
				UniqueCode:      v.ProductUniqueCode,
				Name:            v.ProductName,
				Quantity:        v.Quantity,
				Unit:            v.ProductUnit,
				UnitPrice:       nullFloat(v.UnitPrice),
				TotalAmount:     nullFloat(v.TotalAmount),
				Supplier:        deref(v.Supplier),
				RecordedAt:      formatStamp(v.CreatedAt),
			}
		}
		return records, nil

	case export.KindOutbound:
		filter.Type = model.TxOutbound
		views, err := s.ledger.ListTransactions(ctx, filter)
		if err != nil {
			return nil, err
		}
		records := make([]export.OutboundRecord, len(views))
		for i, v := range views {
			records[i] = export.OutboundRecord{
				TransactionDate: v.TransactionDate,
				InternalCode:    v.ProductInternalCode,
				UniqueCode:      v.ProductUniqueCode,
				Name:            v.ProductName,
				Quantity:        v.Quantity,
				Unit:            v.ProductUnit,
				Reason:          deref(v.Reason),
				RecordedAt:      formatStamp(v.CreatedAt),
			}
		}
		return records, nil
	}
	return nil, InvalidInput("unknown export %q", kind)
}

// Custom renders a products, transactions or inventory export restricted to the
// requested products, date range, transaction type or low-stock items.
func (s *exportService) Custom(ctx context.Context, req CustomExportRequest, format export.Format) (*ExportFile, error) {
	req.TransactionType = strings.ToUpper(strings.TrimSpace(req.TransactionType))
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}
	wanted := func(uint) bool { return true }
	if len(req.ProductIDs) > 0 {
		ids := make(map[uint]bool, len(req.ProductIDs))
		for _, id := range req.ProductIDs {
			ids[id] = true
		}
		wanted = func(id uint) bool { return ids[id] }
	}

	var records interface{}
	switch req.ExportType {
	case export.KindProducts:
		products, err := s.products.List(ctx, "")
		if err != nil {
			return nil, err
		}
		rows := []export.ProductRecord{}
		for i := range products {
			p := &products[i]
			if !wanted(p.ID) || (req.IncludeLowStockOnly && !p.IsLowStock()) {
				continue
			}
			rows = append(rows, productRecord(p))
		}
		records = rows

	case export.KindTransactions:
		views, err := s.ledger.ListTransactions(ctx, repository.TransactionFilter{
			Type:      model.TransactionType(req.TransactionType),
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
		if err != nil {
			return nil, err
		}
		rows := []export.TransactionRecord{}
		for i := range views {
			if wanted(views[i].ProductID) {
				rows = append(rows, transactionRecord(&views[i]))
			}
		}
		records = rows

	case export.KindInventory:
		items, err := s.inventory.Current(ctx)
		if err != nil {
			return nil, err
		}
		rows := []export.InventoryRecord{}
		for _, item := range items {
			if !wanted(item.ID) || (req.IncludeLowStockOnly && !item.IsLowStock) {
				continue
			}
			rows = append(rows, inventoryRecord(item))
		}
		records = rows
	}
	return s.render(req.ExportType.Title(), req.ExportType.Title(), format, records)
}

// Template returns the upload form for products, inbound or outbound rows.
// All three share the inventory export layout so an export can be edited and uploaded back.
func (s *exportService) Template(kind export.Kind, format export.Format) (*ExportFile, error) {
	price := 10000.0
	var (
		sheet  string
		sample export.InventoryRecord
	)
	switch kind {
	case export.KindProducts:
		minStock, stock := 10, 0
		sheet = export.TemplateProducts
		sample = export.InventoryRecord{UniqueCode: "ABC-123", Name: "샘플제품", Unit: "개", UnitPrice: &price, MinStock: &minStock, CurrentStock: &stock}
	case export.KindInbound:
		qty := 100
		sheet = export.TemplateInbound
		sample = export.InventoryRecord{UniqueCode: "ABC-123", UnitPrice: &price, TotalInbound: &qty, LastInbound: "2025-01-15"}
	case export.KindOutbound:
		qty := 50
		sheet = export.TemplateOutbound
		sample = export.InventoryRecord{UniqueCode: "ABC-123", TotalOutbound: &qty, LastOutbound: "2025-01-15"}
	default:
		return nil, InvalidInput("unknown template %q", kind)
	}
	return s.render(sheet, sheet, format, []export.InventoryRecord{sample})
}

func (s *exportService) render(sheet, title string, format export.Format, records interface{}) (*ExportFile, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, sheet, records); err != nil {
		zap.L().Error("export rendering failed", zap.String("sheet", sheet), zap.Error(err))
		return nil, StoreFailure(err)
	}
	return &ExportFile{
		Name:        export.FileName(title, format, s.now()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Upload applies every readable row independently; one bad row never stops the others.
func (s *exportService) Upload(ctx context.Context, kind export.Kind, filename string, r io.Reader, actor Actor) (*UploadResult, error) {
	var (
		rows []export.Row
		err  error
	)
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		rows, err = export.ReadCSV(r)
	} else {
		rows, err = export.ReadXLSX(r)
	}
	if err != nil {
		return nil, InvalidInput("cannot read spreadsheet: %v", err)
	}

	result := &UploadResult{Results: UploadResults{Success: []UploadSuccess{}, Failed: []UploadFailure{}}}
	switch kind {
	case export.KindProducts:
		uploads, rowErrs := export.ParseProducts(rows)
		addRowErrors(result, rowErrs)
		for _, u := range uploads {
			p, err := s.products.Create(ctx, CreateProductRequest{
				UniqueCode:  u.UniqueCode,
				Name:        u.Name,
				Description: u.Description,
				Unit:        u.Unit,
				UnitPrice:   u.UnitPrice,
				MinStock:    u.MinStock,
			}, actor)
			if err != nil {
				result.fail(u.Line, u, err)
				continue
			}
			result.succeed(u.Line, p)
		}
		result.finish("product")

	case export.KindInbound:
		uploads, rowErrs := export.ParseInbound(rows)
		addRowErrors(result, rowErrs)
		for _, u := range uploads {
			p, err := s.products.FindByCode(ctx, u.InternalCode, u.UniqueCode)
			if err != nil {
				result.fail(u.Line, u, err)
				continue
			}
			tx, err := s.ledger.ProcessInbound(ctx, InboundRequest{
				ProductID:       p.ID,
				Quantity:        u.Quantity,
				UnitPrice:       u.UnitPrice,
				Supplier:        optional(u.Supplier),
				TransactionDate: u.TransactionDate,
			}, actor)
			if err != nil {
				result.fail(u.Line, u, err)
				continue
			}
			result.succeed(u.Line, tx)
		}
		result.finish("inbound")

	case export.KindOutbound:
		uploads, rowErrs := export.ParseOutbound(rows)
		addRowErrors(result, rowErrs)
		for _, u := range uploads {
			p, err := s.products.FindByCode(ctx, u.InternalCode, u.UniqueCode)
			if err != nil {
				result.fail(u.Line, u, err)
				continue
			}
			tx, err := s.ledger.ProcessOutbound(ctx, OutboundRequest{
				ProductID:       p.ID,
				Quantity:        u.Quantity,
				Reason:          optional(u.Reason),
				TransactionDate: u.TransactionDate,
			}, actor)
			if err != nil {
				result.fail(u.Line, u, err)
				continue
			}
			result.succeed(u.Line, tx)
		}
		result.finish("outbound")

	default:
		return nil, InvalidInput("unknown upload %q", kind)
	}

	zap.L().Info("spreadsheet upload processed",
		zap.String("kind", string(kind)),
		zap.String("file", filename),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

func addRowErrors(result *UploadResult, errs []export.RowError) {
	for _, e := range errs {
		result.Results.Failed = append(result.Results.Failed, UploadFailure{Row: e.Line, Error: e.Message})
	}
}

func productRecord(p *model.Product) export.ProductRecord {
	return export.ProductRecord{
		InternalCode: p.InternalCode,
		UniqueCode:   p.UniqueCode,
		Name:         p.Name,
		Description:  p.Description,
		Unit:         p.Unit,
		UnitPrice:    p.UnitPrice.InexactFloat64(),
		MinStock:     p.MinStock,
		CurrentStock: p.CurrentStock,
		CreatedAt:    formatDay(p.CreatedAt),
		UpdatedAt:    formatDay(p.UpdatedAt),
	}
}

func transactionRecord(v *repository.TransactionView) export.TransactionRecord {
	return export.TransactionRecord{
		TransactionDate: v.TransactionDate,
		Type:            export.TypeText(v.Type),
		InternalCode:    v.ProductInternalCode,
		UniqueCode:      v.ProductUniqueCode,
		Name:            v.ProductName,
		Quantity:        v.Quantity,
		Unit:            v.ProductUnit,
		UnitPrice:       nullFloat(v.UnitPrice),
		TotalAmount:     nullFloat(v.TotalAmount),
		Supplier:        deref(v.Supplier),
		Reason:          deref(v.Reason),
		RecordedAt:      formatStamp(v.CreatedAt),
	}
}

func inventoryRecord(item InventoryItem) export.InventoryRecord {
	price := item.UnitPrice.InexactFloat64()
	minStock, stock := item.MinStock, item.CurrentStock
	in, out := item.TotalInbound, item.TotalOutbound
	return export.InventoryRecord{
		InternalCode:  item.InternalCode,
		UniqueCode:    item.UniqueCode,
		Name:          item.Name,
		Unit:          item.Unit,
		UnitPrice:     &price,
		MinStock:      &minStock,
		CurrentStock:  &stock,
		TotalInbound:  &in,
		TotalOutbound: &out,
		LastInbound:   deref(item.LastInboundDate),
		LastOutbound:  deref(item.LastOutboundDate),
		StockStatus:   export.StatusText(item.StockStatus),
		IsLowStock:    export.YesNo(item.IsLowStock),
		CreatedAt:     formatDay(item.CreatedAt),
	}
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
