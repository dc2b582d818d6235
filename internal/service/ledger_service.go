package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultMovementDays = 30
	turnoverWindowDays  = 30
	recomputeActor      = "system:recompute"
)

// Actor identifies who triggered a mutation. The zero value is the system.
type Actor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Label is the value written to created_by / updated_by.
func (a Actor) Label() string {
	if a.Username == "" {
		return "system"
	}
	return a.Username
}

// Publisher receives committed stock changes, typically the websocket hub.
type Publisher interface {
	Publish(event interface{})
}

// StockEvent is pushed to live clients after a ledger mutation commits.
type StockEvent struct {
	Type         string             `json:"type"`
	Action       string             `json:"action"`
	ProductID    uint               `json:"product_id"`
	ProductName  string             `json:"product_name"`
	CurrentStock int                `json:"current_stock"`
	Transaction  *model.Transaction `json:"transaction,omitempty"`
	User         *Actor             `json:"user,omitempty"`
	Message      string             `json:"message"`
}

type InboundRequest struct {
	ProductID       uint             `json:"product_id" validate:"required"`
	Quantity        int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Supplier        *string          `json:"supplier" validate:"omitempty,max=200"`
	TransactionDate string           `json:"transaction_date" validate:"omitempty,date_ymd"`
}

type OutboundRequest struct {
	ProductID       uint    `json:"product_id" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	Reason          *string `json:"reason" validate:"omitempty,max=200"`
	TransactionDate string  `json:"transaction_date" validate:"omitempty,date_ymd"`
}

// StockCorrection reports a product whose stored stock drifted from its history.
type StockCorrection struct {
	ProductID    uint   `json:"product_id"`
	InternalCode string `json:"internal_code"`
	Name         string `json:"name"`
	OldStock     int    `json:"old_stock"`
	NewStock     int    `json:"new_stock"`
}

// StockMovement is a transaction annotated with the product's stock right after it.
type StockMovement struct {
	model.Transaction
	StockAfter int `json:"stock_after"`
}

type LedgerService interface {
	ProcessInbound(ctx context.Context, req InboundRequest, actor Actor) (*model.Transaction, error)
	ProcessOutbound(ctx context.Context, req OutboundRequest, actor Actor) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id uint, actor Actor) (*model.Transaction, error)
	RecomputeAllStock(ctx context.Context) ([]StockCorrection, error)
	ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]repository.TransactionView, error)
	GetTransaction(ctx context.Context, id uint) (*repository.TransactionView, error)
	StockMovements(ctx context.Context, productID uint, days int) ([]StockMovement, error)
	StockTurnover(ctx context.Context, productID *uint) ([]repository.TurnoverRow, error)
}

type ledgerService struct {
	uow         repository.UnitOfWork
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	publisher   Publisher
	now         func() time.Time
}

// NewLedgerService builds the ledger. publisher may be nil.
func NewLedgerService(uow repository.UnitOfWork, pRepo repository.ProductRepository, tRepo repository.TransactionRepository, publisher Publisher) LedgerService {
	return &ledgerService{
		uow:         uow,
		productRepo: pRepo,
		txRepo:      tRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *ledgerService) today() string {
	return s.now().Format(model.DateLayout)
}

func (s *ledgerService) ProcessInbound(ctx context.Context, req InboundRequest, actor Actor) (*model.Transaction, error) {
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, InvalidInput("unit_price cannot be negative")
	}

	record := &model.Transaction{
		ProductID:       req.ProductID,
		Type:            model.TxInbound,
		Quantity:        req.Quantity,
		Supplier:        trimmedOrNil(req.Supplier),
		TransactionDate: req.TransactionDate,
		CreatedBy:       actor.Label(),
	}
	if record.TransactionDate == "" {
		record.TransactionDate = s.today()
	}
	if req.UnitPrice != nil {
		record.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
		record.TotalAmount = decimal.NewNullDecimal(req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}

	product, err := s.apply(ctx, record, actor)
	if err != nil {
		return nil, err
	}

	s.publish(StockEvent{
		Action:       "transaction_created",
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.CurrentStock,
		Transaction:  record,
		Message:      fmt.Sprintf("%s received %d%s of '%s'", actor.Label(), record.Quantity, product.Unit, product.Name),
	}, actor)
	return record, nil
}

func (s *ledgerService) ProcessOutbound(ctx context.Context, req OutboundRequest, actor Actor) (*model.Transaction, error) {
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}

	record := &model.Transaction{
		ProductID:       req.ProductID,
		Type:            model.TxOutbound,
		Quantity:        req.Quantity,
		Reason:          trimmedOrNil(req.Reason),
		TransactionDate: req.TransactionDate,
		CreatedBy:       actor.Label(),
	}
	if record.TransactionDate == "" {
		record.TransactionDate = s.today()
	}

	product, err := s.apply(ctx, record, actor)
	if err != nil {
		return nil, err
	}

	s.publish(StockEvent{
		Action:       "transaction_created",
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.CurrentStock,
		Transaction:  record,
		Message:      fmt.Sprintf("%s shipped %d%s of '%s'", actor.Label(), record.Quantity, product.Unit, product.Name),
	}, actor)
	return record, nil
}

// apply records a new transaction and moves the product's stock by its signed
// quantity in one unit of work. It returns the product as of after the change.
func (s *ledgerService) apply(ctx context.Context, record *model.Transaction, actor Actor) (*model.Product, error) {
	var product *model.Product
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		product, err = s.productRepo.LockByID(tx, record.ProductID)
		if err != nil {
			return storeError(err, "product")
		}

		if record.Type == model.TxOutbound && product.CurrentStock < record.Quantity {
			return InsufficientStock(product.CurrentStock, product.Unit, record.Quantity)
		}

		if err := s.txRepo.Create(tx, record); err != nil {
			return storeError(err, "transaction")
		}

		ok, err := s.productRepo.AdjustStock(tx, product.ID, record.SignedQuantity(), actor.Label())
		if err != nil {
			return storeError(err, "product")
		}
		if !ok {
			// Only reachable when the row changed after the lock was taken.
			return InsufficientStock(product.CurrentStock, product.Unit, record.Quantity)
		}
		product.CurrentStock += record.SignedQuantity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteTransaction removes a transaction and reverses its effect on stock.
// It refuses when the reversal would make the stock negative.
func (s *ledgerService) DeleteTransaction(ctx context.Context, id uint, actor Actor) (*model.Transaction, error) {
	var (
		record  *model.Transaction
		product *model.Product
	)
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		record, err = s.txRepo.FindByID(tx, id)
		if err != nil {
			return storeError(err, "transaction")
		}

		product, err = s.productRepo.LockByID(tx, record.ProductID)
		if err != nil {
			return storeError(err, "product of the transaction")
		}

		reversal := -record.SignedQuantity()
		if product.CurrentStock+reversal < 0 {
			return InvariantViolation("deleting transaction %d would make the stock of '%s' negative (%d%s)",
				record.ID, product.Name, product.CurrentStock+reversal, product.Unit)
		}

		ok, err := s.productRepo.AdjustStock(tx, product.ID, reversal, actor.Label())
		if err != nil {
			return storeError(err, "product")
		}
		if !ok {
			return InvariantViolation("deleting transaction %d would make the stock of '%s' negative", record.ID, product.Name)
		}

		if err := s.txRepo.Delete(tx, record.ID); err != nil {
			return storeError(err, "transaction")
		}
		product.CurrentStock += reversal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(StockEvent{
		Action:       "transaction_deleted",
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.CurrentStock,
		Transaction:  record,
		Message:      fmt.Sprintf("%s deleted a %s transaction of '%s'", actor.Label(), record.Type, product.Name),
	}, actor)
	return record, nil
}

// RecomputeAllStock rebuilds every product's stock from its transaction
// history and returns the products that had drifted. Running it twice yields
// no corrections the second time.
func (s *ledgerService) RecomputeAllStock(ctx context.Context) ([]StockCorrection, error) {
	corrections := []StockCorrection{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		products, err := s.productRepo.LockAll(tx)
		if err != nil {
			return storeError(err, "product")
		}
		totals, err := s.txRepo.SignedTotals(tx)
		if err != nil {
			return storeError(err, "transaction")
		}

		for _, p := range products {
			want := totals[p.ID]
			if want == p.CurrentStock {
				continue
			}
			if want < 0 {
				return InvariantViolation("transaction history of '%s' (%s) sums to %d", p.Name, p.InternalCode, want)
			}
			if err := s.productRepo.UpdateStock(tx, p.ID, want, recomputeActor); err != nil {
				return storeError(err, "product")
			}
			corrections = append(corrections, StockCorrection{
				ProductID:    p.ID,
				InternalCode: p.InternalCode,
				Name:         p.Name,
				OldStock:     p.CurrentStock,
				NewStock:     want,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range corrections {
		zap.L().Warn("stock drift corrected",
			zap.Uint("product_id", c.ProductID),
			zap.String("internal_code", c.InternalCode),
			zap.Int("old_stock", c.OldStock),
			zap.Int("new_stock", c.NewStock))
		s.publish(StockEvent{
			Action:       "stock_recomputed",
			ProductID:    c.ProductID,
			ProductName:  c.Name,
			CurrentStock: c.NewStock,
			Message:      fmt.Sprintf("stock of '%s' corrected from %d to %d", c.Name, c.OldStock, c.NewStock),
		}, Actor{})
	}
	return corrections, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]repository.TransactionView, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, InvalidInput("type must be INBOUND or OUTBOUND")
	}
	if filter.StartDate != "" && !validator.IsDate(filter.StartDate) {
		return nil, InvalidInput("start_date must be YYYY-MM-DD")
	}
	if filter.EndDate != "" && !validator.IsDate(filter.EndDate) {
		return nil, InvalidInput("end_date must be YYYY-MM-DD")
	}
	views, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return views, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, id uint) (*repository.TransactionView, error) {
	view, err := s.txRepo.FindView(ctx, id)
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return view, nil
}

// StockMovements returns the product's transactions dated within the last
// days days, newest first, each with the running stock after it.
func (s *ledgerService) StockMovements(ctx context.Context, productID uint, days int) ([]StockMovement, error) {
	if days <= 0 {
		days = defaultMovementDays
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, storeError(err, "product")
	}

	history, err := s.txRepo.FindByProductChronological(ctx, productID)
	if err != nil {
		return nil, storeError(err, "transaction")
	}

	since := s.now().AddDate(0, 0, -days).Format(model.DateLayout)
	running := 0
	movements := []StockMovement{}
	for _, t := range history {
		running += t.SignedQuantity()
		if t.TransactionDate >= since {
			movements = append(movements, StockMovement{Transaction: t, StockAfter: running})
		}
	}

	for i, j := 0, len(movements)-1; i < j; i, j = i+1, j-1 {
		movements[i], movements[j] = movements[j], movements[i]
	}
	return movements, nil
}

// StockTurnover rates each product by outbound volume of the last 30 days
// relative to its current stock.
func (s *ledgerService) StockTurnover(ctx context.Context, productID *uint) ([]repository.TurnoverRow, error) {
	since := s.now().AddDate(0, 0, -turnoverWindowDays).Format(model.DateLayout)
	rows, err := s.txRepo.Turnover(ctx, since, productID)
	if err != nil {
		return nil, storeError(err, "transaction")
	}

	for i := range rows {
		rows[i].TurnoverRatio = turnoverRatio(rows[i].TotalOutbound, rows[i].CurrentStock)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TurnoverRatio != rows[j].TurnoverRatio {
			return rows[i].TurnoverRatio > rows[j].TurnoverRatio
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

func turnoverRatio(outbound, stock int) float64 {
	if stock <= 0 {
		return 0
	}
	return math.Round(float64(outbound)/float64(stock)*100) / 100
}

func (s *ledgerService) publish(event StockEvent, actor Actor) {
	if s.publisher == nil {
		return
	}
	event.Type = "stock_update"
	if actor.Username != "" {
		a := actor
		event.User = &a
	}
	s.publisher.Publish(event)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
