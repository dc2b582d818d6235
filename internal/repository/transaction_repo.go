package repository

import (
	"context"

	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, t *model.Transaction) error
	FindByID(tx *gorm.DB, id uint) (*model.Transaction, error)
	Delete(tx *gorm.DB, id uint) error
	DeleteByProduct(tx *gorm.DB, productID uint) error
	SignedTotals(tx *gorm.DB) (map[uint]int, error)

	List(ctx context.Context, filter TransactionFilter) ([]TransactionView, error)
	FindView(ctx context.Context, id uint) (*TransactionView, error)
	FindByProductChronological(ctx context.Context, productID uint) ([]model.Transaction, error)
	Turnover(ctx context.Context, since string, productID *uint) ([]TurnoverRow, error)
	GetStockMovement(ctx context.Context, startDate, endDate string) ([]StockMovementData, error)
}

// TransactionFilter narrows List. Zero values are ignored; all set fields combine.
type TransactionFilter struct {
	ProductID *uint
	Type      model.TransactionType
	StartDate string
	EndDate   string
}

// TransactionView is a transaction joined with its product's identity.
type TransactionView struct {
	model.Transaction
	ProductName         string `json:"product_name"`
	ProductInternalCode string `json:"product_internal_code"`
	ProductUniqueCode   string `json:"product_unique_code"`
	ProductUnit         string `json:"product_unit"`
}

// TurnoverRow is one product's outbound volume over the turnover window.
type TurnoverRow struct {
	ProductID     uint    `json:"id"`
	Name          string  `json:"name"`
	InternalCode  string  `json:"internal_code"`
	CurrentStock  int     `json:"current_stock"`
	TotalOutbound int     `json:"total_outbound_30days"`
	TurnoverRatio float64 `json:"turnover_ratio"`
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) FindByID(tx *gorm.DB, id uint) (*model.Transaction, error) {
	var t model.Transaction
	if err := tx.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) Delete(tx *gorm.DB, id uint) error {
	res := tx.Delete(&model.Transaction{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepo) DeleteByProduct(tx *gorm.DB, productID uint) error {
	return tx.Where("product_id = ?", productID).Delete(&model.Transaction{}).Error
}

// SignedTotals returns Σ inbound − Σ outbound per product that has transactions.
func (r *transactionRepo) SignedTotals(tx *gorm.DB) (map[uint]int, error) {
	rows, err := tx.Model(&model.Transaction{}).
		Select(`product_id,
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE -quantity END), 0)`, string(model.TxInbound)).
		Group("product_id").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[uint]int)
	for rows.Next() {
		var (
			productID uint
			total     int
		)
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, err
		}
		totals[productID] = total
	}
	return totals, rows.Err()
}

func (r *transactionRepo) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("transactions t").
		Select(`t.*,
			p.name AS product_name,
			p.internal_code AS product_internal_code,
			p.unique_code AS product_unique_code,
			p.unit AS product_unit`).
		Joins("JOIN products p ON p.id = t.product_id")
}

// List returns matching transactions, most recently recorded first.
func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]TransactionView, error) {
	q := r.viewQuery(ctx)
	if filter.ProductID != nil {
		q = q.Where("t.product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("t.type = ?", string(filter.Type))
	}
	if filter.StartDate != "" {
		q = q.Where("t.transaction_date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("t.transaction_date <= ?", filter.EndDate)
	}

	views := []TransactionView{}
	err := q.Order("t.created_at DESC, t.id DESC").Scan(&views).Error
	return views, err
}

func (r *transactionRepo) FindView(ctx context.Context, id uint) (*TransactionView, error) {
	var views []TransactionView
	if err := r.viewQuery(ctx).Where("t.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

// FindByProductChronological returns every transaction of the product in the
// order it was recorded.
func (r *transactionRepo) FindByProductChronological(ctx context.Context, productID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&txs).Error
	return txs, err
}

// Turnover lists products with their outbound quantity dated on or after since.
func (r *transactionRepo) Turnover(ctx context.Context, since string, productID *uint) ([]TurnoverRow, error) {
	outbound := r.db.Model(&model.Transaction{}).
		Select("product_id, SUM(quantity) AS total_outbound").
		Where("type = ? AND transaction_date >= ?", string(model.TxOutbound), since).
		Group("product_id")

	q := r.db.WithContext(ctx).
		Table("products p").
		Select("p.id, p.name, p.internal_code, p.current_stock, COALESCE(o.total_outbound, 0)").
		Joins("LEFT JOIN (?) o ON o.product_id = p.id", outbound)
	if productID != nil {
		q = q.Where("p.id = ?", *productID)
	}

	rows, err := q.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TurnoverRow{}
	for rows.Next() {
		var row TurnoverRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.InternalCode, &row.CurrentStock, &row.TotalOutbound); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetStockMovement aggregates quantities per business date for the chart.
func (r *transactionRepo) GetStockMovement(ctx context.Context, startDate, endDate string) ([]StockMovementData, error) {
	results := []StockMovementData{}

	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			transaction_date,
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS inbound,
			COALESCE(SUM(CASE WHEN type = ? THEN quantity ELSE 0 END), 0) AS outbound
		`, string(model.TxInbound), string(model.TxOutbound)).
		Where("transaction_date BETWEEN ? AND ?", startDate, endDate).
		Group("transaction_date").
		Order("transaction_date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
