package repository

import (
	"context"
	"strconv"
	"strings"

	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, term string) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByInternalCode(ctx context.Context, code string) (*model.Product, error)
	FindByUniqueCode(ctx context.Context, code string) (*model.Product, error)
	FindByCode(ctx context.Context, internalCode, uniqueCode string) (*model.Product, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	Update(tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(tx *gorm.DB, id uint) error

	// Ledger support. These only run inside a unit of work.
	LockByID(tx *gorm.DB, id uint) (*model.Product, error)
	LockAll(tx *gorm.DB) ([]model.Product, error)
	MaxInternalSequence(tx *gorm.DB) (int, error)
	AdjustStock(tx *gorm.DB, id uint, delta int, updatedBy string) (bool, error)
	UpdateStock(tx *gorm.DB, id uint, newStock int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&products).Error
	return products, err
}

// Search matches the term against both codes and the name.
func (r *productRepo) Search(ctx context.Context, term string) ([]model.Product, error) {
	like := "%" + strings.TrimSpace(term) + "%"
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("internal_code LIKE ? OR unique_code LIKE ? OR name LIKE ?", like, like, like).
		Order("name").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByInternalCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("internal_code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByUniqueCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("unique_code = ?", code).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCode resolves a spreadsheet row to a product by either of its codes.
func (r *productRepo) FindByCode(ctx context.Context, internalCode, uniqueCode string) (*model.Product, error) {
	var product model.Product
	q := r.db.WithContext(ctx)
	switch {
	case internalCode != "" && uniqueCode != "":
		q = q.Where("internal_code = ? OR unique_code = ?", internalCode, uniqueCode)
	case internalCode != "":
		q = q.Where("internal_code = ?", internalCode)
	case uniqueCode != "":
		q = q.Where("unique_code = ?", uniqueCode)
	default:
		return nil, gorm.ErrRecordNotFound
	}
	if err := q.Order("id").First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("current_stock <= min_stock").
		Order("name").
		Find(&products).Error
	return products, err
}

// Update writes the given columns only. current_stock is never accepted here.
func (r *productRepo) Update(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	delete(fields, "current_stock")
	if len(fields) == 0 {
		return nil
	}
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) Delete(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Product{}, id).Error
}

// LockByID reads the product with a row lock (FOR UPDATE). SQLite ignores the
// clause because it already serializes writers.
func (r *productRepo) LockByID(tx *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockAll reads every product with a row lock, ordered by id.
func (r *productRepo) LockAll(tx *gorm.DB) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Find(&products).Error
	return products, err
}

// MaxInternalSequence returns the highest numeric suffix of the generated
// internal codes, 0 when there are none.
func (r *productRepo) MaxInternalSequence(tx *gorm.DB) (int, error) {
	var codes []string
	err := tx.Model(&model.Product{}).
		Where("internal_code LIKE ?", model.InternalCodePrefix+"%").
		Order("LENGTH(internal_code) DESC, internal_code DESC").
		Limit(1).
		Pluck("internal_code", &codes).Error
	if err != nil || len(codes) == 0 {
		return 0, err
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(codes[0], model.InternalCodePrefix))
	if err != nil {
		// Someone stored a non numeric code with our prefix; fall back to the row count.
		var count int64
		if err := tx.Model(&model.Product{}).Count(&count).Error; err != nil {
			return 0, err
		}
		return int(count), nil
	}
	return seq, nil
}

// AdjustStock applies delta to current_stock only if the result stays
// non-negative. It reports false when the guard rejected the update.
func (r *productRepo) AdjustStock(tx *gorm.DB, id uint, delta int, updatedBy string) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND current_stock + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock + ?", delta),
			"updated_by":    updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStock overwrites current_stock. Only the recompute repair path uses it.
func (r *productRepo) UpdateStock(tx *gorm.DB, id uint, newStock int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock": newStock,
			"updated_by":    updatedBy,
		}).Error
}
