package service

import (
	"context"
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/validator"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	UniqueCode  string          `json:"unique_code" validate:"required,max=100"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Unit        string          `json:"unit" validate:"required,max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	MinStock    int             `json:"min_stock" validate:"gte=0"`
}

// UpdateProductRequest is a partial update; nil fields are left untouched.
// Stock is deliberately absent: only the ledger moves it.
type UpdateProductRequest struct {
	UniqueCode  *string          `json:"unique_code" validate:"omitempty,min=1,max=100"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	MinStock    *int             `json:"min_stock" validate:"omitempty,gte=0"`
}

type ProductService interface {
	Create(ctx context.Context, req CreateProductRequest, actor Actor) (*model.Product, error)
	Update(ctx context.Context, id uint, req UpdateProductRequest, actor Actor) (old *model.Product, updated *model.Product, err error)
	Delete(ctx context.Context, id uint, actor Actor) (*model.Product, error)
	GetByID(ctx context.Context, id uint) (*model.Product, error)
	GetByInternalCode(ctx context.Context, code string) (*model.Product, error)
	GetByUniqueCode(ctx context.Context, code string) (*model.Product, error)
	FindByCode(ctx context.Context, internalCode, uniqueCode string) (*model.Product, error)
	List(ctx context.Context, query string) ([]model.Product, error)
	LowStock(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	uow         repository.UnitOfWork
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	publisher   Publisher
}

func NewProductService(uow repository.UnitOfWork, pRepo repository.ProductRepository, tRepo repository.TransactionRepository, publisher Publisher) ProductService {
	return &productService{
		uow:         uow,
		productRepo: pRepo,
		txRepo:      tRepo,
		publisher:   publisher,
	}
}

func (s *productService) Create(ctx context.Context, req CreateProductRequest, actor Actor) (*model.Product, error) {
	req.UniqueCode = strings.TrimSpace(req.UniqueCode)
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, InvalidInput("%s", validator.Join(errs))
	}
	if req.UnitPrice.IsNegative() {
		return nil, InvalidInput("unit_price cannot be negative")
	}

	if existing, err := s.productRepo.FindByUniqueCode(ctx, req.UniqueCode); err == nil && existing != nil {
		return nil, Conflict("unique code '%s' already exists", req.UniqueCode)
	}

	product := &model.Product{
		BaseModel: model.BaseModel{
			CreatedBy: actor.Label(),
			UpdatedBy: actor.Label(),
		},
		UniqueCode:   req.UniqueCode,
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Unit:         req.Unit,
		UnitPrice:    req.UnitPrice,
		MinStock:     req.MinStock,
		CurrentStock: 0,
	}

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		seq, err := s.productRepo.MaxInternalSequence(tx)
		if err != nil {
			return storeError(err, "product")
		}
		product.InternalCode = model.FormatInternalCode(seq + 1)
		return storeError(s.productRepo.Create(tx, product), "product")
	})
	if err != nil {
		return nil, err
	}

	s.publish("product_created", product, actor, fmt.Sprintf("%s created product '%s'", actor.Label(), product.Name))
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uint, req UpdateProductRequest, actor Actor) (*model.Product, *model.Product, error) {
	// trimmed before validation so "   " fails min=1
	req.UniqueCode = trimmedCopy(req.UniqueCode)
	req.Name = trimmedCopy(req.Name)
	req.Description = trimmedCopy(req.Description)
	req.Unit = trimmedCopy(req.Unit)
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, nil, InvalidInput("%s", validator.Join(errs))
	}

	old, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, storeError(err, "product")
	}

	fields := map[string]interface{}{"updated_by": actor.Label()}
	if req.UniqueCode != nil {
		code := *req.UniqueCode
		if code != old.UniqueCode {
			if other, err := s.productRepo.FindByUniqueCode(ctx, code); err == nil && other.ID != id {
				return nil, nil, Conflict("unique code '%s' already exists", code)
			}
		}
		fields["unique_code"] = code
	}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Unit != nil {
		fields["unit"] = *req.Unit
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, nil, InvalidInput("unit_price cannot be negative")
		}
		fields["unit_price"] = *req.UnitPrice
	}
	if req.MinStock != nil {
		fields["min_stock"] = *req.MinStock
	}

	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		if _, err := s.productRepo.LockByID(tx, id); err != nil {
			return storeError(err, "product")
		}
		return storeError(s.productRepo.Update(tx, id, fields), "product")
	})
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, storeError(err, "product")
	}
	s.publish("product_updated", updated, actor, fmt.Sprintf("%s updated product '%s'", actor.Label(), updated.Name))
	return old, updated, nil
}

// Delete removes the product together with its transaction history.
func (s *productService) Delete(ctx context.Context, id uint, actor Actor) (*model.Product, error) {
	var product *model.Product
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		var err error
		product, err = s.productRepo.LockByID(tx, id)
		if err != nil {
			return storeError(err, "product")
		}
		if err := s.txRepo.DeleteByProduct(tx, id); err != nil {
			return storeError(err, "transaction")
		}
		return storeError(s.productRepo.Delete(tx, id), "product")
	})
	if err != nil {
		return nil, err
	}

	s.publish("product_deleted", product, actor, fmt.Sprintf("%s deleted product '%s'", actor.Label(), product.Name))
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	return p, storeError(err, "product")
}

func (s *productService) GetByInternalCode(ctx context.Context, code string) (*model.Product, error) {
	p, err := s.productRepo.FindByInternalCode(ctx, strings.TrimSpace(code))
	return p, storeError(err, "product")
}

func (s *productService) GetByUniqueCode(ctx context.Context, code string) (*model.Product, error) {
	p, err := s.productRepo.FindByUniqueCode(ctx, strings.TrimSpace(code))
	return p, storeError(err, "product")
}

func (s *productService) FindByCode(ctx context.Context, internalCode, uniqueCode string) (*model.Product, error) {
	p, err := s.productRepo.FindByCode(ctx, strings.TrimSpace(internalCode), strings.TrimSpace(uniqueCode))
	return p, storeError(err, "product")
}

func (s *productService) List(ctx context.Context, query string) ([]model.Product, error) {
	var (
		products []model.Product
		err      error
	)
	if strings.TrimSpace(query) == "" {
		products, err = s.productRepo.FindAll(ctx)
	} else {
		products, err = s.productRepo.Search(ctx, query)
	}
	if err != nil {
		return nil, storeError(err, "product")
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		return nil, storeError(err, "product")
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) publish(action string, p *model.Product, actor Actor, message string) {
	if s.publisher == nil {
		return
	}
	event := StockEvent{
		Type:         "stock_update",
		Action:       action,
		ProductID:    p.ID,
		ProductName:  p.Name,
		CurrentStock: p.CurrentStock,
		Message:      message,
	}
	if actor.Username != "" {
		a := actor
		event.User = &a
	}
	s.publisher.Publish(event)
}

func trimmedCopy(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
