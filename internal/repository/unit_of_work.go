package repository

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork runs fn inside one store transaction. The transaction commits
// when fn returns nil and rolls back when fn returns an error or panics.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return u.db.WithContext(ctx).Transaction(fn)
}
