package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories bound to one transaction.
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
	Sessions SessionRepository
}

// Transactor runs a unit of work across repositories. If fn returns an error
// every write made through repos is rolled back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor over db.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, Repositories{
			Users:    &userRepository{db: tx},
			Products: &productRepository{db: tx},
			Sessions: &sessionRepository{db: tx},
		})
	})
}
