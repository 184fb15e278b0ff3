package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/marketplace/backend/internal/domain/shared"
)

type txContextKey struct{}

// WithTx returns a context carrying the transactional connection
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext extracts the transactional connection from the context, if any
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}

// connFromContext resolves the connection repositories should use: the
// transaction carried in the context when inside a unit of work, the
// fallback connection otherwise.
func connFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// GormUnitOfWork implements shared.UnitOfWork on top of GORM transactions.
// The transaction is carried in the context, so repositories called inside
// fn automatically join it.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinTx runs fn inside a single transaction. It commits when fn returns
// nil and rolls back when fn returns an error. Nested calls join the
// transaction already carried by the context.
func (u *GormUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)
