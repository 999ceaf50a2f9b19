// Package repository 数据访问层，基于 gorm
package repository

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

// txContextKey context 中保存事务的键
const txContextKey contextKey = "tx"

// BaseRepository 提供事务感知的数据库连接
type BaseRepository struct {
	DB *gorm.DB
}

// getDB 返回当前 context 中的事务，没有则返回普通连接
func (r *BaseRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB.WithContext(ctx)
}

// Transactor 在同一事务中执行多个仓储操作
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithTransaction 在事务中执行 fn，fn 返回错误或 panic 时回滚。
// 已处于事务中时直接复用外层事务。
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txContextKey).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey, tx))
	})
}
