package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// TransactionRunner 事务执行器，回调内只能通过 tx 访问数据库
type TransactionRunner interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTransactionRunner GORM 事务执行器
type GormTransactionRunner struct {
	db *gorm.DB
}

// NewTransactionRunner 创建事务执行器
func NewTransactionRunner(db *gorm.DB) *GormTransactionRunner {
	return &GormTransactionRunner{db: db}
}

// Transaction 开启事务执行回调，回调返回错误时整体回滚
func (r *GormTransactionRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r == nil || r.db == nil {
		return errors.New("transaction runner not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.db.WithContext(ctx).Transaction(fn)
}
