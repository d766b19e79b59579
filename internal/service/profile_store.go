package service

import (
	"context"

	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"gorm.io/gorm"
)

// QuotaReader 只读计数来源（用于规则评估）
type QuotaReader interface {
	GetProfileCounters(ctx context.Context, subjectID string) (models.QuotaCounterSnapshot, error)
}

// ProfileStore 外部客户资料存储边界
type ProfileStore interface {
	QuotaReader
	SetProfileCounters(ctx context.Context, subjectID string, snapshot models.QuotaCounterSnapshot) error
}

// TxProfileStore 可加入调用方事务的资料存储
type TxProfileStore interface {
	ProfileStore
	WithTx(tx *gorm.DB) ProfileStore
}

// DatabaseProfileStore 基于 subject_profile 表的资料存储
type DatabaseProfileStore struct {
	repo      repository.SubjectProfileRepository
	forUpdate bool
}

// NewDatabaseProfileStore 创建数据库资料存储
func NewDatabaseProfileStore(repo repository.SubjectProfileRepository) *DatabaseProfileStore {
	return &DatabaseProfileStore{repo: repo}
}

// WithTx 加入事务，事务内读取会锁定客户资料行
func (s *DatabaseProfileStore) WithTx(tx *gorm.DB) ProfileStore {
	if tx == nil {
		return s
	}
	return &DatabaseProfileStore{repo: s.repo.WithTx(tx), forUpdate: true}
}

// GetProfileCounters 读取计数快照
func (s *DatabaseProfileStore) GetProfileCounters(ctx context.Context, subjectID string) (models.QuotaCounterSnapshot, error) {
	return s.repo.GetCounters(subjectID, s.forUpdate)
}

// SetProfileCounters 写回计数快照
func (s *DatabaseProfileStore) SetProfileCounters(ctx context.Context, subjectID string, snapshot models.QuotaCounterSnapshot) error {
	return s.repo.SaveCounters(subjectID, snapshot)
}

// bindProfileStore 事务感知的存储加入事务，其它存储原样返回
func bindProfileStore(store ProfileStore, tx *gorm.DB) ProfileStore {
	if txStore, ok := store.(TxProfileStore); ok {
		return txStore.WithTx(tx)
	}
	return store
}
