package repository

import (
	"errors"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdempotencyRepository 幂等记录仓储接口
type IdempotencyRepository interface {
	Claim(record *models.IdempotencyRecord) (bool, error)
	GetByKey(key string) (*models.IdempotencyRecord, error)
	SaveResponse(id string, responseJSON string) error
	WithTx(tx *gorm.DB) *GormIdempotencyRepository
}

// GormIdempotencyRepository GORM 幂等记录仓储实现
type GormIdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository 创建幂等记录仓储
func NewIdempotencyRepository(db *gorm.DB) *GormIdempotencyRepository {
	return &GormIdempotencyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormIdempotencyRepository) WithTx(tx *gorm.DB) *GormIdempotencyRepository {
	if tx == nil {
		return r
	}
	return &GormIdempotencyRepository{db: tx}
}

// Claim 尝试占用幂等键，返回 true 表示首次出现
func (r *GormIdempotencyRepository) Claim(record *models.IdempotencyRecord) (bool, error) {
	if record == nil || strings.TrimSpace(record.IdempotencyKey) == "" {
		return false, errors.New("invalid idempotency record")
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetByKey 根据幂等键查询记录
func (r *GormIdempotencyRepository) GetByKey(key string) (*models.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var record models.IdempotencyRecord
	if err := r.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// SaveResponse 写入首次执行结果
func (r *GormIdempotencyRepository) SaveResponse(id string, responseJSON string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("invalid idempotency record id")
	}
	return r.db.Model(&models.IdempotencyRecord{}).
		Where("id = ?", id).
		Update("response_json", responseJSON).Error
}
