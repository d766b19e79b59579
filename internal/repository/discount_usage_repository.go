package repository

import (
	"errors"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiscountUsageRepository 会员折扣用量流水仓储接口
type DiscountUsageRepository interface {
	Append(event *models.MembershipDiscountUsageEvent) (string, bool, error)
	SumDelta(subjectID, ruleID string) (int64, error)
	ListBySubject(subjectID string, page, pageSize int) ([]models.MembershipDiscountUsageEvent, int64, error)
	WithTx(tx *gorm.DB) *GormDiscountUsageRepository
}

// GormDiscountUsageRepository GORM 会员折扣用量流水仓储实现
type GormDiscountUsageRepository struct {
	db *gorm.DB
}

// NewDiscountUsageRepository 创建会员折扣用量流水仓储
func NewDiscountUsageRepository(db *gorm.DB) *GormDiscountUsageRepository {
	return &GormDiscountUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountUsageRepository) WithTx(tx *gorm.DB) *GormDiscountUsageRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountUsageRepository{db: tx}
}

// Append 追加用量流水，幂等键已存在时返回已有流水 ID 与 idempotent=true
func (r *GormDiscountUsageRepository) Append(event *models.MembershipDiscountUsageEvent) (string, bool, error) {
	if event == nil || strings.TrimSpace(event.IdempotencyKey) == "" {
		return "", false, errors.New("invalid usage event")
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return "", false, result.Error
	}
	if result.RowsAffected == 1 {
		return event.ID, false, nil
	}

	var existing models.MembershipDiscountUsageEvent
	if err := r.db.Select("id").Where("idempotency_key = ?", event.IdempotencyKey).First(&existing).Error; err != nil {
		return "", false, err
	}
	return existing.ID, true, nil
}

// SumDelta 汇总客户在规则上的累计用量
func (r *GormDiscountUsageRepository) SumDelta(subjectID, ruleID string) (int64, error) {
	var total int64
	err := r.db.Model(&models.MembershipDiscountUsageEvent{}).
		Select(sumAsBigintExpr("delta")).
		Where("subject_id = ? AND rule_id = ?", subjectID, ruleID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListBySubject 查询客户的用量流水，按创建时间倒序
func (r *GormDiscountUsageRepository) ListBySubject(subjectID string, page, pageSize int) ([]models.MembershipDiscountUsageEvent, int64, error) {
	query := r.db.Model(&models.MembershipDiscountUsageEvent{}).Where("subject_id = ?", strings.TrimSpace(subjectID))
	events := make([]models.MembershipDiscountUsageEvent, 0)
	total, err := countAndPage(query, page, pageSize, "created_at desc, id desc", &events)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
