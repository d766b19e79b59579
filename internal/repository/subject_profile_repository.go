package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubjectProfileRepository 客户资料仓储接口
type SubjectProfileRepository interface {
	GetCounters(subjectID string, forUpdate bool) (models.QuotaCounterSnapshot, error)
	SaveCounters(subjectID string, snapshot models.QuotaCounterSnapshot) error
	WithTx(tx *gorm.DB) *GormSubjectProfileRepository
}

// GormSubjectProfileRepository GORM 客户资料仓储实现
type GormSubjectProfileRepository struct {
	db *gorm.DB
}

// NewSubjectProfileRepository 创建客户资料仓储
func NewSubjectProfileRepository(db *gorm.DB) *GormSubjectProfileRepository {
	return &GormSubjectProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSubjectProfileRepository) WithTx(tx *gorm.DB) *GormSubjectProfileRepository {
	if tx == nil {
		return r
	}
	return &GormSubjectProfileRepository{db: tx}
}

// GetCounters 读取客户的规则用量快照
// forUpdate 时先补齐资料行再加锁读取，保证同一客户的写入串行
func (r *GormSubjectProfileRepository) GetCounters(subjectID string, forUpdate bool) (models.QuotaCounterSnapshot, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("invalid subject id")
	}
	query := r.db
	if forUpdate {
		placeholder := models.SubjectProfile{SubjectID: subjectID, Metadata: datatypes.JSONMap{}}
		if err := r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			DoNothing: true,
		}).Create(&placeholder).Error; err != nil {
			return nil, err
		}
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var profile models.SubjectProfile
	if err := query.Where("subject_id = ?", subjectID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuotaCounterSnapshot{}, nil
		}
		return nil, err
	}
	return decodeCounters(profile.Metadata)
}

// SaveCounters 覆盖写入规则用量快照，保留其它元数据键
func (r *GormSubjectProfileRepository) SaveCounters(subjectID string, snapshot models.QuotaCounterSnapshot) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return errors.New("invalid subject id")
	}
	var profile models.SubjectProfile
	err := r.db.Where("subject_id = ?", subjectID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	metadata := datatypes.JSONMap{}
	for k, v := range profile.Metadata {
		metadata[k] = v
	}
	encoded, err := encodeCounters(snapshot)
	if err != nil {
		return err
	}
	metadata[constants.ProfileMetadataDiscountCounters] = encoded

	next := models.SubjectProfile{
		SubjectID: subjectID,
		Metadata:  metadata,
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"metadata", "updated_at"}),
	}).Create(&next).Error
}

func decodeCounters(metadata datatypes.JSONMap) (models.QuotaCounterSnapshot, error) {
	snapshot := models.QuotaCounterSnapshot{}
	raw, ok := metadata[constants.ProfileMetadataDiscountCounters]
	if !ok || raw == nil {
		return snapshot, nil
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode profile counters: %w", err)
	}
	return snapshot, nil
}

func encodeCounters(snapshot models.QuotaCounterSnapshot) (map[string]interface{}, error) {
	if snapshot == nil {
		snapshot = models.QuotaCounterSnapshot{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	encoded := map[string]interface{}{}
	if err := json.Unmarshal(payload, &encoded); err != nil {
		return nil, err
	}
	return encoded, nil
}
