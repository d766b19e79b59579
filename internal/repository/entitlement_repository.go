package repository

import (
	"errors"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntitlementRepository 会员权益仓储接口
type EntitlementRepository interface {
	GetStateForUpdate(membershipID, ruleID, slotKey string) (*models.MembershipEntitlementState, error)
	InsertStateIfAbsent(state *models.MembershipEntitlementState) (bool, error)
	UpdateState(state *models.MembershipEntitlementState) error
	CreateEvent(event *models.MembershipEntitlementEvent) error
	ListStates(filter EntitlementListFilter) ([]models.MembershipEntitlementState, int64, error)
	ListEvents(filter EntitlementListFilter) ([]models.MembershipEntitlementEvent, int64, error)
	WithTx(tx *gorm.DB) *GormEntitlementRepository
}

// GormEntitlementRepository GORM 会员权益仓储实现
type GormEntitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository 创建会员权益仓储
func NewEntitlementRepository(db *gorm.DB) *GormEntitlementRepository {
	return &GormEntitlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEntitlementRepository) WithTx(tx *gorm.DB) *GormEntitlementRepository {
	if tx == nil {
		return r
	}
	return &GormEntitlementRepository{db: tx}
}

// GetStateForUpdate 加锁读取槽位状态，不存在返回 nil
func (r *GormEntitlementRepository) GetStateForUpdate(membershipID, ruleID, slotKey string) (*models.MembershipEntitlementState, error) {
	var state models.MembershipEntitlementState
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("membership_id = ? AND rule_id = ? AND slot_key = ?", membershipID, ruleID, slotKey).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// InsertStateIfAbsent 插入槽位状态，并发插入落败时返回 false
func (r *GormEntitlementRepository) InsertStateIfAbsent(state *models.MembershipEntitlementState) (bool, error) {
	if state == nil {
		return false, errors.New("invalid entitlement state")
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "membership_id"},
			{Name: "rule_id"},
			{Name: "slot_key"},
		},
		DoNothing: true,
	}).Create(state)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateState 更新槽位占用信息
func (r *GormEntitlementRepository) UpdateState(state *models.MembershipEntitlementState) error {
	if state == nil || strings.TrimSpace(state.ID) == "" {
		return errors.New("invalid entitlement state")
	}
	return r.db.Model(&models.MembershipEntitlementState{}).
		Where("id = ?", state.ID).
		Updates(map[string]interface{}{
			"ticket_id":  state.TicketID,
			"period_key": state.PeriodKey,
			"status":     state.Status,
			"updated_at": state.UpdatedAt,
		}).Error
}

// CreateEvent 追加权益流水
func (r *GormEntitlementRepository) CreateEvent(event *models.MembershipEntitlementEvent) error {
	if event == nil {
		return errors.New("invalid entitlement event")
	}
	return r.db.Create(event).Error
}

func (r *GormEntitlementRepository) filtered(model interface{}, filter EntitlementListFilter) *gorm.DB {
	query := r.db.Model(model)
	if membershipID := strings.TrimSpace(filter.MembershipID); membershipID != "" {
		query = query.Where("membership_id = ?", membershipID)
	}
	if ruleID := strings.TrimSpace(filter.RuleID); ruleID != "" {
		query = query.Where("rule_id = ?", ruleID)
	}
	return query
}

// ListStates 查询槽位状态，按更新时间倒序
func (r *GormEntitlementRepository) ListStates(filter EntitlementListFilter) ([]models.MembershipEntitlementState, int64, error) {
	states := make([]models.MembershipEntitlementState, 0)
	total, err := countAndPage(r.filtered(&models.MembershipEntitlementState{}, filter), filter.Page, filter.PageSize, "updated_at desc, id desc", &states)
	if err != nil {
		return nil, 0, err
	}
	return states, total, nil
}

// ListEvents 查询权益流水，按创建时间倒序
func (r *GormEntitlementRepository) ListEvents(filter EntitlementListFilter) ([]models.MembershipEntitlementEvent, int64, error) {
	events := make([]models.MembershipEntitlementEvent, 0)
	total, err := countAndPage(r.filtered(&models.MembershipEntitlementEvent{}, filter), filter.Page, filter.PageSize, "created_at desc, id desc", &events)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
