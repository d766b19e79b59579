package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiscountRepository 会员折扣定义仓储接口
type DiscountRepository interface {
	TablesReady() bool
	List(filter DiscountListFilter) ([]models.MembershipDiscount, error)
	GetByID(id string) (*models.MembershipDiscount, error)
	GetByIDForUpdate(id string) (*models.MembershipDiscount, error)
	Create(definition *models.MembershipDiscount) error
	UpdateHeader(definition *models.MembershipDiscount) error
	ReplaceRules(discountID string, rules []models.MembershipDiscountRule) error
	WithTx(tx *gorm.DB) *GormDiscountRepository
}

// GormDiscountRepository GORM 会员折扣定义仓储实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建会员折扣定义仓储
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) *GormDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// TablesReady 判断折扣定义与规则表是否已创建
func (r *GormDiscountRepository) TablesReady() bool {
	migrator := r.db.Migrator()
	return migrator.HasTable(&models.MembershipDiscount{}) && migrator.HasTable(&models.MembershipDiscountRule{})
}

func preloadOrderedRules(db *gorm.DB) *gorm.DB {
	return db.Order("order_index asc").Order("id asc")
}

// List 查询折扣定义及其规则
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.MembershipDiscount, error) {
	query := r.db.Model(&models.MembershipDiscount{}).Preload("Rules", preloadOrderedRules)
	if condition, args := buildLikeCondition(r.db, []string{"name", "product_ref"}, filter.Search); condition != "" {
		query = query.Where(condition, args...)
	}
	if productRef := strings.TrimSpace(filter.ProductRef); productRef != "" {
		query = query.Where("product_ref = ?", productRef)
	}
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}
	definitions := make([]models.MembershipDiscount, 0)
	if err := query.Order("created_at desc").Order("id desc").Find(&definitions).Error; err != nil {
		return nil, err
	}
	return definitions, nil
}

// GetByID 查询折扣定义及其规则
func (r *GormDiscountRepository) GetByID(id string) (*models.MembershipDiscount, error) {
	return r.getByID(r.db, id)
}

// GetByIDForUpdate 加锁查询折扣定义
func (r *GormDiscountRepository) GetByIDForUpdate(id string) (*models.MembershipDiscount, error) {
	return r.getByID(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormDiscountRepository) getByID(query *gorm.DB, id string) (*models.MembershipDiscount, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var definition models.MembershipDiscount
	if err := query.Preload("Rules", preloadOrderedRules).Where("id = ?", id).First(&definition).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &definition, nil
}

// Create 创建折扣定义及规则
func (r *GormDiscountRepository) Create(definition *models.MembershipDiscount) error {
	if definition == nil {
		return errors.New("invalid membership discount")
	}
	if err := r.db.Omit(clause.Associations).Create(definition).Error; err != nil {
		return err
	}
	return r.createRules(definition.ID, definition.Rules)
}

// UpdateHeader 更新折扣定义基础信息
func (r *GormDiscountRepository) UpdateHeader(definition *models.MembershipDiscount) error {
	if definition == nil || strings.TrimSpace(definition.ID) == "" {
		return errors.New("invalid membership discount")
	}
	updatedAt := definition.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return r.db.Model(&models.MembershipDiscount{}).
		Where("id = ?", definition.ID).
		Updates(map[string]interface{}{
			"name":        definition.Name,
			"product_ref": definition.ProductRef,
			"active":      definition.Active,
			"updated_at":  updatedAt,
		}).Error
}

// ReplaceRules 整体替换折扣规则
func (r *GormDiscountRepository) ReplaceRules(discountID string, rules []models.MembershipDiscountRule) error {
	if strings.TrimSpace(discountID) == "" {
		return errors.New("invalid membership discount id")
	}
	if err := r.db.Where("discount_id = ?", discountID).Delete(&models.MembershipDiscountRule{}).Error; err != nil {
		return err
	}
	return r.createRules(discountID, rules)
}

func (r *GormDiscountRepository) createRules(discountID string, rules []models.MembershipDiscountRule) error {
	if len(rules) == 0 {
		return nil
	}
	for idx := range rules {
		rules[idx].DiscountID = discountID
	}
	return r.db.Create(&rules).Error
}
