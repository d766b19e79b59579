package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiftCardRepository 礼品卡仓储接口
type GiftCardRepository interface {
	Create(card *models.GiftCard) error
	GetByCode(code string) (*models.GiftCard, error)
	GetByCodeForUpdate(code string) (*models.GiftCard, error)
	UpdateStatus(id string, status string, updatedAt time.Time) error
	CreateEvent(event *models.GiftCardEvent) error
	SumBalance(giftCardID string) (int64, error)
	BalancesByIDs(ids []string) (map[string]int64, error)
	ListEvents(giftCardID string) ([]models.GiftCardEvent, error)
	List(filter GiftCardListFilter) ([]models.GiftCard, int64, error)
	WithTx(tx *gorm.DB) *GormGiftCardRepository
}

// GormGiftCardRepository GORM 礼品卡仓储实现
type GormGiftCardRepository struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormGiftCardRepository) WithTx(tx *gorm.DB) *GormGiftCardRepository {
	if tx == nil {
		return r
	}
	return &GormGiftCardRepository{db: tx}
}

// NormalizeGiftCardCode 统一卡号格式
func NormalizeGiftCardCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create 创建礼品卡账户
func (r *GormGiftCardRepository) Create(card *models.GiftCard) error {
	if card == nil {
		return errors.New("invalid gift card")
	}
	return r.db.Create(card).Error
}

// GetByCode 根据卡号查询礼品卡
func (r *GormGiftCardRepository) GetByCode(code string) (*models.GiftCard, error) {
	return r.getByCode(r.db, code)
}

// GetByCodeForUpdate 根据卡号加锁查询礼品卡
func (r *GormGiftCardRepository) GetByCodeForUpdate(code string) (*models.GiftCard, error) {
	return r.getByCode(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), code)
}

func (r *GormGiftCardRepository) getByCode(query *gorm.DB, code string) (*models.GiftCard, error) {
	code = NormalizeGiftCardCode(code)
	if code == "" {
		return nil, nil
	}
	var card models.GiftCard
	if err := query.Where("code = ?", code).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// UpdateStatus 更新礼品卡状态
func (r *GormGiftCardRepository) UpdateStatus(id string, status string, updatedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("invalid gift card id")
	}
	return r.db.Model(&models.GiftCard{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

// CreateEvent 追加礼品卡流水
func (r *GormGiftCardRepository) CreateEvent(event *models.GiftCardEvent) error {
	if event == nil {
		return errors.New("invalid gift card event")
	}
	return r.db.Create(event).Error
}

// SumBalance 汇总礼品卡余额
func (r *GormGiftCardRepository) SumBalance(giftCardID string) (int64, error) {
	var balance int64
	err := r.db.Model(&models.GiftCardEvent{}).
		Select(sumAsBigintExpr("signed_amount")).
		Where("gift_card_id = ?", giftCardID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

type giftCardBalanceRow struct {
	GiftCardID string
	Balance    int64
}

// BalancesByIDs 一次分组汇总多张卡的余额，无流水的卡余额为 0
func (r *GormGiftCardRepository) BalancesByIDs(ids []string) (map[string]int64, error) {
	balances := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return balances, nil
	}
	var rows []giftCardBalanceRow
	err := r.db.Model(&models.GiftCardEvent{}).
		Select("gift_card_id, " + sumAsBigintExpr("signed_amount") + " AS balance").
		Where("gift_card_id IN ?", ids).
		Group("gift_card_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		balances[id] = 0
	}
	for _, row := range rows {
		balances[row.GiftCardID] = row.Balance
	}
	return balances, nil
}

// ListEvents 查询礼品卡流水，按发生时间倒序
func (r *GormGiftCardRepository) ListEvents(giftCardID string) ([]models.GiftCardEvent, error) {
	var events []models.GiftCardEvent
	if err := r.db.Where("gift_card_id = ?", giftCardID).
		Order("occurred_at desc").
		Order("id desc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List 查询礼品卡列表
func (r *GormGiftCardRepository) List(filter GiftCardListFilter) ([]models.GiftCard, int64, error) {
	query := r.db.Model(&models.GiftCard{})
	if condition, args := buildLikeCondition(r.db, []string{"code"}, NormalizeGiftCardCode(filter.Code)); condition != "" {
		query = query.Where(condition, args...)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if owner := strings.TrimSpace(filter.OwnerRef); owner != "" {
		query = query.Where("owner_ref = ?", owner)
	}

	cards := make([]models.GiftCard, 0)
	total, err := countAndPage(query, filter.Page, filter.PageSize, "created_at desc, id desc", &cards)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}
