package models

import "time"

// GiftCard 礼品卡账户（余额由流水汇总得出，不落库）
type GiftCard struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                          // 主键
	Code      string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"code"`              // 卡号
	Currency  string    `gorm:"type:varchar(8);not null" json:"currency"`                       // 币种
	OwnerRef  string    `gorm:"type:varchar(120);index;not null;default:''" json:"owner_ref"`   // 归属方
	Status    string    `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"` // 状态
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (GiftCard) TableName() string {
	return "gift_card"
}

// GiftCardEvent 礼品卡流水（只追加）
type GiftCardEvent struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                               // 主键
	GiftCardID     string    `gorm:"type:varchar(36);index;not null" json:"gift_card_id"`                 // 礼品卡ID
	Kind           string    `gorm:"type:varchar(16);not null" json:"kind"`                               // 流水类型
	SignedAmount   int64     `gorm:"not null" json:"signed_amount"`                                       // 带符号金额（最小货币单位）
	Currency       string    `gorm:"type:varchar(8);not null" json:"currency"`                            // 币种
	Source         string    `gorm:"type:varchar(24);not null" json:"source"`                             // 来源
	Reference      string    `gorm:"type:varchar(255);not null;default:''" json:"reference"`              // 外部引用
	IdempotencyKey string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"idempotency_key"`       // 幂等键
	OccurredAt     time.Time `gorm:"index;not null" json:"occurred_at"`                                   // 发生时间
	GiftCard       *GiftCard `gorm:"foreignKey:GiftCardID;constraint:OnDelete:RESTRICT" json:"-"`         // 所属礼品卡
}

// TableName 指定表名
func (GiftCardEvent) TableName() string {
	return "gift_card_event"
}

// GiftCardWithBalance 附带余额的礼品卡
type GiftCardWithBalance struct {
	GiftCard
	Balance int64 `json:"balance"` // 当前余额
}
