package models

import (
	"time"

	"gorm.io/datatypes"
)

// MembershipDiscount 会员折扣定义
type MembershipDiscount struct {
	ID         string                   `gorm:"primaryKey;type:varchar(36)" json:"id"`                          // 主键
	Name       string                   `gorm:"type:varchar(120);not null" json:"name"`                         // 名称
	ProductRef string                   `gorm:"type:varchar(120);index;not null" json:"product_ref"`            // 会员商品引用
	Active     bool                     `gorm:"not null" json:"active"`                                         // 是否启用
	CreatedAt  time.Time                `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt  time.Time                `json:"updated_at"`                                                     // 更新时间
	Rules      []MembershipDiscountRule `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE" json:"rules"` // 规则（按 order_index 升序）
}

// TableName 指定表名
func (MembershipDiscount) TableName() string {
	return "membership_discount"
}

// RuleScope 规则适用范围，任一 ID 命中即匹配
type RuleScope struct {
	ProductIDs    []string `json:"product_ids,omitempty"`
	VariantIDs    []string `json:"variant_ids,omitempty"`
	CollectionIDs []string `json:"collection_ids,omitempty"`
}

// Empty 判断范围是否为空
func (s RuleScope) Empty() bool {
	return len(s.ProductIDs) == 0 && len(s.VariantIDs) == 0 && len(s.CollectionIDs) == 0
}

// Matches 判断商品行是否命中范围
func (s RuleScope) Matches(productID, variantID string, collectionIDs []string) bool {
	if productID != "" && containsString(s.ProductIDs, productID) {
		return true
	}
	if variantID != "" && containsString(s.VariantIDs, variantID) {
		return true
	}
	for _, id := range collectionIDs {
		if id != "" && containsString(s.CollectionIDs, id) {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// MembershipDiscountRule 会员折扣规则
type MembershipDiscountRule struct {
	ID            string                        `gorm:"primaryKey;type:varchar(36)" json:"id"`              // 主键
	DiscountID    string                        `gorm:"type:varchar(36);index;not null" json:"discount_id"` // 所属折扣定义
	Name          string                        `gorm:"type:varchar(120);not null" json:"name"`             // 规则名称
	OrderIndex    int                           `gorm:"not null;default:0" json:"order_index"`              // 优先级（升序）
	DiscountType  string                        `gorm:"type:varchar(16);not null" json:"discount_type"`     // 折扣类型
	DiscountValue Amount                        `gorm:"type:decimal(20,4);not null" json:"discount_value"`  // 折扣值
	Scope         datatypes.JSONType[RuleScope] `gorm:"column:scope_json" json:"scope"`                     // 适用范围
	LimitCount    *int64                        `json:"limit_count"`                                        // 周期内次数上限，空为不限
	Period        string                        `gorm:"type:varchar(16);not null" json:"period"`            // 计数周期
	Active        bool                          `gorm:"not null" json:"active"`                             // 是否启用
	CreatedAt     time.Time                     `json:"created_at"`                                         // 创建时间
	UpdatedAt     time.Time                     `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (MembershipDiscountRule) TableName() string {
	return "membership_discount_rule"
}

// MembershipDiscountUsageEvent 会员折扣用量流水（只追加）
type MembershipDiscountUsageEvent struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                                                // 主键
	SubjectID      string    `gorm:"type:varchar(120);index:idx_usage_subject_rule,priority:1;not null" json:"subject_id"` // 客户ID
	RuleID         string    `gorm:"type:varchar(36);index:idx_usage_subject_rule,priority:2;not null" json:"rule_id"`     // 规则ID
	PeriodKey      string    `gorm:"type:varchar(32);not null" json:"period_key"`                                          // 周期键
	Delta          int64     `gorm:"not null" json:"delta"`                                                                // 变化量
	Reason         string    `gorm:"type:varchar(120);not null;default:''" json:"reason"`                                  // 原因
	IdempotencyKey string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"idempotency_key"`                        // 幂等键
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                                              // 创建时间
}

// TableName 指定表名
func (MembershipDiscountUsageEvent) TableName() string {
	return "membership_discount_usage_event"
}
