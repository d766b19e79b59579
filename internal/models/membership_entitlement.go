package models

import "time"

// MembershipEntitlementState 会员权益槽位当前占用状态
type MembershipEntitlementState struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                                                     // 主键
	MembershipID string    `gorm:"type:varchar(120);not null;uniqueIndex:ux_entitlement_slot,priority:1" json:"membership_id"` // 会员ID
	RuleID       string    `gorm:"type:varchar(120);not null;uniqueIndex:ux_entitlement_slot,priority:2" json:"rule_id"`       // 权益规则ID
	SlotKey      string    `gorm:"type:varchar(160);not null;uniqueIndex:ux_entitlement_slot,priority:3" json:"slot_key"`      // 槽位键
	TicketID     string    `gorm:"type:varchar(120);not null" json:"ticket_id"`                                               // 占用票据
	PeriodKey    string    `gorm:"type:varchar(32);not null" json:"period_key"`                                               // 周期键
	Status       string    `gorm:"type:varchar(16);index;not null" json:"status"`                                             // 状态
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                                                                   // 更新时间
}

// TableName 指定表名
func (MembershipEntitlementState) TableName() string {
	return "membership_entitlement_state"
}

// MembershipEntitlementEvent 会员权益流水（只追加）
type MembershipEntitlementEvent struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                         // 主键
	MembershipID   string    `gorm:"type:varchar(120);index;not null" json:"membership_id"`         // 会员ID
	RuleID         string    `gorm:"type:varchar(120);not null" json:"rule_id"`                     // 权益规则ID
	SlotKey        string    `gorm:"type:varchar(160);not null" json:"slot_key"`                    // 槽位键
	TicketID       string    `gorm:"type:varchar(120);not null" json:"ticket_id"`                   // 票据
	PeriodKey      string    `gorm:"type:varchar(32);not null" json:"period_key"`                   // 周期键
	Kind           string    `gorm:"type:varchar(16);not null" json:"kind"`                         // 流水类型
	IdempotencyKey string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"idempotency_key"` // 幂等键
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
}

// TableName 指定表名
func (MembershipEntitlementEvent) TableName() string {
	return "membership_entitlement_event"
}
