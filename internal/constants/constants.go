package constants

// 礼品卡状态常量
const (
	GiftCardStatusActive   = "active"
	GiftCardStatusDisabled = "disabled"
)

// 礼品卡流水类型常量
const (
	GiftCardEventIssue  = "ISSUE"
	GiftCardEventRedeem = "REDEEM"
	GiftCardEventVoid   = "VOID"
)

// 礼品卡流水来源常量
const (
	GiftCardSourceStore = "STORE"
	GiftCardSourcePOS   = "POS"
	GiftCardSourceAdmin = "ADMIN"
)

// 会员权益槽位状态常量（FREE 表示无记录，不落库）
const (
	SlotStatusFree     = "FREE"
	SlotStatusConsumed = "CONSUMED"
	SlotStatusReleased = "RELEASED"
)

// 会员权益流水类型常量
const (
	SlotEventConsume = "CONSUME"
	SlotEventRelease = "RELEASE"
)

// 会员折扣类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 软拒绝原因常量
const (
	ReasonSlotAlreadyConsumed = "slot_already_consumed"
	ReasonNotConsumed         = "not_consumed"
	ReasonNotOwner            = "not_owner"
	ReasonQuotaExceeded       = "quota_exceeded"
	ReasonAlreadyDisabled     = "already_disabled"
	ReasonInsufficientBalance = "insufficient_balance"
)

// 会员折扣用量流水原因默认值
const (
	UsageReasonReverse     = "reverse"
	UsageReasonReverseNoop = "reverse_noop"
	UsageReasonApply       = "apply"
)

// 幂等作用域常量
const (
	IdempotencyScopeGiftCardIssue      = "gift_card.issue"
	IdempotencyScopeGiftCardRedeem     = "gift_card.redeem"
	IdempotencyScopeGiftCardDisable    = "gift_card.disable"
	IdempotencyScopeEntitlementConsume = "entitlement.consume"
	IdempotencyScopeEntitlementRelease = "entitlement.release"
	IdempotencyScopeDiscountCreate     = "discount.create"
	IdempotencyScopeDiscountUpdate     = "discount.update"
	IdempotencyScopeDiscountReverse    = "discount.reverse"
	IdempotencyScopeDiscountApply      = "discount.apply"
)

// 客户资料元数据键
const (
	ProfileMetadataDiscountCounters = "membership_discounts"
	QuotaCounterKeyPrefix           = "rule_"
)

// HTTP 头常量
const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotentReplayed  = "Idempotent-Replayed"
	BodyFieldIdempotencyKey   = "idempotency_key"
	HeaderRequestID           = "X-Request-ID"
	ContextKeyRequestID       = "request_id"
	ContextKeyIdempotencyKey  = "idempotency_key"
	IdempotencyKeyMaxLength   = 255
	IdempotentReplayedHeaderV = "true"
)

// 客户资料存储驱动常量
const (
	ProfileStoreDriverDatabase = "database"
	ProfileStoreDriverRedis    = "redis"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskDiscountUsageAudit  = "discount:usage_audit"
	TaskGiftCardLedgerAudit = "gift_card:ledger_audit"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault         = "le"
	DiscountDefinitionCacheKey = "discount:definition:%s"
	ProfileCacheKey            = "profile:%s"
)

// 礼品卡卡号常量
const (
	GiftCardCodePrefixDefault = "GC"
	GiftCardCodeRandomBytes   = 16
)
