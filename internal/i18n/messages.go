package i18n

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":                "请求参数错误",
		"error.idempotency_key_required":   "缺少幂等键（Idempotency-Key 请求头或 idempotency_key 字段）",
		"error.idempotency_key_too_long":   "幂等键过长",
		"error.idempotency_key_reused":     "幂等键已被其它请求使用",
		"error.idempotency_replay_broken":  "幂等记录缺少结果",
		"error.gift_card_invalid_amount":   "金额必须为正整数",
		"error.gift_card_invalid_currency": "币种无效",
		"error.gift_card_invalid_source":   "来源无效",
		"error.gift_card_code_required":    "礼品卡卡号不能为空",
		"error.gift_card_not_found":        "礼品卡不存在",
		"error.gift_card_disabled":         "礼品卡已停用",
		"error.currency_mismatch":          "币种与礼品卡不一致",
		"error.entitlement_invalid":        "会员、规则、槽位与票据均不能为空",
		"error.period_key_required":        "缺少周期键或预约日期",
		"error.booking_day_invalid":        "预约日期格式必须为 YYYY-MM-DD",
		"error.discount_invalid":           "会员折扣定义无效",
		"error.discount_rule_invalid":      "会员折扣规则无效",
		"error.discount_period_invalid":    "会员折扣规则周期无效",
		"error.discount_scope_invalid":     "会员折扣规则适用范围至少需要一个 ID",
		"error.discount_order_duplicate":   "会员折扣规则优先级重复",
		"error.discount_not_found":         "会员折扣不存在",
		"error.discount_rule_not_found":    "会员折扣规则不存在",
		"error.discount_rule_inactive":     "会员折扣规则未启用",
		"error.subject_required":           "客户 ID 不能为空",
		"error.evaluate_items_invalid":     "评估商品行无效",
		"error.schema_unready":             "数据表尚未创建",
		"error.not_found":                  "资源不存在",
		"error.conflict":                   "请求冲突",
		"error.rate_limited":               "请求过于频繁，请在 %d 秒后重试",
		"error.rate_limit_unavailable":     "限流服务暂不可用",
		"error.endpoint_deprecated":        "接口已废弃，请使用 /membership-entitlements/consume 与 /membership-entitlements/release",
		"error.internal":                   "服务器内部错误",
		"error.service_unavailable":        "服务暂不可用",
	},
	LocaleEnUS: {
		"error.bad_request":                "Invalid request parameters",
		"error.idempotency_key_required":   "Missing Idempotency-Key header (or idempotency_key in body)",
		"error.idempotency_key_too_long":   "Idempotency key is too long",
		"error.idempotency_key_reused":     "Idempotency key was already used for a different request",
		"error.idempotency_replay_broken":  "Idempotency record has no recorded outcome",
		"error.gift_card_invalid_amount":   "Amount must be a positive integer",
		"error.gift_card_invalid_currency": "Invalid currency",
		"error.gift_card_invalid_source":   "Invalid source",
		"error.gift_card_code_required":    "Gift card code is required",
		"error.gift_card_not_found":        "Gift card not found",
		"error.gift_card_disabled":         "Gift card is disabled",
		"error.currency_mismatch":          "Currency does not match the gift card",
		"error.entitlement_invalid":        "membership_id, rule_id, slot_key and ticket_id are required",
		"error.period_key_required":        "period_key or booking_day is required",
		"error.booking_day_invalid":        "booking_day must be YYYY-MM-DD",
		"error.discount_invalid":           "Invalid membership discount definition",
		"error.discount_rule_invalid":      "Invalid membership discount rule",
		"error.discount_period_invalid":    "Invalid membership discount rule period",
		"error.discount_scope_invalid":     "Membership discount rule scope must name at least one id",
		"error.discount_order_duplicate":   "Membership discount rule order_index must be unique",
		"error.discount_not_found":         "Membership discount not found",
		"error.discount_rule_not_found":    "Membership discount rule not found",
		"error.discount_rule_inactive":     "Membership discount rule is inactive",
		"error.subject_required":           "subject_id is required",
		"error.evaluate_items_invalid":     "Invalid evaluate items",
		"error.schema_unready":             "Tables are not migrated",
		"error.not_found":                  "Resource not found",
		"error.conflict":                   "Request conflict",
		"error.rate_limited":               "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":     "Rate limiter is unavailable",
		"error.endpoint_deprecated":        "Deprecated endpoint. Use /membership-entitlements/consume and /membership-entitlements/release",
		"error.internal":                   "Internal server error",
		"error.service_unavailable":        "Service unavailable",
	},
}
