package queue

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDiscountUsageAudit 会员折扣用量审计任务
	TaskDiscountUsageAudit = constants.TaskDiscountUsageAudit
	// TaskGiftCardLedgerAudit 礼品卡余额审计任务
	TaskGiftCardLedgerAudit = constants.TaskGiftCardLedgerAudit
)

// ErrInvalidPayload 任务载荷缺少必要字段
var ErrInvalidPayload = errors.New("invalid task payload")

// DiscountUsageAuditPayload 会员折扣用量审计任务载荷
type DiscountUsageAuditPayload struct {
	SubjectID string `json:"subject_id"`
	RuleID    string `json:"rule_id"`
}

// GiftCardLedgerAuditPayload 礼品卡余额审计任务载荷
type GiftCardLedgerAuditPayload struct {
	GiftCardID string `json:"gift_card_id"`
	Code       string `json:"code"`
}

// NewDiscountUsageAuditTask 创建会员折扣用量审计任务
func NewDiscountUsageAuditTask(payload DiscountUsageAuditPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.SubjectID) == "" || strings.TrimSpace(payload.RuleID) == "" {
		return nil, ErrInvalidPayload
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDiscountUsageAudit, body), nil
}

// NewGiftCardLedgerAuditTask 创建礼品卡余额审计任务
func NewGiftCardLedgerAuditTask(payload GiftCardLedgerAuditPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.GiftCardID) == "" {
		return nil, ErrInvalidPayload
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardLedgerAudit, body), nil
}

// ParseDiscountUsageAuditPayload 解析会员折扣用量审计任务载荷
func ParseDiscountUsageAuditPayload(task *asynq.Task) (DiscountUsageAuditPayload, error) {
	var payload DiscountUsageAuditPayload
	if task == nil {
		return payload, ErrInvalidPayload
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.SubjectID) == "" || strings.TrimSpace(payload.RuleID) == "" {
		return payload, ErrInvalidPayload
	}
	return payload, nil
}

// ParseGiftCardLedgerAuditPayload 解析礼品卡余额审计任务载荷
func ParseGiftCardLedgerAuditPayload(task *asynq.Task) (GiftCardLedgerAuditPayload, error) {
	var payload GiftCardLedgerAuditPayload
	if task == nil {
		return payload, ErrInvalidPayload
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if strings.TrimSpace(payload.GiftCardID) == "" {
		return payload, ErrInvalidPayload
	}
	return payload, nil
}
