package worker

import (
	"context"
	"errors"

	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/metrics"
	"github.com/dujiao-next/ledger-engine/internal/provider"
	"github.com/dujiao-next/ledger-engine/internal/queue"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/hibiken/asynq"
)

// 审计标签
const (
	auditDiscountUsage  = "discount_usage"
	auditGiftCardLedger = "gift_card_ledger"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDiscountUsageAudit, c.handleDiscountUsageAudit)
	mux.HandleFunc(queue.TaskGiftCardLedgerAudit, c.handleGiftCardLedgerAudit)
}

// handleDiscountUsageAudit 比对用量流水与资料计数，偏差只记录不修正
func (c *Consumer) handleDiscountUsageAudit(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.DiscountService == nil || task == nil {
		logger.Debugw("worker_discount_usage_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseDiscountUsageAuditPayload(task)
	if err != nil {
		logger.Warnw("worker_discount_usage_audit_payload_invalid", "error", err)
		return skipRetry(err)
	}
	audit, err := c.DiscountService.AuditUsage(ctx, payload.SubjectID, payload.RuleID)
	if err != nil {
		logger.Warnw("worker_discount_usage_audit_failed",
			"subject_id", payload.SubjectID,
			"rule_id", payload.RuleID,
			"error", err,
		)
		if errors.Is(err, service.ErrInvalidInput) {
			return skipRetry(err)
		}
		return err
	}
	if audit.Drift {
		metrics.ObserveAuditDrift(auditDiscountUsage)
		logger.Warnw("discount_usage_drift_detected",
			"subject_id", audit.SubjectID,
			"rule_id", audit.RuleID,
			"event_sum", audit.EventSum,
			"lifetime_used", audit.LifetimeUsed,
		)
		return nil
	}
	logger.Debugw("worker_discount_usage_audit_ok", "subject_id", audit.SubjectID, "rule_id", audit.RuleID)
	return nil
}

// handleGiftCardLedgerAudit 校验礼品卡派生余额不为负
func (c *Consumer) handleGiftCardLedgerAudit(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.GiftCardService == nil || task == nil {
		logger.Debugw("worker_gift_card_ledger_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseGiftCardLedgerAuditPayload(task)
	if err != nil {
		logger.Warnw("worker_gift_card_ledger_audit_payload_invalid", "error", err)
		return skipRetry(err)
	}
	balance, ok, err := c.GiftCardService.AuditBalance(ctx, payload.GiftCardID)
	if err != nil {
		logger.Warnw("worker_gift_card_ledger_audit_failed", "gift_card_id", payload.GiftCardID, "error", err)
		return err
	}
	if !ok {
		metrics.ObserveAuditDrift(auditGiftCardLedger)
		logger.Errorw("gift_card_negative_balance_detected",
			"gift_card_id", payload.GiftCardID,
			"code", payload.Code,
			"balance", balance,
		)
	}
	return nil
}

func skipRetry(err error) error {
	return errors.Join(err, asynq.SkipRetry)
}
