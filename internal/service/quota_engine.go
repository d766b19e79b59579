package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/periodkey"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuotaCheck 用量检查结果
type QuotaCheck struct {
	Allowed   bool   `json:"allowed"`
	Current   int64  `json:"current"`
	PeriodKey string `json:"period_key"`
}

// UsageEventInput 用量流水输入
type UsageEventInput struct {
	SubjectID      string
	RuleID         string
	PeriodKey      string
	Delta          int64
	Reason         string
	IdempotencyKey string
}

// UsageEventResult 用量流水写入结果
type UsageEventResult struct {
	ID         string `json:"id"`
	Idempotent bool   `json:"idempotent"`
}

// QuotaEngine 周期用量计数引擎，快照按值语义处理
type QuotaEngine struct {
	usageRepo repository.DiscountUsageRepository
}

// NewQuotaEngine 创建用量计数引擎
func NewQuotaEngine(usageRepo repository.DiscountUsageRepository) *QuotaEngine {
	return &QuotaEngine{usageRepo: usageRepo}
}

// CanUse 判断规则在当前周期内是否仍可使用，limit 为空或周期为 unlimited 时恒为允许
func (e *QuotaEngine) CanUse(snapshot models.QuotaCounterSnapshot, ruleID string, period periodkey.Period, limit *int64, at time.Time) (QuotaCheck, error) {
	key, err := periodkey.For(period, at)
	if err != nil {
		return QuotaCheck{}, err
	}
	if limit == nil || period == periodkey.Unlimited {
		return QuotaCheck{Allowed: true, Current: 0, PeriodKey: key}, nil
	}
	current := currentCount(snapshot, ruleID, key)
	return QuotaCheck{
		Allowed:   current < *limit,
		Current:   current,
		PeriodKey: key,
	}, nil
}

// Increment 返回计数增加 step 后的新快照
func (e *QuotaEngine) Increment(snapshot models.QuotaCounterSnapshot, ruleID string, period periodkey.Period, at time.Time, step int64) (models.QuotaCounterSnapshot, error) {
	return adjustCounter(snapshot, ruleID, period, at, step)
}

// Decrement 返回计数减少 step 后的新快照，两个计数均不低于 0
func (e *QuotaEngine) Decrement(snapshot models.QuotaCounterSnapshot, ruleID string, period periodkey.Period, at time.Time, step int64) (models.QuotaCounterSnapshot, error) {
	return adjustCounter(snapshot, ruleID, period, at, -step)
}

// AppendUsageEvent 在事务内追加用量流水，幂等键冲突时返回已有流水
func (e *QuotaEngine) AppendUsageEvent(ctx context.Context, tx *gorm.DB, input UsageEventInput) (*UsageEventResult, error) {
	if tx != nil {
		tx = tx.WithContext(ctx)
	}
	event := &models.MembershipDiscountUsageEvent{
		ID:             uuid.NewString(),
		SubjectID:      strings.TrimSpace(input.SubjectID),
		RuleID:         strings.TrimSpace(input.RuleID),
		PeriodKey:      input.PeriodKey,
		Delta:          input.Delta,
		Reason:         strings.TrimSpace(input.Reason),
		IdempotencyKey: strings.TrimSpace(input.IdempotencyKey),
		CreatedAt:      time.Now().UTC(),
	}
	id, idempotent, err := e.usageRepo.WithTx(tx).Append(event)
	if err != nil {
		return nil, err
	}
	return &UsageEventResult{ID: id, Idempotent: idempotent}, nil
}

func currentCount(snapshot models.QuotaCounterSnapshot, ruleID, periodKey string) int64 {
	counter, ok := snapshot.Get(ruleID)
	if !ok || counter.PeriodKey != periodKey {
		return 0
	}
	return counter.CountUsed
}

func adjustCounter(snapshot models.QuotaCounterSnapshot, ruleID string, period periodkey.Period, at time.Time, delta int64) (models.QuotaCounterSnapshot, error) {
	key, err := periodkey.For(period, at)
	if err != nil {
		return nil, err
	}
	next := snapshot.Clone()
	prev, _ := snapshot.Get(ruleID)
	count := currentCount(snapshot, ruleID, key) + delta
	lifetime := prev.LifetimeUsed + delta
	if count < 0 {
		count = 0
	}
	if lifetime < 0 {
		lifetime = 0
	}
	next[models.QuotaCounterKey(ruleID)] = models.QuotaCounter{
		PeriodKey:    key,
		CountUsed:    count,
		LifetimeUsed: lifetime,
	}
	return next, nil
}
