package service

import (
	"context"
	"testing"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/periodkey"

	"gorm.io/gorm"
)

func mustParseTime(t *testing.T, raw string) time.Time {
	t.Helper()
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("parse time %s failed: %v", raw, err)
	}
	return at
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestQuotaEnginePeriodRollover(t *testing.T) {
	engine := NewQuotaEngine(nil)
	limit := int64Ptr(1)
	before := mustParseTime(t, "2025-01-01T23:59:00Z")
	after := mustParseTime(t, "2025-01-02T00:01:00Z")

	snapshot, err := engine.Increment(models.QuotaCounterSnapshot{}, "rule_a", periodkey.Day, before, 1)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	same, err := engine.CanUse(snapshot, "rule_a", periodkey.Day, limit, before)
	if err != nil {
		t.Fatalf("can use failed: %v", err)
	}
	if same.Allowed || same.Current != 1 || same.PeriodKey != "2025-01-01" {
		t.Fatalf("unexpected same-day check: %+v", same)
	}

	next, err := engine.CanUse(snapshot, "rule_a", periodkey.Day, limit, after)
	if err != nil {
		t.Fatalf("can use failed: %v", err)
	}
	if !next.Allowed || next.Current != 0 || next.PeriodKey != "2025-01-02" {
		t.Fatalf("expected new bucket to allow usage: %+v", next)
	}

	rolled, err := engine.Increment(snapshot, "rule_a", periodkey.Day, after, 1)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	counter, _ := rolled.Get("rule_a")
	if counter.CountUsed != 1 || counter.LifetimeUsed != 2 || counter.PeriodKey != "2025-01-02" {
		t.Fatalf("unexpected rolled counter: %+v", counter)
	}
}

func TestQuotaEngineValueSemanticsAndClamp(t *testing.T) {
	engine := NewQuotaEngine(nil)
	at := mustParseTime(t, "2025-06-10T08:00:00Z")
	original := models.QuotaCounterSnapshot{
		models.QuotaCounterKey("rule_b"): {PeriodKey: "2025-06", CountUsed: 1, LifetimeUsed: 1},
		"unrelated":                      {PeriodKey: "2025", CountUsed: 4, LifetimeUsed: 9},
	}

	next, err := engine.Decrement(original, "rule_b", periodkey.Month, at, 3)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	counter, _ := next.Get("rule_b")
	if counter.CountUsed != 0 || counter.LifetimeUsed != 0 {
		t.Fatalf("expected counts clamped at 0: %+v", counter)
	}
	if prev, _ := original.Get("rule_b"); prev.CountUsed != 1 {
		t.Fatalf("input snapshot must not be mutated: %+v", prev)
	}
	if next["unrelated"].LifetimeUsed != 9 {
		t.Fatalf("unrelated counters must be preserved: %+v", next)
	}

	unlimited, err := engine.CanUse(original, "rule_b", periodkey.Unlimited, int64Ptr(1), at)
	if err != nil {
		t.Fatalf("can use failed: %v", err)
	}
	if !unlimited.Allowed || unlimited.PeriodKey != "unlimited" {
		t.Fatalf("unlimited period must allow: %+v", unlimited)
	}
	noLimit, err := engine.CanUse(original, "rule_b", periodkey.Month, nil, at)
	if err != nil {
		t.Fatalf("can use failed: %v", err)
	}
	if !noLimit.Allowed || noLimit.Current != 0 {
		t.Fatalf("nil limit must allow: %+v", noLimit)
	}

	if _, err := engine.Increment(original, "rule_b", periodkey.Period("fortnight"), at, 1); err == nil {
		t.Fatalf("expected invalid period error")
	}
}

func TestQuotaEngineAppendUsageEventIdempotent(t *testing.T) {
	env := setupServiceTestEnv(t, "quota_usage_event")
	ctx := context.Background()
	input := UsageEventInput{
		SubjectID:      "cus_1",
		RuleID:         "rule_c",
		PeriodKey:      "2025-06",
		Delta:          -1,
		Reason:         "reverse",
		IdempotencyKey: "usage-1",
	}

	var first, second *UsageEventResult
	err := env.db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = env.engine.AppendUsageEvent(ctx, tx, input)
		if err != nil {
			return err
		}
		second, err = env.engine.AppendUsageEvent(ctx, tx, input)
		return err
	})
	if err != nil {
		t.Fatalf("append usage events failed: %v", err)
	}
	if first.Idempotent || !second.Idempotent || first.ID != second.ID {
		t.Fatalf("unexpected append results: %+v %+v", first, second)
	}
}
