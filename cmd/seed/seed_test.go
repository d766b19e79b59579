package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/provider"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestLoadFixture(t *testing.T) {
	fixture, err := loadFixture("testdata/seed.yml")
	if err != nil {
		t.Fatalf("load fixture failed: %v", err)
	}
	if len(fixture.MembershipDiscounts) != 1 || len(fixture.MembershipDiscounts[0].Rules) != 3 {
		t.Fatalf("unexpected fixture shape: %+v", fixture)
	}
	input, err := fixture.MembershipDiscounts[0].toInput()
	if err != nil {
		t.Fatalf("to input failed: %v", err)
	}
	if input.IdempotencyKey != "seed:membership_discount:gold_courts" {
		t.Fatalf("unexpected idempotency key %s", input.IdempotencyKey)
	}
	if got := input.Rules[0].DiscountValue.String(); got != "5.5" {
		t.Fatalf("discount value want 5.5 got %s", got)
	}
	if input.Rules[2].LimitCount != nil {
		t.Fatalf("unlimited rule should have nil limit")
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := loadFixture("testdata/missing.yml"); err == nil {
		t.Fatalf("missing fixture should fail")
	}
}

func TestApplyFixtureIsRepeatable(t *testing.T) {
	dsn := fmt.Sprintf("file:seed_apply_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	fixture, err := loadFixture("testdata/seed.yml")
	if err != nil {
		t.Fatalf("load fixture failed: %v", err)
	}
	container := provider.Build(&config.Config{}, db, nil)

	first, err := applyFixture(context.Background(), container, fixture)
	if err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if first.discountsCreated != 1 || first.giftCardsIssued != 1 || first.replayed != 0 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := applyFixture(context.Background(), container, fixture)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if second.discountsCreated != 0 || second.giftCardsIssued != 0 || second.replayed != 2 {
		t.Fatalf("second apply should only replay: %+v", second)
	}

	var count int64
	if err := db.Model(&models.MembershipDiscount{}).Count(&count).Error; err != nil {
		t.Fatalf("count definitions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("definition count want 1 got %d", count)
	}
}
