package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db           *gorm.DB
	runner       repository.TransactionRunner
	guard        *IdempotencyGuard
	engine       *QuotaEngine
	profiles     *DatabaseProfileStore
	giftCards    *GiftCardService
	entitlements *EntitlementService
	discounts    *DiscountService
	evaluator    *DiscountRuleEvaluator
}

func openServiceTestDB(t *testing.T, name string, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// sqlite 不支持 FOR UPDATE，单连接保证事务串行
	sqlDB.SetMaxOpenConns(1)
	if migrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			t.Fatalf("auto migrate failed: %v", err)
		}
	}
	return db
}

func newServiceTestEnv(t *testing.T, db *gorm.DB) *serviceTestEnv {
	t.Helper()
	runner := repository.NewTransactionRunner(db)
	guard := NewIdempotencyGuard(repository.NewIdempotencyRepository(db))
	usageRepo := repository.NewDiscountUsageRepository(db)
	engine := NewQuotaEngine(usageRepo)
	profiles := NewDatabaseProfileStore(repository.NewSubjectProfileRepository(db))
	discounts := NewDiscountService(
		repository.NewDiscountRepository(db),
		usageRepo,
		runner,
		guard,
		engine,
		profiles,
		nil,
		time.Minute,
	)
	return &serviceTestEnv{
		db:           db,
		runner:       runner,
		guard:        guard,
		engine:       engine,
		profiles:     profiles,
		giftCards:    NewGiftCardService(repository.NewGiftCardRepository(db), runner, guard, nil, "GC"),
		entitlements: NewEntitlementService(repository.NewEntitlementRepository(db), runner, guard),
		discounts:    discounts,
		evaluator:    NewDiscountRuleEvaluator(discounts, profiles, engine),
	}
}

func setupServiceTestEnv(t *testing.T, name string) *serviceTestEnv {
	t.Helper()
	return newServiceTestEnv(t, openServiceTestDB(t, name, true))
}
