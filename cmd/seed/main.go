package main

import (
	"context"
	"flag"

	"github.com/dujiao-next/ledger-engine/internal/app"
	"github.com/dujiao-next/ledger-engine/internal/config"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/provider"
)

func main() {
	var fixturePath, configPath string
	flag.StringVar(&fixturePath, "fixture", "seed.yml", "种子数据文件路径")
	flag.StringVar(&configPath, "config", "", "配置文件路径")
	flag.Parse()

	// 连接数据库
	cfg := config.LoadFrom(configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	cfg.Database.AutoMigrate = true
	if err := app.InitDatabase(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to prepare database: %v", err)
	}

	fixture, err := loadFixture(fixturePath)
	if err != nil {
		stdLog.Fatalf("Failed to load fixture: %v", err)
	}

	container := provider.Build(cfg, models.DB, nil)
	summary, err := applyFixture(context.Background(), container, fixture)
	if err != nil {
		stdLog.Fatalf("Seed failed: %v", err)
	}
	stdLog.Printf("Seed finished: %d discounts created, %d gift cards issued, %d replayed",
		summary.discountsCreated, summary.giftCardsIssued, summary.replayed)
}

type seedSummary struct {
	discountsCreated int
	giftCardsIssued  int
	replayed         int
}

// applyFixture 通过业务服务写入种子数据，重复执行时走幂等重放
func applyFixture(ctx context.Context, c *provider.Container, fixture *seedFixture) (seedSummary, error) {
	var summary seedSummary
	for _, discount := range fixture.MembershipDiscounts {
		input, err := discount.toInput()
		if err != nil {
			return summary, err
		}
		result, err := c.DiscountService.CreateDefinition(ctx, input)
		if err != nil {
			return summary, err
		}
		if result.Replay {
			summary.replayed++
			continue
		}
		summary.discountsCreated++
		logger.Infow("seed_membership_discount_created", "key", discount.Key, "discount_id", result.Definition.ID)
	}
	for _, card := range fixture.GiftCards {
		input, err := card.toInput()
		if err != nil {
			return summary, err
		}
		result, err := c.GiftCardService.Issue(ctx, input)
		if err != nil {
			return summary, err
		}
		if result.Replay {
			summary.replayed++
			continue
		}
		summary.giftCardsIssued++
		logger.Infow("seed_gift_card_issued", "key", card.Key, "code", result.Code, "balance", result.Balance)
	}
	return summary, nil
}
