package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"gopkg.in/yaml.v3"
)

// seedFixture 种子数据文件
type seedFixture struct {
	MembershipDiscounts []seedDiscount `yaml:"membership_discounts"`
	GiftCards           []seedGiftCard `yaml:"gift_cards"`
}

type seedDiscount struct {
	Key        string     `yaml:"key"`
	Name       string     `yaml:"name"`
	ProductRef string     `yaml:"product_ref"`
	Active     *bool      `yaml:"active"`
	Rules      []seedRule `yaml:"rules"`
}

type seedRule struct {
	Name          string    `yaml:"name"`
	OrderIndex    int       `yaml:"order_index"`
	DiscountType  string    `yaml:"discount_type"`
	DiscountValue string    `yaml:"discount_value"`
	LimitCount    *int64    `yaml:"limit_count"`
	Period        string    `yaml:"period"`
	Active        *bool     `yaml:"active"`
	Scope         seedScope `yaml:"scope"`
}

type seedScope struct {
	ProductIDs    []string `yaml:"product_ids"`
	VariantIDs    []string `yaml:"variant_ids"`
	CollectionIDs []string `yaml:"collection_ids"`
}

type seedGiftCard struct {
	Key       string `yaml:"key"`
	Amount    int64  `yaml:"amount"`
	Currency  string `yaml:"currency"`
	OwnerRef  string `yaml:"owner_ref"`
	Reference string `yaml:"reference"`
}

func loadFixture(path string) (*seedFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fixture seedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fixture, nil
}

// seedKey 种子数据的幂等键，重复执行只会重放
func seedKey(kind, key string) string {
	return fmt.Sprintf("seed:%s:%s", kind, strings.TrimSpace(key))
}

func (d seedDiscount) toInput() (service.DiscountDefinitionInput, error) {
	if strings.TrimSpace(d.Key) == "" {
		return service.DiscountDefinitionInput{}, fmt.Errorf("membership discount %q: key is required", d.Name)
	}
	rules := make([]service.DiscountRuleInput, 0, len(d.Rules))
	for _, rule := range d.Rules {
		value, err := models.NewAmountFromString(rule.DiscountValue)
		if err != nil {
			return service.DiscountDefinitionInput{}, fmt.Errorf("membership discount %s rule %q: %w", d.Key, rule.Name, err)
		}
		rules = append(rules, service.DiscountRuleInput{
			Name:          rule.Name,
			OrderIndex:    rule.OrderIndex,
			DiscountType:  rule.DiscountType,
			DiscountValue: value,
			Scope: models.RuleScope{
				ProductIDs:    rule.Scope.ProductIDs,
				VariantIDs:    rule.Scope.VariantIDs,
				CollectionIDs: rule.Scope.CollectionIDs,
			},
			LimitCount: rule.LimitCount,
			Period:     rule.Period,
			Active:     rule.Active,
		})
	}
	return service.DiscountDefinitionInput{
		Name:           d.Name,
		ProductRef:     d.ProductRef,
		Active:         d.Active,
		Rules:          rules,
		IdempotencyKey: seedKey("membership_discount", d.Key),
	}, nil
}

func (g seedGiftCard) toInput() (service.IssueGiftCardInput, error) {
	if strings.TrimSpace(g.Key) == "" {
		return service.IssueGiftCardInput{}, fmt.Errorf("gift card %q: key is required", g.Reference)
	}
	return service.IssueGiftCardInput{
		Amount:         g.Amount,
		Currency:       g.Currency,
		OwnerRef:       g.OwnerRef,
		Reference:      g.Reference,
		Source:         constants.GiftCardSourceAdmin,
		IdempotencyKey: seedKey("gift_card", g.Key),
	}, nil
}
