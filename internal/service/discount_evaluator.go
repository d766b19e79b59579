package service

import (
	"context"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/periodkey"
)

// DiscountDefinitionLoader 折扣定义读取接口
type DiscountDefinitionLoader interface {
	GetDefinition(ctx context.Context, id string) (*models.MembershipDiscount, error)
}

// EvaluateLineItem 待评估的商品行
type EvaluateLineItem struct {
	LineID        string   `json:"line_id"`
	ProductID     string   `json:"product_id"`
	VariantID     string   `json:"variant_id"`
	CollectionIDs []string `json:"collection_ids"`
	UnitPrice     int64    `json:"unit_price"`
	Quantity      int64    `json:"quantity"`
}

// EvaluateInput 规则评估输入
type EvaluateInput struct {
	DiscountID string             `json:"membership_discount_id"`
	SubjectID  string             `json:"subject_id"`
	At         *time.Time         `json:"at"`
	Items      []EvaluateLineItem `json:"items"`
}

// RuleEvaluation 单条规则的评估结果
type RuleEvaluation struct {
	RuleID         string        `json:"rule_id"`
	RuleName       string        `json:"rule_name"`
	OrderIndex     int           `json:"order_index"`
	DiscountType   string        `json:"discount_type"`
	DiscountValue  models.Amount `json:"discount_value"`
	Period         string        `json:"period"`
	LimitCount     *int64        `json:"limit_count"`
	CounterCurrent int64         `json:"counter_current"`
	PeriodKey      string        `json:"period_key"`
	Allowed        bool          `json:"allowed"`
}

// LineEvaluation 商品行评估结果
type LineEvaluation struct {
	LineID           string           `json:"line_id"`
	ApplicableRules  []RuleEvaluation `json:"applicable_rules"`
	FirstAllowedRule *RuleEvaluation  `json:"first_allowed_rule"`
}

// EvaluateResult 规则评估结果
type EvaluateResult struct {
	DiscountID  string           `json:"membership_discount_id"`
	SubjectID   string           `json:"subject_id"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
	Items       []LineEvaluation `json:"items"`
}

// DiscountRuleEvaluator 会员折扣规则评估器，只读不写
type DiscountRuleEvaluator struct {
	definitions DiscountDefinitionLoader
	quotas      QuotaReader
	engine      *QuotaEngine
}

// NewDiscountRuleEvaluator 创建规则评估器
func NewDiscountRuleEvaluator(definitions DiscountDefinitionLoader, quotas QuotaReader, engine *QuotaEngine) *DiscountRuleEvaluator {
	return &DiscountRuleEvaluator{definitions: definitions, quotas: quotas, engine: engine}
}

// Evaluate 按商品行列出命中的有效规则（order_index 升序）及首条可用规则
func (e *DiscountRuleEvaluator) Evaluate(ctx context.Context, input EvaluateInput) (*EvaluateResult, error) {
	subjectID := strings.TrimSpace(input.SubjectID)
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}
	discountID := strings.TrimSpace(input.DiscountID)
	if discountID == "" {
		return nil, withDetail(ErrDiscountInvalid, "membership_discount_id is required")
	}
	if err := validateEvaluateItems(input.Items); err != nil {
		return nil, err
	}
	at := resolveAt(input.At)

	definition, err := e.definitions.GetDefinition(ctx, discountID)
	if err != nil {
		return nil, err
	}
	snapshot, err := e.quotas.GetProfileCounters(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	result := &EvaluateResult{
		DiscountID:  definition.ID,
		SubjectID:   subjectID,
		EvaluatedAt: at,
		Items:       make([]LineEvaluation, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		line, err := e.evaluateLine(definition, snapshot, item, at)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, line)
	}
	return result, nil
}

func (e *DiscountRuleEvaluator) evaluateLine(definition *models.MembershipDiscount, snapshot models.QuotaCounterSnapshot, item EvaluateLineItem, at time.Time) (LineEvaluation, error) {
	line := LineEvaluation{
		LineID:          item.LineID,
		ApplicableRules: make([]RuleEvaluation, 0),
	}
	if !definition.Active {
		return line, nil
	}
	for _, rule := range sortedRules(definition.Rules) {
		if !rule.Active || !rule.Scope.Data().Matches(item.ProductID, item.VariantID, item.CollectionIDs) {
			continue
		}
		period, err := periodkey.Parse(rule.Period)
		if err != nil {
			return LineEvaluation{}, withDetail(ErrDiscountPeriodInvalid, "rule %s: %v", rule.ID, err)
		}
		check, err := e.engine.CanUse(snapshot, rule.ID, period, rule.LimitCount, at)
		if err != nil {
			return LineEvaluation{}, err
		}
		line.ApplicableRules = append(line.ApplicableRules, RuleEvaluation{
			RuleID:         rule.ID,
			RuleName:       rule.Name,
			OrderIndex:     rule.OrderIndex,
			DiscountType:   rule.DiscountType,
			DiscountValue:  rule.DiscountValue,
			Period:         rule.Period,
			LimitCount:     rule.LimitCount,
			CounterCurrent: check.Current,
			PeriodKey:      check.PeriodKey,
			Allowed:        check.Allowed,
		})
	}
	for idx := range line.ApplicableRules {
		if line.ApplicableRules[idx].Allowed {
			first := line.ApplicableRules[idx]
			line.FirstAllowedRule = &first
			break
		}
	}
	return line, nil
}

func validateEvaluateItems(items []EvaluateLineItem) error {
	if len(items) == 0 {
		return withDetail(ErrEvaluateItemsInvalid, "items must not be empty")
	}
	for idx, item := range items {
		if strings.TrimSpace(item.LineID) == "" {
			return withDetail(ErrEvaluateItemsInvalid, "items[%d].line_id is required", idx)
		}
		if item.Quantity <= 0 || item.UnitPrice < 0 {
			return withDetail(ErrEvaluateItemsInvalid, "items[%d] has invalid quantity or unit_price", idx)
		}
	}
	return nil
}

// resolveAt 未指定时间时取当前 UTC 时间
func resolveAt(at *time.Time) time.Time {
	if at == nil || at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
