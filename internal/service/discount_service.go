package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/cache"
	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/metrics"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/periodkey"
	"github.com/dujiao-next/ledger-engine/internal/queue"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var percentageCeiling = decimal.NewFromInt(100)

// DiscountService 会员折扣定义与用量服务
type DiscountService struct {
	repo        repository.DiscountRepository
	runner      repository.TransactionRunner
	guard       *IdempotencyGuard
	engine      *QuotaEngine
	profiles    ProfileStore
	usageRepo   repository.DiscountUsageRepository
	queueClient *queue.Client
	cacheTTL    time.Duration
	loads       singleflight.Group
}

// DiscountRuleInput 折扣规则输入
type DiscountRuleInput struct {
	Name          string           `json:"name"`
	OrderIndex    int              `json:"order_index"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue models.Amount    `json:"discount_value"`
	Scope         models.RuleScope `json:"scope"`
	LimitCount    *int64           `json:"limit_count"`
	Period        string           `json:"period"`
	Active        *bool            `json:"active"`
}

// DiscountDefinitionInput 折扣定义输入，规则整体替换
type DiscountDefinitionInput struct {
	ID             string              `json:"id,omitempty"`
	Name           string              `json:"name"`
	ProductRef     string              `json:"product_ref"`
	Active         *bool               `json:"active"`
	Rules          []DiscountRuleInput `json:"rules"`
	IdempotencyKey string              `json:"-"`
}

// DiscountDefinitionResult 折扣定义写入结果
type DiscountDefinitionResult struct {
	Definition models.MembershipDiscount `json:"membership_discount"`
	Replay     bool                      `json:"-"`
}

// DiscountListInput 折扣定义列表输入
type DiscountListInput struct {
	Search     string
	ProductRef string
	OnlyActive bool
}

// ReverseDiscountInput 用量回退输入
type ReverseDiscountInput struct {
	SubjectID      string     `json:"subject_id"`
	DiscountID     string     `json:"membership_discount_id"`
	RuleID         string     `json:"membership_discount_rule_id"`
	At             *time.Time `json:"at,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	IdempotencyKey string     `json:"-"`
}

// ReverseDiscountResult 用量回退结果
type ReverseDiscountResult struct {
	Reversed     bool                `json:"reversed"`
	SubjectID    string              `json:"subject_id"`
	DiscountID   string              `json:"membership_discount_id"`
	RuleID       string              `json:"membership_discount_rule_id"`
	PeriodKey    string              `json:"period_key"`
	Counter      models.QuotaCounter `json:"counter"`
	UsageEventID string              `json:"usage_event_id"`
	Idempotent   bool                `json:"idempotent"`
	Replay       bool                `json:"-"`
}

// ApplyDiscountInput 用量占用输入
type ApplyDiscountInput struct {
	SubjectID      string     `json:"subject_id"`
	DiscountID     string     `json:"membership_discount_id"`
	RuleID         string     `json:"membership_discount_rule_id"`
	At             *time.Time `json:"at,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	IdempotencyKey string     `json:"-"`
}

// ApplyDiscountResult 用量占用结果，超出上限时 applied=false
type ApplyDiscountResult struct {
	Applied      bool                `json:"applied"`
	SubjectID    string              `json:"subject_id"`
	DiscountID   string              `json:"membership_discount_id"`
	RuleID       string              `json:"membership_discount_rule_id"`
	PeriodKey    string              `json:"period_key"`
	Current      int64               `json:"counter_current"`
	LimitCount   *int64              `json:"limit_count"`
	Counter      models.QuotaCounter `json:"counter"`
	UsageEventID *string             `json:"usage_event_id"`
	Reason       string              `json:"reason,omitempty"`
	Replay       bool                `json:"-"`
}

// DiscountUsageAudit 用量审计结果
type DiscountUsageAudit struct {
	SubjectID    string `json:"subject_id"`
	RuleID       string `json:"rule_id"`
	EventSum     int64  `json:"event_sum"`
	LifetimeUsed int64  `json:"lifetime_used"`
	Drift        bool   `json:"drift"`
}

// NewDiscountService 创建会员折扣服务
func NewDiscountService(
	repo repository.DiscountRepository,
	usageRepo repository.DiscountUsageRepository,
	runner repository.TransactionRunner,
	guard *IdempotencyGuard,
	engine *QuotaEngine,
	profiles ProfileStore,
	queueClient *queue.Client,
	cacheTTL time.Duration,
) *DiscountService {
	return &DiscountService{
		repo:        repo,
		usageRepo:   usageRepo,
		runner:      runner,
		guard:       guard,
		engine:      engine,
		profiles:    profiles,
		queueClient: queueClient,
		cacheTTL:    cacheTTL,
	}
}

// CreateDefinition 创建折扣定义
func (s *DiscountService) CreateDefinition(ctx context.Context, input DiscountDefinitionInput) (*DiscountDefinitionResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	input.ID = ""
	definition, err := buildDiscountDefinition(input)
	if err != nil {
		return nil, err
	}
	if !s.repo.TablesReady() {
		return nil, ErrSchemaUnready
	}

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeDiscountCreate, input.IdempotencyKey, input,
		func(tx *gorm.DB) (DiscountDefinitionResult, error) {
			repo := s.repo.WithTx(tx)
			now := time.Now().UTC()
			definition.ID = uuid.NewString()
			definition.CreatedAt = now
			definition.UpdatedAt = now
			stampRules(definition.Rules, now)
			if err := repo.Create(definition); err != nil {
				return DiscountDefinitionResult{}, err
			}
			stored, err := repo.GetByID(definition.ID)
			if err != nil {
				return DiscountDefinitionResult{}, err
			}
			if stored == nil {
				return DiscountDefinitionResult{}, ErrDiscountNotFound
			}
			return DiscountDefinitionResult{Definition: *stored}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeDiscountCreate, metrics.OutcomeOf(replay, false, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay {
		logger.Infow("membership_discount_created", "discount_id", result.Definition.ID, "rules", len(result.Definition.Rules))
	}
	return &result, nil
}

// UpdateDefinition 更新折扣定义，锁定定义行后整体替换规则
func (s *DiscountService) UpdateDefinition(ctx context.Context, id string, input DiscountDefinitionInput) (*DiscountDefinitionResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	input.ID = strings.TrimSpace(id)
	if input.ID == "" {
		return nil, withDetail(ErrDiscountInvalid, "id is required")
	}
	definition, err := buildDiscountDefinition(input)
	if err != nil {
		return nil, err
	}
	if !s.repo.TablesReady() {
		return nil, ErrSchemaUnready
	}

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeDiscountUpdate, input.IdempotencyKey, input,
		func(tx *gorm.DB) (DiscountDefinitionResult, error) {
			repo := s.repo.WithTx(tx)
			existing, err := repo.GetByIDForUpdate(input.ID)
			if err != nil {
				return DiscountDefinitionResult{}, err
			}
			if existing == nil {
				return DiscountDefinitionResult{}, ErrDiscountNotFound
			}
			now := time.Now().UTC()
			definition.ID = existing.ID
			definition.UpdatedAt = now
			if err := repo.UpdateHeader(definition); err != nil {
				return DiscountDefinitionResult{}, err
			}
			stampRules(definition.Rules, now)
			if err := repo.ReplaceRules(existing.ID, definition.Rules); err != nil {
				return DiscountDefinitionResult{}, err
			}
			stored, err := repo.GetByID(existing.ID)
			if err != nil {
				return DiscountDefinitionResult{}, err
			}
			if stored == nil {
				return DiscountDefinitionResult{}, ErrDiscountNotFound
			}
			return DiscountDefinitionResult{Definition: *stored}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeDiscountUpdate, metrics.OutcomeOf(replay, false, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if err := cache.InvalidateDiscountDefinition(ctx, input.ID); err != nil {
		logger.Warnw("membership_discount_cache_invalidate_failed", "discount_id", input.ID, "error", err)
	}
	if !replay {
		logger.Infow("membership_discount_updated", "discount_id", input.ID, "rules", len(result.Definition.Rules))
	}
	return &result, nil
}

// ListDefinitions 查询折扣定义，表未创建时返回空列表
func (s *DiscountService) ListDefinitions(ctx context.Context, input DiscountListInput) ([]models.MembershipDiscount, error) {
	if !s.repo.TablesReady() {
		return []models.MembershipDiscount{}, nil
	}
	definitions, err := s.repo.List(repository.DiscountListFilter{
		Search:     input.Search,
		ProductRef: input.ProductRef,
		OnlyActive: input.OnlyActive,
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return definitions, nil
}

// GetDefinition 查询折扣定义，优先读取缓存
func (s *DiscountService) GetDefinition(ctx context.Context, id string) (*models.MembershipDiscount, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, withDetail(ErrDiscountInvalid, "id is required")
	}
	if cached, hit, err := cache.GetDiscountDefinition(ctx, id); err != nil {
		logger.Warnw("membership_discount_cache_get_failed", "discount_id", id, "error", err)
	} else if hit {
		return cached, nil
	}

	loaded, err, _ := s.loads.Do(id, func() (interface{}, error) {
		if !s.repo.TablesReady() {
			return nil, ErrSchemaUnready
		}
		definition, err := s.repo.GetByID(id)
		if err != nil {
			return nil, translateStoreError(err)
		}
		if definition == nil {
			return nil, ErrDiscountNotFound
		}
		if err := cache.SetDiscountDefinition(ctx, definition, s.cacheTTL); err != nil {
			logger.Warnw("membership_discount_cache_set_failed", "discount_id", id, "error", err)
		}
		return definition, nil
	})
	if err != nil {
		return nil, err
	}
	definition := *loaded.(*models.MembershipDiscount)
	return &definition, nil
}

// Reverse 回退一次规则用量：扣减计数并追加用量流水，累计用量已为 0 时记 delta=0
func (s *DiscountService) Reverse(ctx context.Context, input ReverseDiscountInput) (*ReverseDiscountResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	subjectID, discountID, ruleID, err := trimUsageIdentity(input.SubjectID, input.DiscountID, input.RuleID)
	if err != nil {
		return nil, err
	}
	at := resolveAt(input.At)
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.UsageReasonReverse
	}
	input.SubjectID, input.DiscountID, input.RuleID, input.Reason = subjectID, discountID, ruleID, reason
	if input.At != nil {
		input.At = &at
	}

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeDiscountReverse, input.IdempotencyKey, input,
		func(tx *gorm.DB) (ReverseDiscountResult, error) {
			rule, period, err := s.lockRule(tx, discountID, ruleID, false)
			if err != nil {
				return ReverseDiscountResult{}, err
			}
			store := bindProfileStore(s.profiles, tx)
			snapshot, err := store.GetProfileCounters(ctx, subjectID)
			if err != nil {
				return ReverseDiscountResult{}, err
			}
			next, err := s.engine.Decrement(snapshot, rule.ID, period, at, 1)
			if err != nil {
				return ReverseDiscountResult{}, err
			}
			previous, _ := snapshot.Get(rule.ID)
			counter, _ := next.Get(rule.ID)
			// 流水增量与 lifetime_used 的实际变化一致，夹到 0 时记 0
			delta := counter.LifetimeUsed - previous.LifetimeUsed
			eventReason := reason
			if delta == 0 {
				eventReason = constants.UsageReasonReverseNoop
			}
			usage, err := s.engine.AppendUsageEvent(ctx, tx, UsageEventInput{
				SubjectID:      subjectID,
				RuleID:         rule.ID,
				PeriodKey:      counter.PeriodKey,
				Delta:          delta,
				Reason:         eventReason,
				IdempotencyKey: input.IdempotencyKey,
			})
			if err != nil {
				return ReverseDiscountResult{}, err
			}
			if err := store.SetProfileCounters(ctx, subjectID, next); err != nil {
				return ReverseDiscountResult{}, err
			}
			return ReverseDiscountResult{
				Reversed:     true,
				SubjectID:    subjectID,
				DiscountID:   discountID,
				RuleID:       rule.ID,
				PeriodKey:    counter.PeriodKey,
				Counter:      counter,
				UsageEventID: usage.ID,
				Idempotent:   usage.Idempotent,
			}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeDiscountReverse, metrics.OutcomeOf(replay, false, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay {
		logger.Infow("membership_discount_usage_reversed", "subject_id", subjectID, "rule_id", ruleID, "period_key", result.PeriodKey)
		s.enqueueUsageAudit(subjectID, ruleID)
	}
	return &result, nil
}

// Apply 占用一次规则用量，检查与递增基于同一份加锁快照
func (s *DiscountService) Apply(ctx context.Context, input ApplyDiscountInput) (*ApplyDiscountResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	subjectID, discountID, ruleID, err := trimUsageIdentity(input.SubjectID, input.DiscountID, input.RuleID)
	if err != nil {
		return nil, err
	}
	at := resolveAt(input.At)
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.UsageReasonApply
	}
	input.SubjectID, input.DiscountID, input.RuleID, input.Reason = subjectID, discountID, ruleID, reason
	if input.At != nil {
		input.At = &at
	}

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeDiscountApply, input.IdempotencyKey, input,
		func(tx *gorm.DB) (ApplyDiscountResult, error) {
			rule, period, err := s.lockRule(tx, discountID, ruleID, true)
			if err != nil {
				return ApplyDiscountResult{}, err
			}
			store := bindProfileStore(s.profiles, tx)
			snapshot, err := store.GetProfileCounters(ctx, subjectID)
			if err != nil {
				return ApplyDiscountResult{}, err
			}
			check, err := s.engine.CanUse(snapshot, rule.ID, period, rule.LimitCount, at)
			if err != nil {
				return ApplyDiscountResult{}, err
			}
			outcome := ApplyDiscountResult{
				SubjectID:  subjectID,
				DiscountID: discountID,
				RuleID:     rule.ID,
				PeriodKey:  check.PeriodKey,
				Current:    check.Current,
				LimitCount: rule.LimitCount,
			}
			if !check.Allowed {
				if counter, ok := snapshot.Get(rule.ID); ok {
					outcome.Counter = counter
				}
				outcome.Reason = constants.ReasonQuotaExceeded
				return outcome, nil
			}
			next, err := s.engine.Increment(snapshot, rule.ID, period, at, 1)
			if err != nil {
				return ApplyDiscountResult{}, err
			}
			counter, _ := next.Get(rule.ID)
			usage, err := s.engine.AppendUsageEvent(ctx, tx, UsageEventInput{
				SubjectID:      subjectID,
				RuleID:         rule.ID,
				PeriodKey:      counter.PeriodKey,
				Delta:          1,
				Reason:         reason,
				IdempotencyKey: input.IdempotencyKey,
			})
			if err != nil {
				return ApplyDiscountResult{}, err
			}
			if err := store.SetProfileCounters(ctx, subjectID, next); err != nil {
				return ApplyDiscountResult{}, err
			}
			outcome.Applied = true
			outcome.Counter = counter
			outcome.UsageEventID = &usage.ID
			return outcome, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeDiscountApply, metrics.OutcomeOf(replay, err == nil && !result.Applied, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay && result.Applied {
		logger.Infow("membership_discount_usage_applied", "subject_id", subjectID, "rule_id", ruleID, "period_key", result.PeriodKey)
		s.enqueueUsageAudit(subjectID, ruleID)
	}
	return &result, nil
}

// ListUsageEvents 查询客户的用量流水
func (s *DiscountService) ListUsageEvents(ctx context.Context, subjectID string, page, pageSize int) ([]models.MembershipDiscountUsageEvent, int64, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, 0, ErrSubjectRequired
	}
	events, total, err := s.usageRepo.ListBySubject(subjectID, page, pageSize)
	if err != nil {
		return nil, 0, translateStoreError(err)
	}
	return events, total, nil
}

// AuditUsage 比对用量流水汇总与资料中的累计用量
func (s *DiscountService) AuditUsage(ctx context.Context, subjectID, ruleID string) (*DiscountUsageAudit, error) {
	subjectID = strings.TrimSpace(subjectID)
	ruleID = strings.TrimSpace(ruleID)
	if subjectID == "" || ruleID == "" {
		return nil, ErrSubjectRequired
	}
	sum, err := s.usageRepo.SumDelta(subjectID, ruleID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	snapshot, err := s.profiles.GetProfileCounters(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	counter, _ := snapshot.Get(ruleID)
	expected := sum
	if expected < 0 {
		expected = 0
	}
	return &DiscountUsageAudit{
		SubjectID:    subjectID,
		RuleID:       ruleID,
		EventSum:     sum,
		LifetimeUsed: counter.LifetimeUsed,
		Drift:        expected != counter.LifetimeUsed,
	}, nil
}

func (s *DiscountService) enqueueUsageAudit(subjectID, ruleID string) {
	payload := queue.DiscountUsageAuditPayload{SubjectID: subjectID, RuleID: ruleID}
	if err := s.queueClient.EnqueueDiscountUsageAudit(payload); err != nil {
		logger.Warnw("discount_usage_audit_enqueue_failed", "subject_id", subjectID, "rule_id", ruleID, "error", err)
	}
}

// lockRule 在事务内加锁读取定义并定位规则，阻止并发替换规则集
func (s *DiscountService) lockRule(tx *gorm.DB, discountID, ruleID string, requireActive bool) (*models.MembershipDiscountRule, periodkey.Period, error) {
	definition, err := s.repo.WithTx(tx).GetByIDForUpdate(discountID)
	if err != nil {
		return nil, "", err
	}
	if definition == nil {
		return nil, "", ErrDiscountNotFound
	}
	for idx := range definition.Rules {
		rule := definition.Rules[idx]
		if rule.ID != ruleID {
			continue
		}
		if requireActive && (!definition.Active || !rule.Active) {
			return nil, "", withDetail(ErrDiscountRuleInactive, "discount %s rule %s", definition.ID, rule.ID)
		}
		period, err := periodkey.Parse(rule.Period)
		if err != nil {
			return nil, "", withDetail(ErrDiscountPeriodInvalid, "rule %s: %v", rule.ID, err)
		}
		return &rule, period, nil
	}
	return nil, "", ErrDiscountRuleNotFound
}

func trimUsageIdentity(subjectID, discountID, ruleID string) (string, string, string, error) {
	subjectID = strings.TrimSpace(subjectID)
	discountID = strings.TrimSpace(discountID)
	ruleID = strings.TrimSpace(ruleID)
	if subjectID == "" {
		return "", "", "", ErrSubjectRequired
	}
	if discountID == "" || ruleID == "" {
		return "", "", "", withDetail(ErrDiscountInvalid, "membership_discount_id and membership_discount_rule_id are required")
	}
	return subjectID, discountID, ruleID, nil
}

// buildDiscountDefinition 校验输入并生成按 order_index 排序的定义
func buildDiscountDefinition(input DiscountDefinitionInput) (*models.MembershipDiscount, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, withDetail(ErrDiscountInvalid, "name is required")
	}
	productRef := strings.TrimSpace(input.ProductRef)
	if productRef == "" {
		return nil, withDetail(ErrDiscountInvalid, "product_ref is required")
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	seenOrder := make(map[int]struct{}, len(input.Rules))
	rules := make([]models.MembershipDiscountRule, 0, len(input.Rules))
	for idx, raw := range input.Rules {
		rule, err := buildDiscountRule(idx, raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seenOrder[rule.OrderIndex]; ok {
			return nil, withDetail(ErrDiscountOrderIndexDuplicate, "order_index %d", rule.OrderIndex)
		}
		seenOrder[rule.OrderIndex] = struct{}{}
		rules = append(rules, rule)
	}

	return &models.MembershipDiscount{
		Name:       name,
		ProductRef: productRef,
		Active:     active,
		Rules:      sortedRules(rules),
	}, nil
}

func buildDiscountRule(idx int, raw DiscountRuleInput) (models.MembershipDiscountRule, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].name is required", idx)
	}
	if raw.OrderIndex < 0 {
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].order_index must be >= 0", idx)
	}
	discountType := strings.ToLower(strings.TrimSpace(raw.DiscountType))
	value := raw.DiscountValue.Decimal
	switch discountType {
	case constants.DiscountTypePercentage:
		if !value.GreaterThan(decimal.Zero) || value.GreaterThan(percentageCeiling) {
			return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].discount_value must be in (0, 100]", idx)
		}
	case constants.DiscountTypeFixed:
		if !value.GreaterThan(decimal.Zero) {
			return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].discount_value must be > 0", idx)
		}
	default:
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].discount_type %q", idx, raw.DiscountType)
	}
	period, err := periodkey.Parse(raw.Period)
	if err != nil {
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountPeriodInvalid, "rules[%d]: %v", idx, err)
	}
	if raw.LimitCount != nil && *raw.LimitCount < 1 {
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountRuleInvalid, "rules[%d].limit_count must be null or >= 1", idx)
	}
	scope := normalizeRuleScope(raw.Scope)
	if scope.Empty() {
		return models.MembershipDiscountRule{}, withDetail(ErrDiscountScopeInvalid, "rules[%d]", idx)
	}
	active := true
	if raw.Active != nil {
		active = *raw.Active
	}
	var limit *int64
	if raw.LimitCount != nil {
		limitValue := *raw.LimitCount
		limit = &limitValue
	}
	return models.MembershipDiscountRule{
		Name:          name,
		OrderIndex:    raw.OrderIndex,
		DiscountType:  discountType,
		DiscountValue: models.NewAmount(value),
		Scope:         datatypes.NewJSONType(scope),
		LimitCount:    limit,
		Period:        string(period),
		Active:        active,
	}, nil
}

// normalizeRuleScope 去除空白与重复 ID
func normalizeRuleScope(scope models.RuleScope) models.RuleScope {
	return models.RuleScope{
		ProductIDs:    uniqueTrimmed(scope.ProductIDs),
		VariantIDs:    uniqueTrimmed(scope.VariantIDs),
		CollectionIDs: uniqueTrimmed(scope.CollectionIDs),
	}
}

func uniqueTrimmed(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stampRules(rules []models.MembershipDiscountRule, now time.Time) {
	for idx := range rules {
		rules[idx].ID = uuid.NewString()
		rules[idx].CreatedAt = now
		rules[idx].UpdatedAt = now
	}
}

func sortedRules(rules []models.MembershipDiscountRule) []models.MembershipDiscountRule {
	out := make([]models.MembershipDiscountRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}
