package service

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/metrics"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/queue"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	giftCardCurrencyMinLength = 3
	giftCardCurrencyMaxLength = 8
)

// GiftCardService 礼品卡账本服务，余额始终由流水汇总得出
type GiftCardService struct {
	repo        repository.GiftCardRepository
	runner      repository.TransactionRunner
	guard       *IdempotencyGuard
	queueClient *queue.Client
	codePrefix  string
}

// IssueGiftCardInput 发卡输入
type IssueGiftCardInput struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OwnerRef       string `json:"owner_ref"`
	Reference      string `json:"reference"`
	Source         string `json:"source"`
	IdempotencyKey string `json:"-"`
}

// IssueGiftCardResult 发卡结果
type IssueGiftCardResult struct {
	Code     string `json:"code"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
	EventID  string `json:"event_id"`
	Replay   bool   `json:"-"`
}

// RedeemGiftCardInput 核销输入
type RedeemGiftCardInput struct {
	Code           string `json:"code"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Reference      string `json:"reference"`
	Source         string `json:"source"`
	IdempotencyKey string `json:"-"`
}

// RedeemGiftCardResult 核销结果，余额不足时 approved_amount 为 0 且无流水
type RedeemGiftCardResult struct {
	Code             string  `json:"code"`
	ApprovedAmount   int64   `json:"approved_amount"`
	RemainingBalance int64   `json:"remaining_balance"`
	Currency         string  `json:"currency"`
	EventID          *string `json:"event_id"`
	Reason           string  `json:"reason,omitempty"`
	Replay           bool    `json:"-"`
}

// DisableGiftCardInput 停用输入
type DisableGiftCardInput struct {
	Code           string `json:"code"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"-"`
}

// DisableGiftCardResult 停用结果
type DisableGiftCardResult struct {
	Code    string  `json:"code"`
	Status  string  `json:"status"`
	EventID *string `json:"event_id"`
	Reason  string  `json:"reason,omitempty"`
	Replay  bool    `json:"-"`
}

// GiftCardDetail 礼品卡详情
type GiftCardDetail struct {
	GiftCard models.GiftCard `json:"gift_card"`
	Balance  int64           `json:"balance"`
}

// GiftCardListInput 礼品卡列表输入
type GiftCardListInput struct {
	Code     string
	Status   string
	OwnerRef string
	Page     int
	PageSize int
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(repo repository.GiftCardRepository, runner repository.TransactionRunner, guard *IdempotencyGuard, queueClient *queue.Client, codePrefix string) *GiftCardService {
	codePrefix = strings.ToUpper(strings.TrimSpace(codePrefix))
	if codePrefix == "" {
		codePrefix = constants.GiftCardCodePrefixDefault
	}
	return &GiftCardService{
		repo:        repo,
		runner:      runner,
		guard:       guard,
		queueClient: queueClient,
		codePrefix:  codePrefix,
	}
}

// Issue 发行礼品卡并追加 ISSUE 流水
func (s *GiftCardService) Issue(ctx context.Context, input IssueGiftCardInput) (*IssueGiftCardResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	if input.Amount <= 0 {
		return nil, ErrGiftCardInvalidAmount
	}
	currency, err := normalizeGiftCardCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	source, err := normalizeGiftCardSource(input.Source, constants.GiftCardSourceStore)
	if err != nil {
		return nil, err
	}
	input.Currency = currency
	input.Source = source
	input.OwnerRef = strings.TrimSpace(input.OwnerRef)
	input.Reference = strings.TrimSpace(input.Reference)

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeGiftCardIssue, input.IdempotencyKey, input,
		func(tx *gorm.DB) (IssueGiftCardResult, error) {
			repo := s.repo.WithTx(tx)
			now := time.Now().UTC()
			code, err := generateGiftCardCode(s.codePrefix)
			if err != nil {
				return IssueGiftCardResult{}, err
			}
			card := &models.GiftCard{
				ID:        uuid.NewString(),
				Code:      code,
				Currency:  currency,
				OwnerRef:  input.OwnerRef,
				Status:    constants.GiftCardStatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repo.Create(card); err != nil {
				return IssueGiftCardResult{}, err
			}
			event := &models.GiftCardEvent{
				ID:             uuid.NewString(),
				GiftCardID:     card.ID,
				Kind:           constants.GiftCardEventIssue,
				SignedAmount:   input.Amount,
				Currency:       currency,
				Source:         source,
				Reference:      input.Reference,
				IdempotencyKey: input.IdempotencyKey,
				OccurredAt:     now,
			}
			if err := repo.CreateEvent(event); err != nil {
				return IssueGiftCardResult{}, err
			}
			return IssueGiftCardResult{
				Code:     card.Code,
				Balance:  input.Amount,
				Currency: currency,
				EventID:  event.ID,
			}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeGiftCardIssue, metrics.OutcomeOf(replay, false, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay {
		logger.Infow("gift_card_issued", "code", result.Code, "amount", input.Amount, "currency", currency, "source", source)
	}
	return &result, nil
}

// Redeem 核销礼品卡，锁定账户行后按流水余额部分批准
func (s *GiftCardService) Redeem(ctx context.Context, input RedeemGiftCardInput) (*RedeemGiftCardResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	code := repository.NormalizeGiftCardCode(input.Code)
	if code == "" {
		return nil, ErrGiftCardCodeRequired
	}
	if input.Amount <= 0 {
		return nil, ErrGiftCardInvalidAmount
	}
	currency, err := normalizeGiftCardCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	source, err := normalizeGiftCardSource(input.Source, constants.GiftCardSourcePOS)
	if err != nil {
		return nil, err
	}
	input.Code = code
	input.Currency = currency
	input.Source = source
	input.Reference = strings.TrimSpace(input.Reference)

	var cardID string
	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeGiftCardRedeem, input.IdempotencyKey, input,
		func(tx *gorm.DB) (RedeemGiftCardResult, error) {
			repo := s.repo.WithTx(tx)
			card, err := repo.GetByCodeForUpdate(code)
			if err != nil {
				return RedeemGiftCardResult{}, err
			}
			if card == nil {
				return RedeemGiftCardResult{}, ErrGiftCardNotFound
			}
			if card.Status != constants.GiftCardStatusActive {
				return RedeemGiftCardResult{}, ErrGiftCardDisabled
			}
			if card.Currency != currency {
				return RedeemGiftCardResult{}, withDetail(ErrCurrencyMismatch, "card=%s request=%s", card.Currency, currency)
			}
			cardID = card.ID

			balance, err := repo.SumBalance(card.ID)
			if err != nil {
				return RedeemGiftCardResult{}, err
			}
			approved := input.Amount
			if balance < approved {
				approved = balance
			}
			if approved <= 0 {
				return RedeemGiftCardResult{
					Code:             card.Code,
					ApprovedAmount:   0,
					RemainingBalance: balance,
					Currency:         card.Currency,
					Reason:           constants.ReasonInsufficientBalance,
				}, nil
			}

			event := &models.GiftCardEvent{
				ID:             uuid.NewString(),
				GiftCardID:     card.ID,
				Kind:           constants.GiftCardEventRedeem,
				SignedAmount:   -approved,
				Currency:       card.Currency,
				Source:         source,
				Reference:      input.Reference,
				IdempotencyKey: input.IdempotencyKey,
				OccurredAt:     time.Now().UTC(),
			}
			if err := repo.CreateEvent(event); err != nil {
				return RedeemGiftCardResult{}, err
			}
			return RedeemGiftCardResult{
				Code:             card.Code,
				ApprovedAmount:   approved,
				RemainingBalance: balance - approved,
				Currency:         card.Currency,
				EventID:          &event.ID,
			}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeGiftCardRedeem, metrics.OutcomeOf(replay, err == nil && result.ApprovedAmount == 0, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay && result.EventID != nil {
		logger.Infow("gift_card_redeem_applied", "code", code, "approved_amount", result.ApprovedAmount, "remaining_balance", result.RemainingBalance)
		if err := s.queueClient.EnqueueGiftCardLedgerAudit(queue.GiftCardLedgerAuditPayload{GiftCardID: cardID, Code: code}); err != nil {
			logger.Warnw("gift_card_ledger_audit_enqueue_failed", "code", code, "error", err)
		}
	}
	return &result, nil
}

// Disable 停用礼品卡并追加金额为 0 的 VOID 审计流水，不影响余额
func (s *GiftCardService) Disable(ctx context.Context, input DisableGiftCardInput) (*DisableGiftCardResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	code := repository.NormalizeGiftCardCode(input.Code)
	if code == "" {
		return nil, ErrGiftCardCodeRequired
	}
	input.Code = code
	input.Reason = strings.TrimSpace(input.Reason)

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeGiftCardDisable, input.IdempotencyKey, input,
		func(tx *gorm.DB) (DisableGiftCardResult, error) {
			repo := s.repo.WithTx(tx)
			card, err := repo.GetByCodeForUpdate(code)
			if err != nil {
				return DisableGiftCardResult{}, err
			}
			if card == nil {
				return DisableGiftCardResult{}, ErrGiftCardNotFound
			}
			if card.Status == constants.GiftCardStatusDisabled {
				return DisableGiftCardResult{
					Code:   card.Code,
					Status: constants.GiftCardStatusDisabled,
					Reason: constants.ReasonAlreadyDisabled,
				}, nil
			}

			now := time.Now().UTC()
			if err := repo.UpdateStatus(card.ID, constants.GiftCardStatusDisabled, now); err != nil {
				return DisableGiftCardResult{}, err
			}
			event := &models.GiftCardEvent{
				ID:             uuid.NewString(),
				GiftCardID:     card.ID,
				Kind:           constants.GiftCardEventVoid,
				SignedAmount:   0,
				Currency:       card.Currency,
				Source:         constants.GiftCardSourceAdmin,
				Reference:      input.Reason,
				IdempotencyKey: input.IdempotencyKey,
				OccurredAt:     now,
			}
			if err := repo.CreateEvent(event); err != nil {
				return DisableGiftCardResult{}, err
			}
			return DisableGiftCardResult{
				Code:    card.Code,
				Status:  constants.GiftCardStatusDisabled,
				EventID: &event.ID,
			}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeGiftCardDisable, metrics.OutcomeOf(replay, err == nil && result.EventID == nil, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay && result.EventID != nil {
		logger.Infow("gift_card_disabled", "code", code)
	}
	return &result, nil
}

// GetByCode 查询礼品卡与当前余额
func (s *GiftCardService) GetByCode(ctx context.Context, code string) (*GiftCardDetail, error) {
	code = repository.NormalizeGiftCardCode(code)
	if code == "" {
		return nil, ErrGiftCardCodeRequired
	}
	repo := s.repo
	var detail *GiftCardDetail
	err := s.runner.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		card, err := txRepo.GetByCode(code)
		if err != nil {
			return err
		}
		if card == nil {
			return ErrGiftCardNotFound
		}
		balance, err := txRepo.SumBalance(card.ID)
		if err != nil {
			return err
		}
		detail = &GiftCardDetail{GiftCard: *card, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return detail, nil
}

// ListEvents 查询礼品卡流水，按发生时间倒序
func (s *GiftCardService) ListEvents(ctx context.Context, code string) ([]models.GiftCardEvent, error) {
	code = repository.NormalizeGiftCardCode(code)
	if code == "" {
		return nil, ErrGiftCardCodeRequired
	}
	card, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	events, err := s.repo.ListEvents(card.ID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return events, nil
}

// ListGiftCards 分页查询礼品卡并附带余额，余额由一次分组汇总得出
func (s *GiftCardService) ListGiftCards(ctx context.Context, input GiftCardListInput) ([]models.GiftCardWithBalance, int64, error) {
	cards, total, err := s.repo.List(repository.GiftCardListFilter{
		Code:     input.Code,
		Status:   strings.TrimSpace(input.Status),
		OwnerRef: input.OwnerRef,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, translateStoreError(err)
	}
	ids := make([]string, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	balances, err := s.repo.BalancesByIDs(ids)
	if err != nil {
		return nil, 0, translateStoreError(err)
	}
	items := make([]models.GiftCardWithBalance, 0, len(cards))
	for _, card := range cards {
		items = append(items, models.GiftCardWithBalance{GiftCard: card, Balance: balances[card.ID]})
	}
	return items, total, nil
}

// AuditBalance 校验礼品卡余额不为负，供异步审计任务调用
func (s *GiftCardService) AuditBalance(ctx context.Context, giftCardID string) (int64, bool, error) {
	balance, err := s.repo.SumBalance(strings.TrimSpace(giftCardID))
	if err != nil {
		return 0, false, translateStoreError(err)
	}
	return balance, balance >= 0, nil
}

func normalizeGiftCardCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if len(currency) < giftCardCurrencyMinLength || len(currency) > giftCardCurrencyMaxLength {
		return "", ErrGiftCardInvalidCurrency
	}
	return currency, nil
}

func normalizeGiftCardSource(raw string, fallback string) (string, error) {
	source := strings.ToUpper(strings.TrimSpace(raw))
	if source == "" {
		return fallback, nil
	}
	switch source {
	case constants.GiftCardSourceStore, constants.GiftCardSourcePOS, constants.GiftCardSourceAdmin:
		return source, nil
	default:
		return "", ErrGiftCardInvalidSource
	}
}

func generateGiftCardCode(prefix string) (string, error) {
	buf := make([]byte, constants.GiftCardCodeRandomBytes)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
