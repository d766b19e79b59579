package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dujiao-next/ledger-engine/internal/constants"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/metrics"
	"github.com/dujiao-next/ledger-engine/internal/models"
	"github.com/dujiao-next/ledger-engine/internal/periodkey"
	"github.com/dujiao-next/ledger-engine/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 槽位动作
const (
	slotActionConsume = constants.SlotEventConsume
	slotActionRelease = constants.SlotEventRelease
)

var slotTransitions = map[string]map[string]string{
	constants.SlotStatusFree: {
		slotActionConsume: constants.SlotStatusConsumed,
	},
	constants.SlotStatusReleased: {
		slotActionConsume: constants.SlotStatusConsumed,
	},
	constants.SlotStatusConsumed: {
		slotActionRelease: constants.SlotStatusReleased,
	},
}

// slotTransition 查询槽位状态迁移，ok=false 表示该状态下动作不可执行
func slotTransition(from, action string) (string, bool) {
	to, ok := slotTransitions[from][action]
	return to, ok
}

// EntitlementService 会员权益槽位状态机
type EntitlementService struct {
	repo   repository.EntitlementRepository
	runner repository.TransactionRunner
	guard  *IdempotencyGuard
}

// ConsumeSlotInput 占用槽位输入，period_key 为空时按 booking_day 推导月度周期
type ConsumeSlotInput struct {
	MembershipID   string `json:"membership_id"`
	RuleID         string `json:"rule_id"`
	SlotKey        string `json:"slot_key"`
	TicketID       string `json:"ticket_id"`
	PeriodKey      string `json:"period_key"`
	BookingDay     string `json:"booking_day"`
	IdempotencyKey string `json:"-"`
}

// ConsumeSlotResult 占用结果
type ConsumeSlotResult struct {
	Consumed  bool    `json:"consumed"`
	SlotKey   string  `json:"slot_key"`
	TicketID  string  `json:"ticket_id"`
	PeriodKey string  `json:"period_key"`
	EventID   *string `json:"event_id"`
	Reason    string  `json:"reason,omitempty"`
	Replay    bool    `json:"-"`
}

// ReleaseSlotInput 释放槽位输入
type ReleaseSlotInput struct {
	MembershipID   string `json:"membership_id"`
	RuleID         string `json:"rule_id"`
	SlotKey        string `json:"slot_key"`
	TicketID       string `json:"ticket_id"`
	IdempotencyKey string `json:"-"`
}

// ReleaseSlotResult 释放结果
type ReleaseSlotResult struct {
	Released  bool    `json:"released"`
	SlotKey   string  `json:"slot_key"`
	TicketID  string  `json:"ticket_id"`
	PeriodKey *string `json:"period_key"`
	EventID   *string `json:"event_id"`
	Reason    string  `json:"reason,omitempty"`
	Replay    bool    `json:"-"`
}

// EntitlementListInput 权益列表输入
type EntitlementListInput struct {
	MembershipID string
	RuleID       string
	Page         int
	PageSize     int
}

// NewEntitlementService 创建会员权益服务
func NewEntitlementService(repo repository.EntitlementRepository, runner repository.TransactionRunner, guard *IdempotencyGuard) *EntitlementService {
	return &EntitlementService{repo: repo, runner: runner, guard: guard}
}

func trimSlotIdentity(membershipID, ruleID, slotKey, ticketID string) (string, string, string, string, error) {
	membershipID = strings.TrimSpace(membershipID)
	ruleID = strings.TrimSpace(ruleID)
	slotKey = strings.TrimSpace(slotKey)
	ticketID = strings.TrimSpace(ticketID)
	if membershipID == "" || ruleID == "" || slotKey == "" || ticketID == "" {
		return "", "", "", "", ErrEntitlementInvalid
	}
	return membershipID, ruleID, slotKey, ticketID, nil
}

// resolveConsumePeriodKey 优先使用显式周期键，否则由预约日期推导
func resolveConsumePeriodKey(periodKey, bookingDay string) (string, error) {
	if trimmed := strings.TrimSpace(periodKey); trimmed != "" {
		return trimmed, nil
	}
	if strings.TrimSpace(bookingDay) == "" {
		return "", ErrPeriodKeyRequired
	}
	key, err := periodkey.ForBookingDay(bookingDay)
	if err != nil {
		if errors.Is(err, periodkey.ErrInvalidBookingDay) {
			return "", ErrBookingDayInvalid
		}
		return "", err
	}
	return key, nil
}

// Consume 占用槽位，已被占用时软拒绝且不写入任何数据
func (s *EntitlementService) Consume(ctx context.Context, input ConsumeSlotInput) (*ConsumeSlotResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	membershipID, ruleID, slotKey, ticketID, err := trimSlotIdentity(input.MembershipID, input.RuleID, input.SlotKey, input.TicketID)
	if err != nil {
		return nil, err
	}
	periodKey, err := resolveConsumePeriodKey(input.PeriodKey, input.BookingDay)
	if err != nil {
		return nil, err
	}
	input.MembershipID, input.RuleID, input.SlotKey, input.TicketID = membershipID, ruleID, slotKey, ticketID
	input.PeriodKey, input.BookingDay = periodKey, ""

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeEntitlementConsume, input.IdempotencyKey, input,
		func(tx *gorm.DB) (ConsumeSlotResult, error) {
			repo := s.repo.WithTx(tx)
			now := time.Now().UTC()

			state, err := repo.GetStateForUpdate(membershipID, ruleID, slotKey)
			if err != nil {
				return ConsumeSlotResult{}, err
			}
			if state == nil {
				to, _ := slotTransition(constants.SlotStatusFree, slotActionConsume)
				fresh := &models.MembershipEntitlementState{
					ID:           uuid.NewString(),
					MembershipID: membershipID,
					RuleID:       ruleID,
					SlotKey:      slotKey,
					TicketID:     ticketID,
					PeriodKey:    periodKey,
					Status:       to,
					UpdatedAt:    now,
				}
				inserted, err := repo.InsertStateIfAbsent(fresh)
				if err != nil {
					return ConsumeSlotResult{}, err
				}
				if inserted {
					return s.appendConsumeEvent(repo, input.IdempotencyKey, membershipID, ruleID, slotKey, ticketID, periodKey, now)
				}
				// 并发插入落败，重新加锁读取胜者写入的状态
				state, err = repo.GetStateForUpdate(membershipID, ruleID, slotKey)
				if err != nil {
					return ConsumeSlotResult{}, err
				}
				if state == nil {
					return ConsumeSlotResult{}, errors.New("entitlement state vanished after conflicting insert")
				}
			}

			to, ok := slotTransition(state.Status, slotActionConsume)
			if !ok {
				return ConsumeSlotResult{
					Consumed:  false,
					SlotKey:   slotKey,
					TicketID:  ticketID,
					PeriodKey: state.PeriodKey,
					Reason:    constants.ReasonSlotAlreadyConsumed,
				}, nil
			}
			state.TicketID = ticketID
			state.PeriodKey = periodKey
			state.Status = to
			state.UpdatedAt = now
			if err := repo.UpdateState(state); err != nil {
				return ConsumeSlotResult{}, err
			}
			return s.appendConsumeEvent(repo, input.IdempotencyKey, membershipID, ruleID, slotKey, ticketID, periodKey, now)
		})
	metrics.ObserveOperation(constants.IdempotencyScopeEntitlementConsume, metrics.OutcomeOf(replay, err == nil && !result.Consumed, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay {
		if result.Consumed {
			logger.Infow("entitlement_slot_consumed", "membership_id", membershipID, "rule_id", ruleID, "slot_key", slotKey, "ticket_id", ticketID)
		} else {
			logger.Infow("entitlement_slot_consume_denied", "membership_id", membershipID, "rule_id", ruleID, "slot_key", slotKey, "reason", result.Reason)
		}
	}
	return &result, nil
}

func (s *EntitlementService) appendConsumeEvent(repo *repository.GormEntitlementRepository, idempotencyKey, membershipID, ruleID, slotKey, ticketID, periodKey string, now time.Time) (ConsumeSlotResult, error) {
	event := &models.MembershipEntitlementEvent{
		ID:             uuid.NewString(),
		MembershipID:   membershipID,
		RuleID:         ruleID,
		SlotKey:        slotKey,
		TicketID:       ticketID,
		PeriodKey:      periodKey,
		Kind:           constants.SlotEventConsume,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
	}
	if err := repo.CreateEvent(event); err != nil {
		return ConsumeSlotResult{}, err
	}
	return ConsumeSlotResult{
		Consumed:  true,
		SlotKey:   slotKey,
		TicketID:  ticketID,
		PeriodKey: periodKey,
		EventID:   &event.ID,
	}, nil
}

// Release 释放槽位，只有占用票据本身可以释放
func (s *EntitlementService) Release(ctx context.Context, input ReleaseSlotInput) (*ReleaseSlotResult, error) {
	key, err := NormalizeIdempotencyKey(input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	input.IdempotencyKey = key
	membershipID, ruleID, slotKey, ticketID, err := trimSlotIdentity(input.MembershipID, input.RuleID, input.SlotKey, input.TicketID)
	if err != nil {
		return nil, err
	}
	input.MembershipID, input.RuleID, input.SlotKey, input.TicketID = membershipID, ruleID, slotKey, ticketID

	result, replay, err := runIdempotent(ctx, s.runner, s.guard, constants.IdempotencyScopeEntitlementRelease, input.IdempotencyKey, input,
		func(tx *gorm.DB) (ReleaseSlotResult, error) {
			repo := s.repo.WithTx(tx)
			state, err := repo.GetStateForUpdate(membershipID, ruleID, slotKey)
			if err != nil {
				return ReleaseSlotResult{}, err
			}
			from := constants.SlotStatusFree
			var currentPeriod *string
			if state != nil {
				from = state.Status
				period := state.PeriodKey
				currentPeriod = &period
			}
			to, ok := slotTransition(from, slotActionRelease)
			if !ok {
				return ReleaseSlotResult{
					Released:  false,
					SlotKey:   slotKey,
					TicketID:  ticketID,
					PeriodKey: currentPeriod,
					Reason:    constants.ReasonNotConsumed,
				}, nil
			}
			if state.TicketID != ticketID {
				return ReleaseSlotResult{
					Released:  false,
					SlotKey:   slotKey,
					TicketID:  ticketID,
					PeriodKey: currentPeriod,
					Reason:    constants.ReasonNotOwner,
				}, nil
			}

			now := time.Now().UTC()
			state.Status = to
			state.UpdatedAt = now
			if err := repo.UpdateState(state); err != nil {
				return ReleaseSlotResult{}, err
			}
			event := &models.MembershipEntitlementEvent{
				ID:             uuid.NewString(),
				MembershipID:   membershipID,
				RuleID:         ruleID,
				SlotKey:        slotKey,
				TicketID:       ticketID,
				PeriodKey:      state.PeriodKey,
				Kind:           constants.SlotEventRelease,
				IdempotencyKey: input.IdempotencyKey,
				CreatedAt:      now,
			}
			if err := repo.CreateEvent(event); err != nil {
				return ReleaseSlotResult{}, err
			}
			return ReleaseSlotResult{
				Released:  true,
				SlotKey:   slotKey,
				TicketID:  ticketID,
				PeriodKey: currentPeriod,
				EventID:   &event.ID,
			}, nil
		})
	metrics.ObserveOperation(constants.IdempotencyScopeEntitlementRelease, metrics.OutcomeOf(replay, err == nil && !result.Released, err))
	if err != nil {
		return nil, err
	}
	result.Replay = replay
	if !replay && result.Released {
		logger.Infow("entitlement_slot_released", "membership_id", membershipID, "rule_id", ruleID, "slot_key", slotKey, "ticket_id", ticketID)
	}
	return &result, nil
}

// ListStates 查询槽位状态
func (s *EntitlementService) ListStates(ctx context.Context, input EntitlementListInput) ([]models.MembershipEntitlementState, int64, error) {
	states, total, err := s.repo.ListStates(repository.EntitlementListFilter{
		MembershipID: input.MembershipID,
		RuleID:       input.RuleID,
		Page:         input.Page,
		PageSize:     input.PageSize,
	})
	if err != nil {
		return nil, 0, translateStoreError(err)
	}
	return states, total, nil
}

// ListEvents 查询权益流水
func (s *EntitlementService) ListEvents(ctx context.Context, input EntitlementListInput) ([]models.MembershipEntitlementEvent, int64, error) {
	events, total, err := s.repo.ListEvents(repository.EntitlementListFilter{
		MembershipID: input.MembershipID,
		RuleID:       input.RuleID,
		Page:         input.Page,
		PageSize:     input.PageSize,
	})
	if err != nil {
		return nil, 0, translateStoreError(err)
	}
	return events, total, nil
}
