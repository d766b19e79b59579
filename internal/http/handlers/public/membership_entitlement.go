package public

import (
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// ConsumeSlotRequest 占用权益槽位请求
type ConsumeSlotRequest struct {
	MembershipID   string `json:"membership_id" binding:"required"`
	RuleID         string `json:"rule_id" binding:"required"`
	SlotKey        string `json:"slot_key" binding:"required"`
	TicketID       string `json:"ticket_id" binding:"required"`
	PeriodKey      string `json:"period_key"`
	BookingDay     string `json:"booking_day"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ReleaseSlotRequest 释放权益槽位请求
type ReleaseSlotRequest struct {
	MembershipID   string `json:"membership_id" binding:"required"`
	RuleID         string `json:"rule_id" binding:"required"`
	SlotKey        string `json:"slot_key" binding:"required"`
	TicketID       string `json:"ticket_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ConsumeEntitlementSlot 占用权益槽位
func (h *Handler) ConsumeEntitlementSlot(c *gin.Context) {
	var req ConsumeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.entitlement_invalid", nil)
		return
	}

	result, err := h.EntitlementService.Consume(c.Request.Context(), service.ConsumeSlotInput{
		MembershipID:   req.MembershipID,
		RuleID:         req.RuleID,
		SlotKey:        req.SlotKey,
		TicketID:       req.TicketID,
		PeriodKey:      req.PeriodKey,
		BookingDay:     req.BookingDay,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// ReleaseEntitlementSlot 释放权益槽位，只有占用票据可以释放
func (h *Handler) ReleaseEntitlementSlot(c *gin.Context) {
	var req ReleaseSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.entitlement_invalid", nil)
		return
	}

	result, err := h.EntitlementService.Release(c.Request.Context(), service.ReleaseSlotInput{
		MembershipID:   req.MembershipID,
		RuleID:         req.RuleID,
		SlotKey:        req.SlotKey,
		TicketID:       req.TicketID,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// DeprecatedIncrementUsage 旧版用量递增接口，已由 consume/release 取代
func (h *Handler) DeprecatedIncrementUsage(c *gin.Context) {
	respondError(c, response.CodeGone, "error.endpoint_deprecated", nil)
}
