package public

import (
	"time"

	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// DiscountUsageRequest 折扣用量回退/占用请求
type DiscountUsageRequest struct {
	SubjectID      string     `json:"subject_id" binding:"required"`
	DiscountID     string     `json:"membership_discount_id" binding:"required"`
	RuleID         string     `json:"membership_discount_rule_id" binding:"required"`
	At             *time.Time `json:"at"`
	Reason         string     `json:"reason"`
	IdempotencyKey string     `json:"idempotency_key"`
}

// EvaluateMembershipDiscount 评估商品行可用的折扣规则，不修改计数
func (h *Handler) EvaluateMembershipDiscount(c *gin.Context) {
	var req service.EvaluateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.DiscountRuleEvaluator.Evaluate(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ReverseMembershipDiscount 回退一次折扣用量
func (h *Handler) ReverseMembershipDiscount(c *gin.Context) {
	var req DiscountUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.DiscountService.Reverse(c.Request.Context(), service.ReverseDiscountInput{
		SubjectID:      req.SubjectID,
		DiscountID:     req.DiscountID,
		RuleID:         req.RuleID,
		At:             req.At,
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// ApplyMembershipDiscount 占用一次折扣用量，超出额度时 applied=false
func (h *Handler) ApplyMembershipDiscount(c *gin.Context) {
	var req DiscountUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.DiscountService.Apply(c.Request.Context(), service.ApplyDiscountInput{
		SubjectID:      req.SubjectID,
		DiscountID:     req.DiscountID,
		RuleID:         req.RuleID,
		At:             req.At,
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}
