package public

import (
	"github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueGiftCardRequest 发卡请求
type IssueGiftCardRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OwnerRef       string `json:"owner_ref"`
	Reference      string `json:"reference"`
	Source         string `json:"source"`
	IdempotencyKey string `json:"idempotency_key"`
}

// RedeemGiftCardRequest 核销礼品卡请求
type RedeemGiftCardRequest struct {
	Code           string `json:"code"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Reference      string `json:"reference"`
	Source         string `json:"source"`
	IdempotencyKey string `json:"idempotency_key"`
}

// IssueGiftCard 发行礼品卡
func (h *Handler) IssueGiftCard(c *gin.Context) {
	var req IssueGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.GiftCardService.Issue(c.Request.Context(), service.IssueGiftCardInput{
		Amount:         req.Amount,
		Currency:       req.Currency,
		OwnerRef:       req.OwnerRef,
		Reference:      req.Reference,
		Source:         req.Source,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// RedeemGiftCard 核销礼品卡，余额不足时返回 approved_amount=0
func (h *Handler) RedeemGiftCard(c *gin.Context) {
	var req RedeemGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.GiftCardService.Redeem(c.Request.Context(), service.RedeemGiftCardInput{
		Code:           req.Code,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Reference:      req.Reference,
		Source:         req.Source,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// GetGiftCard 查询礼品卡与派生余额
func (h *Handler) GetGiftCard(c *gin.Context) {
	detail, err := h.GiftCardService.GetByCode(c.Request.Context(), shared.TrimmedParam(c, "code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, detail)
}

// ListGiftCardEvents 查询礼品卡流水
func (h *Handler) ListGiftCardEvents(c *gin.Context) {
	events, err := h.GiftCardService.ListEvents(c.Request.Context(), shared.TrimmedParam(c, "code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"events": events})
}
