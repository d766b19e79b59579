package admin

import (
	"errors"
	"io"

	"github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// DisableGiftCardRequest 停用礼品卡请求
type DisableGiftCardRequest struct {
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key"`
}

// GetAdminGiftCards 管理端礼品卡列表（附余额）
func (h *Handler) GetAdminGiftCards(c *gin.Context) {
	page, pageSize := listPagination(c)
	items, total, err := h.GiftCardService.ListGiftCards(c.Request.Context(), service.GiftCardListInput{
		Code:     shared.TrimmedQuery(c, "code"),
		Status:   shared.TrimmedQuery(c, "status"),
		OwnerRef: shared.TrimmedQuery(c, "owner_ref"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}

// DisableGiftCard 管理端停用礼品卡
func (h *Handler) DisableGiftCard(c *gin.Context) {
	var req DisableGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.GiftCardService.Disable(c.Request.Context(), service.DisableGiftCardInput{
		Code:           shared.TrimmedParam(c, "code"),
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// GetAdminGiftCardEvents 管理端礼品卡流水
func (h *Handler) GetAdminGiftCardEvents(c *gin.Context) {
	events, err := h.GiftCardService.ListEvents(c.Request.Context(), shared.TrimmedParam(c, "code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"events": events})
}
