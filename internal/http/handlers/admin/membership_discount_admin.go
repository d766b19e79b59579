package admin

import (
	"strconv"

	"github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// DiscountDefinitionRequest 折扣定义写入请求
type DiscountDefinitionRequest struct {
	service.DiscountDefinitionInput
	IdempotencyKey string `json:"idempotency_key"`
}

func (r DiscountDefinitionRequest) toInput(c *gin.Context) service.DiscountDefinitionInput {
	input := r.DiscountDefinitionInput
	input.IdempotencyKey = idempotencyKey(c, r.IdempotencyKey)
	return input
}

// GetAdminDiscounts 管理端折扣定义列表
func (h *Handler) GetAdminDiscounts(c *gin.Context) {
	onlyActive, _ := strconv.ParseBool(shared.TrimmedQuery(c, "only_active"))
	definitions, err := h.DiscountService.ListDefinitions(c.Request.Context(), service.DiscountListInput{
		Search:     shared.TrimmedQuery(c, "search"),
		ProductRef: shared.TrimmedQuery(c, "product_ref"),
		OnlyActive: onlyActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"membership_discounts": definitions})
}

// CreateAdminDiscount 管理端创建折扣定义
func (h *Handler) CreateAdminDiscount(c *gin.Context) {
	var req DiscountDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.DiscountService.CreateDefinition(c.Request.Context(), req.toInput(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}

// GetAdminDiscount 管理端查询折扣定义
func (h *Handler) GetAdminDiscount(c *gin.Context) {
	definition, err := h.DiscountService.GetDefinition(c.Request.Context(), shared.TrimmedParam(c, "id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"membership_discount": definition})
}

// UpdateAdminDiscount 管理端更新折扣定义，规则整体替换
func (h *Handler) UpdateAdminDiscount(c *gin.Context) {
	var req DiscountDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.DiscountService.UpdateDefinition(c.Request.Context(), shared.TrimmedParam(c, "id"), req.toInput(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessIdempotent(c, result, result.Replay)
}
