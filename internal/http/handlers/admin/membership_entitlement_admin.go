package admin

import (
	"github.com/dujiao-next/ledger-engine/internal/http/handlers/shared"
	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminEntitlements 管理端查询槽位状态与流水
func (h *Handler) GetAdminEntitlements(c *gin.Context) {
	page, pageSize := listPagination(c)
	input := service.EntitlementListInput{
		MembershipID: shared.TrimmedQuery(c, "membership_id"),
		RuleID:       shared.TrimmedQuery(c, "rule_id"),
		Page:         page,
		PageSize:     pageSize,
	}

	states, statesTotal, err := h.EntitlementService.ListStates(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	events, eventsTotal, err := h.EntitlementService.ListEvents(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"states":            states,
		"states_pagination": response.NewPagination(page, pageSize, statesTotal),
		"events":            events,
		"events_pagination": response.NewPagination(page, pageSize, eventsTotal),
	})
}
