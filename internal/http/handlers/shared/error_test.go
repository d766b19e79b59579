package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/ledger-engine/internal/http/response"
	"github.com/dujiao-next/ledger-engine/internal/logger"
	"github.com/dujiao-next/ledger-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondForTest(t *testing.T, err error) response.Response {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/public/gift-cards/redeem", nil)
	c.Request.Header.Set("Accept-Language", "en-US")
	RespondServiceError(c, err)

	var resp response.Response
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &resp); decodeErr != nil {
		t.Fatalf("decode response failed: %v", decodeErr)
	}
	return resp
}

func TestMatchServiceErrorPrefersSpecificRule(t *testing.T) {
	rule, ok := MatchServiceError(fmt.Errorf("redeem: %w", service.ErrGiftCardNotFound))
	if !ok {
		t.Fatalf("wrapped gift card error should match")
	}
	if rule.Key != "error.gift_card_not_found" || rule.Code != response.CodeNotFound {
		t.Fatalf("unexpected rule: %+v", rule)
	}

	if _, ok := MatchServiceError(errors.New("boom")); ok {
		t.Fatalf("plain error should not match")
	}
	if _, ok := MatchServiceError(nil); ok {
		t.Fatalf("nil error should not match")
	}
}

func TestRespondServiceErrorMapsCodes(t *testing.T) {
	resp := respondForTest(t, service.ErrGiftCardDisabled)
	if resp.StatusCode != response.CodeConflict {
		t.Fatalf("disabled card want 409 got %d", resp.StatusCode)
	}

	resp = respondForTest(t, fmt.Errorf("list: %w", service.ErrSchemaUnready))
	if resp.StatusCode != response.CodeServiceUnavailable || resp.Msg != "Tables are not migrated" {
		t.Fatalf("schema unready want 503 got %d %q", resp.StatusCode, resp.Msg)
	}

	resp = respondForTest(t, fmt.Errorf("apply: %w", service.ErrDiscountRuleInactive))
	if resp.StatusCode != response.CodeConflict || resp.Msg != "Membership discount rule is inactive" {
		t.Fatalf("inactive rule want 409 got %d %q", resp.StatusCode, resp.Msg)
	}

	resp = respondForTest(t, errors.New("boom"))
	if resp.StatusCode != response.CodeInternal || resp.Msg != "Internal server error" {
		t.Fatalf("unknown error want 500 got %d %q", resp.StatusCode, resp.Msg)
	}
}

func TestRespondServiceErrorHonorsAppError(t *testing.T) {
	appErr := response.NewAppError(response.CodeConflict, "error.conflict", "", errors.New("locked"))
	resp := respondForTest(t, fmt.Errorf("handler: %w", appErr))
	if resp.StatusCode != response.CodeConflict || resp.Msg != "Request conflict" {
		t.Fatalf("app error want 409 conflict got %d %q", resp.StatusCode, resp.Msg)
	}
	if got := appErr.Error(); got != "error.conflict: locked" {
		t.Fatalf("unexpected app error text: %s", got)
	}
}
