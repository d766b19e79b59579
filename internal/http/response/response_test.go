package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/dujiao-next/ledger-engine/internal/constants"

	"github.com/gin-gonic/gin"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/public/gift-cards", nil)
	return c, w
}

func TestSuccessIdempotentReplayHeader(t *testing.T) {
	data := gin.H{"code": "GC-1", "balance": 500}

	first, firstW := newTestContext()
	SuccessIdempotent(first, data, false)
	if got := firstW.Header().Get(constants.HeaderIdempotentReplayed); got != "" {
		t.Fatalf("first application should not carry replay header, got %q", got)
	}

	replay, replayW := newTestContext()
	SuccessIdempotent(replay, data, true)
	if got := replayW.Header().Get(constants.HeaderIdempotentReplayed); got != "true" {
		t.Fatalf("replay should carry header, got %q", got)
	}
	if firstW.Body.String() != replayW.Body.String() {
		t.Fatalf("replay body should be identical:\n%s\n%s", firstW.Body.String(), replayW.Body.String())
	}
}

func TestErrorCarriesRequestID(t *testing.T) {
	c, w := newTestContext()
	c.Set(constants.ContextKeyRequestID, "req-1")
	Error(c, CodeConflict, "conflict")

	var resp struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if w.Code != 200 || resp.StatusCode != CodeConflict || resp.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected error envelope: %d %+v", w.Code, resp)
	}

	bare, bareW := newTestContext()
	Error(bare, CodeNotFound, "missing")
	if body := bareW.Body.String(); body != `{"status_code":404,"msg":"missing","data":null}` {
		t.Fatalf("unexpected body without request id: %s", body)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Total != 41 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if NewPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should give zero pages")
	}
}
