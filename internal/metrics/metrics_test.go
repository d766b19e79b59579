package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcomeOf(t *testing.T) {
	cases := []struct {
		replay bool
		soft   bool
		err    error
		want   string
	}{
		{want: OutcomeApplied},
		{replay: true, want: OutcomeReplay},
		{soft: true, want: OutcomeSoftDenied},
		{replay: true, soft: true, want: OutcomeReplay},
		{replay: true, err: errors.New("boom"), want: OutcomeError},
	}
	for _, tc := range cases {
		if got := OutcomeOf(tc.replay, tc.soft, tc.err); got != tc.want {
			t.Fatalf("OutcomeOf(%v,%v,%v) = %s, want %s", tc.replay, tc.soft, tc.err, got, tc.want)
		}
	}
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationCount("metrics_test_op", OutcomeApplied))
	ObserveOperation("metrics_test_op", OutcomeApplied)
	ObserveOperation("metrics_test_op", OutcomeApplied)
	after := testutil.ToFloat64(OperationCount("metrics_test_op", OutcomeApplied))
	if after-before != 2 {
		t.Fatalf("counter delta want 2 got %v", after-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveHTTP(http.MethodGet, "/metrics_test", http.StatusOK, 0.01)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `ledger_http_requests_total{method="GET",route="/metrics_test",status="200"}`) {
		t.Fatalf("exposition missing http counter")
	}
}
