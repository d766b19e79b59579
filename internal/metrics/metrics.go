package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 业务操作结果标签
const (
	OutcomeApplied    = "applied"
	OutcomeReplay     = "replay"
	OutcomeSoftDenied = "soft_denied"
	OutcomeError      = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Mutating ledger operations by outcome",
	}, []string{"operation", "outcome"})

	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	auditDriftTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_audit_drift_total",
		Help: "Audit tasks that found the derived state out of line with the event log",
	}, []string{"audit"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rate_limited_total",
		Help: "Requests rejected by the redis rate limiter",
	}, []string{"rule"})
)

// ObserveOperation 记录一次业务操作
func ObserveOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// OutcomeOf 根据执行结果推导结果标签
func OutcomeOf(replay, softDenied bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case replay:
		return OutcomeReplay
	case softDenied:
		return OutcomeSoftDenied
	default:
		return OutcomeApplied
	}
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, route string, status int, seconds float64) {
	httpReqTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(seconds)
}

// ObserveAuditDrift 记录审计发现的偏差
func ObserveAuditDrift(audit string) {
	auditDriftTotal.WithLabelValues(audit).Inc()
}

// ObserveRateLimited 记录一次限流拒绝
func ObserveRateLimited(rule string) {
	rateLimitedTotal.WithLabelValues(rule).Inc()
}

// Handler Prometheus 指标输出
func Handler() http.Handler {
	return promhttp.Handler()
}

// OperationCount 读取操作计数
func OperationCount(operation, outcome string) prometheus.Counter {
	return operationsTotal.WithLabelValues(operation, outcome)
}

// AuditDriftCount 读取审计偏差计数
func AuditDriftCount(audit string) prometheus.Counter {
	return auditDriftTotal.WithLabelValues(audit)
}

// RateLimitedCount 读取限流拒绝计数
func RateLimitedCount(rule string) prometheus.Counter {
	return rateLimitedTotal.WithLabelValues(rule)
}
