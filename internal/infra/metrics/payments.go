// Package metrics holds the process's Prometheus collectors. Label values
// are normalized to lowercase so a bank tag and an HTTP outcome never fork
// series by casing.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	paymentOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_operations_total",
			Help: "Payment operations by bank, operation (create/verify/reverse/inquiry) and outcome.",
		},
		[]string{"bank", "operation", "outcome"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Wall time of outbound gateway HTTP calls by host and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "outcome"},
	)
)

var registerOnce sync.Once

// MustRegister installs the collectors into the default registry. The
// composition root calls it once before the /metrics route is served;
// further calls are no-ops so tests can wire servers freely.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(paymentOpsTotal, gatewayRequestDuration)
	})
}

// IncPaymentOp counts one payment operation outcome.
func IncPaymentOp(bank, operation, outcome string) {
	paymentOpsTotal.WithLabelValues(norm(bank), norm(operation), norm(outcome)).Inc()
}

// ObserveGatewayRequest records one outbound gateway call. Wired into the
// HTTP client as its observer hook.
func ObserveGatewayRequest(host, outcome string, elapsed time.Duration) {
	gatewayRequestDuration.WithLabelValues(norm(host), norm(outcome)).Observe(elapsed.Seconds())
}

func norm(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s)
}
