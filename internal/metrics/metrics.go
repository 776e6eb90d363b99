// internal/metrics/metrics.go

package metrics

import (
    "strconv"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

const (
    ResultSuccess      = "success"
    ResultInsufficient = "insufficient"
    ResultRejected     = "rejected"
    ResultError        = "error"
    ResultIgnored      = "ignored"
)

var (
    superlikeTransfers = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "superlikes_transfers_total",
            Help: "Superlike transfers by outcome",
        },
        []string{"result"},
    )

    superlikeWithdrawals = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "superlikes_withdrawals_total",
            Help: "Superlike withdrawals by outcome",
        },
        []string{"result"},
    )

    superlikeTopUps = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "superlikes_topups_total",
            Help: "Superlike top-up jobs by final status",
        },
        []string{"status"},
    )

    gatewayDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "mpesa_gateway_duration_seconds",
            Help:    "Latency of STK push requests to the payment gateway",
            Buckets: prometheus.DefBuckets,
        },
        []string{"result"},
    )

    callbacks = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "mpesa_callbacks_total",
            Help: "Payment webhook deliveries by outcome",
        },
        []string{"result"},
    )

    compatibilityScores = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "matching_compatibility_scores",
            Help:    "Distribution of computed compatibility scores",
            Buckets: prometheus.LinearBuckets(0, 10, 11),
        },
    )

    httpRequests = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "http_requests_total",
            Help: "HTTP requests by method and status code",
        },
        []string{"method", "status"},
    )
)

func Transfer(result string) {
    superlikeTransfers.WithLabelValues(result).Inc()
}

func Withdrawal(result string) {
    superlikeWithdrawals.WithLabelValues(result).Inc()
}

// TopUp counts a job reaching status (pending, completed, failed, expired)
func TopUp(status string, n int) {
    superlikeTopUps.WithLabelValues(status).Add(float64(n))
}

// ObserveGateway records one STK push round trip
func ObserveGateway(start time.Time, err error) {
    result := ResultSuccess
    if err != nil {
        result = ResultError
    }
    gatewayDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

func Callback(result string) {
    callbacks.WithLabelValues(result).Inc()
}

func CompatibilityScore(score float64) {
    compatibilityScores.Observe(score)
}

func HTTPRequest(method string, status int) {
    httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
