// Package telemetry (imported as "metrics" throughout the host) collects
// both a lightweight in-process request log (Record/List) and the
// Prometheus series an operator scrapes: transactions posted/rolled back,
// pockets held per account, imbalance outstanding, and exchange-rate
// provider latency.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestMetric stores basic information about an HTTP request.
type RequestMetric struct {
	Endpoint string
	Status   int
	Duration time.Duration
}

var (
	mu         sync.Mutex
	metricList []RequestMetric
)

// Record adds a new metric entry in a thread-safe way.
func Record(endpoint string, status int, duration time.Duration) {
	mu.Lock()
	metricList = append(metricList, RequestMetric{Endpoint: endpoint, Status: status, Duration: duration})
	mu.Unlock()
}

// List returns a copy of the collected metrics.
func List() []RequestMetric {
	mu.Lock()
	defer mu.Unlock()
	copied := make([]RequestMetric, len(metricList))
	copy(copied, metricList)
	return copied
}

// Prometheus metrics for HTTP requests.
var (
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Prometheus metrics for the ledger domain.
var (
	// TransactionsPostedTotal counts successful Transaction.create calls.
	TransactionsPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transactions_posted_total",
			Help: "Total number of transactions committed",
		},
	)

	// TransactionsRolledBackTotal counts transactions that failed and were
	// fully unwound.
	TransactionsRolledBackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_rolled_back_total",
			Help: "Total number of transactions that rolled back, by kernel error kind",
		},
		[]string{"kind"},
	)

	// ExchangeReconciliationsTotal counts synthetic gain/loss splits booked.
	ExchangeReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_exchange_reconciliations_total",
			Help: "Total number of synthetic exchange gain/loss splits booked",
		},
		[]string{"direction"}, // gain, loss
	)

	// ExchangeRateLatency times calls to the rate provider.
	ExchangeRateLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_exchange_rate_provider_seconds",
			Help:    "Latency of exchange rate provider calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PocketsPerAccount reports the number of open pockets on an account
	// after a mutation; a proxy for FIFO queue depth.
	PocketsPerAccount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_account_pockets",
			Help: "Number of open pockets on an account",
		},
		[]string{"account_id"},
	)

	// ImbalanceGauge reports an account's outstanding imbalance.
	ImbalanceGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_account_imbalance",
			Help: "Outstanding (uncovered) imbalance on an account",
		},
		[]string{"account_id"},
	)

	// AccountBalancesHistogram tracks the distribution of account balances
	// in profile-currency cost basis.
	AccountBalancesHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_account_profile_balances",
			Help:    "Distribution of account profile-currency balances",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)
)

// Event publishing health, used by the async Kafka producer.
var (
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_dropped_total",
			Help: "Total number of domain events dropped before publish",
		},
		[]string{"reason"},
	)

	EventPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Total number of domain event publish errors",
		},
		[]string{"reason"},
	)
)

// RecordTransactionPosted records a successful transaction commit.
func RecordTransactionPosted() {
	TransactionsPostedTotal.Inc()
}

// RecordTransactionRolledBack records a rolled-back transaction by the
// kernelerr.Kind string that caused it.
func RecordTransactionRolledBack(kind string) {
	TransactionsRolledBackTotal.WithLabelValues(kind).Inc()
}

// RecordExchangeReconciliation records a synthetic gain/loss split.
func RecordExchangeReconciliation(direction string) {
	ExchangeReconciliationsTotal.WithLabelValues(direction).Inc()
}

// RecordExchangeRateLatency observes a rate-provider call's duration.
func RecordExchangeRateLatency(d time.Duration) {
	ExchangeRateLatency.Observe(d.Seconds())
}

// RecordAccountState updates the per-account gauges after a mutation.
func RecordAccountState(accountID string, pocketCount int, imbalance float64) {
	PocketsPerAccount.WithLabelValues(accountID).Set(float64(pocketCount))
	ImbalanceGauge.WithLabelValues(accountID).Set(imbalance)
}

// RecordAccountBalance records a profile-currency balance observation.
func RecordAccountBalance(balance float64) {
	AccountBalancesHistogram.Observe(balance)
}

// RecordEventDropped records an event dropped before publish, e.g. because
// the producer's queue was full.
func RecordEventDropped(reason string) {
	EventsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordEventPublishingError records a publish failure.
func RecordEventPublishingError(reason string) {
	EventPublishErrorsTotal.WithLabelValues(reason).Inc()
}
