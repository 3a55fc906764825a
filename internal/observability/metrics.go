// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsReceived     prometheus.Counter
	EventsFiltered     prometheus.Counter
	EventsDeduplicated prometheus.Counter
	EventsPassed       prometheus.Counter

	// Resolution metrics
	TokensResolved     prometheus.Counter
	ResolveFailures    *prometheus.CounterVec
	ResolveLatency     prometheus.Histogram
	EnrichmentFailures *prometheus.CounterVec

	// Decision metrics
	Evaluations *prometheus.CounterVec

	// Execution metrics
	BuysSubmitted   prometheus.Counter
	BuysConfirmed   prometheus.Counter
	BuysUnconfirmed prometheus.Counter
	BuysFailed      prometheus.Counter
	SellsByReason   *prometheus.CounterVec
	SellFailures    prometheus.Counter
	ConfirmLatency  prometheus.Histogram

	// State metrics
	OpenHoldings      prometheus.Gauge
	LiveSubscriptions prometheus.Gauge
	HealthyEndpoints  prometheus.Gauge
	PriceCacheSize    prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_received_total",
			Help:      "Total number of log notifications received",
		}),
		EventsFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_filtered_total",
			Help:      "Total number of events rejected by the creation marker filter",
		}),
		EventsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_deduplicated_total",
			Help:      "Total number of duplicate signatures dropped",
		}),
		EventsPassed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_passed_total",
			Help:      "Total number of events passed to resolution",
		}),

		TokensResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "tokens_resolved_total",
			Help:      "Total number of creation transactions resolved to candidates",
		}),
		ResolveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "failures_total",
			Help:      "Total number of resolution failures by error type",
		}, []string{"error_type"}),
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "latency_seconds",
			Help:      "Detection-to-candidate resolution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		EnrichmentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "failures_total",
			Help:      "Total number of enrichment failures by stage",
		}, []string{"stage"}),

		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluate",
			Name:      "decisions_total",
			Help:      "Total number of evaluation decisions by outcome",
		}, []string{"outcome"}),

		BuysSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "buys_submitted_total",
			Help:      "Total number of buy transactions submitted",
		}),
		BuysConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "buys_confirmed_total",
			Help:      "Total number of buy transactions confirmed",
		}),
		BuysUnconfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "buys_unconfirmed_total",
			Help:      "Total number of buys whose confirmation timed out",
		}),
		BuysFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "buys_failed_total",
			Help:      "Total number of buy transactions that failed",
		}),
		SellsByReason: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "sells_total",
			Help:      "Total number of sells by exit reason",
		}, []string{"reason"}),
		SellFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "sell_failures_total",
			Help:      "Total number of sell attempts that failed",
		}),
		ConfirmLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execute",
			Name:      "confirm_latency_seconds",
			Help:      "Submission-to-confirmation latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),

		OpenHoldings: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open_holdings",
			Help:      "Current number of open holdings",
		}),
		LiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "live_subscriptions",
			Help:      "Current number of live log subscriptions",
		}),
		HealthyEndpoints: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "healthy_endpoints",
			Help:      "Current number of RPC endpoints below the failure threshold",
		}),
		PriceCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "cache_size",
			Help:      "Current number of entries in the price cache",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventReceived increments the events received counter.
func RecordEventReceived() {
	DefaultMetrics.EventsReceived.Inc()
}

// RecordEventFiltered increments the filtered events counter.
func RecordEventFiltered() {
	DefaultMetrics.EventsFiltered.Inc()
}

// RecordDuplicate increments the deduplicated events counter.
func RecordDuplicate() {
	DefaultMetrics.EventsDeduplicated.Inc()
}

// RecordEventPassed increments the passed events counter.
func RecordEventPassed() {
	DefaultMetrics.EventsPassed.Inc()
}

// RecordTokenResolved increments the resolved tokens counter and
// observes the detection-to-candidate latency.
func RecordTokenResolved(latencySeconds float64) {
	DefaultMetrics.TokensResolved.Inc()
	DefaultMetrics.ResolveLatency.Observe(latencySeconds)
}

// RecordResolveFailure records a resolution failure by error type.
func RecordResolveFailure(errorType string) {
	DefaultMetrics.ResolveFailures.WithLabelValues(errorType).Inc()
}

// RecordEnrichmentFailure records an enrichment failure by stage.
func RecordEnrichmentFailure(stage string) {
	DefaultMetrics.EnrichmentFailures.WithLabelValues(stage).Inc()
}

// RecordEvaluation records an evaluation decision.
func RecordEvaluation(outcome string) {
	DefaultMetrics.Evaluations.WithLabelValues(outcome).Inc()
}

// RecordBuySubmitted increments the submitted buys counter.
func RecordBuySubmitted() {
	DefaultMetrics.BuysSubmitted.Inc()
}

// RecordBuyConfirmed increments the confirmed buys counter and
// observes the submission-to-confirmation latency.
func RecordBuyConfirmed(latencySeconds float64) {
	DefaultMetrics.BuysConfirmed.Inc()
	DefaultMetrics.ConfirmLatency.Observe(latencySeconds)
}

// RecordBuyUnconfirmed increments the unconfirmed buys counter.
func RecordBuyUnconfirmed() {
	DefaultMetrics.BuysUnconfirmed.Inc()
}

// RecordBuyFailed increments the failed buys counter.
func RecordBuyFailed() {
	DefaultMetrics.BuysFailed.Inc()
}

// RecordSell records a sell by exit reason.
func RecordSell(reason string) {
	DefaultMetrics.SellsByReason.WithLabelValues(reason).Inc()
}

// RecordSellFailure increments the failed sells counter.
func RecordSellFailure() {
	DefaultMetrics.SellFailures.Inc()
}

// UpdateOpenHoldings sets the open holdings gauge.
func UpdateOpenHoldings(n int) {
	DefaultMetrics.OpenHoldings.Set(float64(n))
}

// UpdateLiveSubscriptions sets the live subscriptions gauge.
func UpdateLiveSubscriptions(n int) {
	DefaultMetrics.LiveSubscriptions.Set(float64(n))
}

// IncLiveSubscriptions marks one subscription as live again.
func IncLiveSubscriptions() {
	DefaultMetrics.LiveSubscriptions.Inc()
}

// DecLiveSubscriptions marks one subscription as disconnected.
func DecLiveSubscriptions() {
	DefaultMetrics.LiveSubscriptions.Dec()
}

// UpdateHealthyEndpoints sets the healthy endpoints gauge.
func UpdateHealthyEndpoints(n int) {
	DefaultMetrics.HealthyEndpoints.Set(float64(n))
}

// UpdatePriceCacheSize sets the price cache size gauge.
func UpdatePriceCacheSize(n int) {
	DefaultMetrics.PriceCacheSize.Set(float64(n))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
