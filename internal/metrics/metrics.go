// Package metrics счётчики Prometheus для доверия, escrow и споров.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type MarketplaceMetrics struct {
	trustRecomputations  *prometheus.CounterVec
	trustOverrides       prometheus.Counter
	verificationRequests *prometheus.CounterVec
	escrowTransitions    *prometheus.CounterVec
	disputeTransitions   *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	httpRequests         *prometheus.HistogramVec
}

var (
	marketplaceOnce     sync.Once
	marketplaceRegistry *MarketplaceMetrics
)

// Marketplace возвращает метрики, зарегистрированные в DefaultRegisterer.
func Marketplace() *MarketplaceMetrics {
	marketplaceOnce.Do(func() {
		marketplaceRegistry = New(prometheus.DefaultRegisterer)
	})
	return marketplaceRegistry
}

// New создаёт набор метрик и регистрирует его в reg. Для тестов удобно передавать
// отдельный prometheus.NewRegistry().
func New(reg prometheus.Registerer) *MarketplaceMetrics {
	m := &MarketplaceMetrics{
		trustRecomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beatmarket_trust_recomputations_total",
			Help: "Trust score recomputations by resulting badge.",
		}, []string{"badge"}),
		trustOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beatmarket_trust_overrides_total",
			Help: "Manual trust overrides applied by administrators.",
		}),
		verificationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beatmarket_verification_requests_total",
			Help: "PRO verification requests by status change.",
		}, []string{"status"}),
		escrowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beatmarket_escrow_transitions_total",
			Help: "Escrow terminal transitions by action and actor kind.",
		}, []string{"action", "actor"}),
		disputeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beatmarket_dispute_transitions_total",
			Help: "Dispute status changes by target status.",
		}, []string{"status"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beatmarket_notification_failures_total",
			Help: "Failed best-effort notification deliveries by sink.",
		}, []string{"sink"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beatmarket_http_request_duration_seconds",
			Help:    "HTTP request latency by route template and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.trustRecomputations,
			m.trustOverrides,
			m.verificationRequests,
			m.escrowTransitions,
			m.disputeTransitions,
			m.notificationFailures,
			m.httpRequests,
		)
	}
	return m
}

func (m *MarketplaceMetrics) ObserveTrustRecomputation(badge string) {
	if m == nil {
		return
	}
	m.trustRecomputations.WithLabelValues(labelOrUnknown(badge)).Inc()
}

func (m *MarketplaceMetrics) ObserveTrustOverride() {
	if m == nil {
		return
	}
	m.trustOverrides.Inc()
}

func (m *MarketplaceMetrics) ObserveVerificationRequest(status string) {
	if m == nil {
		return
	}
	m.verificationRequests.WithLabelValues(labelOrUnknown(status)).Inc()
}

func (m *MarketplaceMetrics) ObserveEscrowTransition(action, actor string) {
	if m == nil {
		return
	}
	m.escrowTransitions.WithLabelValues(labelOrUnknown(action), labelOrUnknown(actor)).Inc()
}

func (m *MarketplaceMetrics) ObserveDisputeTransition(status string) {
	if m == nil {
		return
	}
	m.disputeTransitions.WithLabelValues(labelOrUnknown(status)).Inc()
}

func (m *MarketplaceMetrics) ObserveNotificationFailure(sink string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(labelOrUnknown(sink)).Inc()
}

// ObserveHTTPRequest route это шаблон маршрута gin, а не фактический путь.
func (m *MarketplaceMetrics) ObserveHTTPRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, labelOrUnknown(route), strconv.Itoa(status)).Observe(seconds)
}

// Accessors для тестов.

func (m *MarketplaceMetrics) EscrowTransitionsVec() *prometheus.CounterVec   { return m.escrowTransitions }
func (m *MarketplaceMetrics) TrustRecomputationsVec() *prometheus.CounterVec { return m.trustRecomputations }
func (m *MarketplaceMetrics) TrustOverridesCounter() prometheus.Counter      { return m.trustOverrides }
func (m *MarketplaceMetrics) NotificationFailuresVec() *prometheus.CounterVec {
	return m.notificationFailures
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
