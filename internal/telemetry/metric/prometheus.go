// Package metric provides Prometheus metrics for LinkGate.
//
// It exposes metrics in Prometheus format for monitoring
// link counts, gate decisions, challenge flow, and request latencies.
package metric

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkgate"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Link metrics
	LinksActive  prometheus.Gauge
	LinksIssued  prometheus.Counter
	LinksSwept   prometheus.Counter
	GateDecision *prometheus.CounterVec

	// Challenge metrics
	ChallengesIssued prometheus.Counter
	ChallengeChecks  *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthCacheHits   prometheus.Counter
	AuthCacheMisses prometheus.Counter
	AuthFailures    *prometheus.CounterVec
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the /metrics endpoint of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus every LinkGate metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		LinksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links_active",
			Help:      "Number of live links in the store.",
		}),
		LinksIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_issued_total",
			Help:      "Total number of links issued.",
		}),
		LinksSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_swept_total",
			Help:      "Total number of expired links removed by the sweeper.",
		}),
		GateDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Access decisions by outcome and client category.",
		}, []string{"outcome", "category"}),
		ChallengesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_issued_total",
			Help:      "Total number of verification codes issued.",
		}),
		ChallengeChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_checks_total",
			Help:      "Verification code checks by result.",
		}, []string{"result"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Out-of-band code deliveries by result.",
		}, []string{"result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"route", "method"}),
		AuthCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_cache_hits_total",
			Help:      "Issuer key validations served from cache.",
		}),
		AuthCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_cache_misses_total",
			Help:      "Issuer key validations that required a full hash check.",
		}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Issuer authentication failures by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		r.LinksActive,
		r.LinksIssued,
		r.LinksSwept,
		r.GateDecision,
		r.ChallengesIssued,
		r.ChallengeChecks,
		r.Deliveries,
		r.RequestsTotal,
		r.RequestDuration,
		r.AuthCacheHits,
		r.AuthCacheMisses,
		r.AuthFailures,
	)
	return r
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// MustRegister adds extra collectors to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// ============================================================================
// Service recorder
// ============================================================================

// RecordLinkIssued counts an issued link.
func (r *Registry) RecordLinkIssued() { r.LinksIssued.Inc() }

// RecordAccessDecision counts a gatekeeper decision.
func (r *Registry) RecordAccessDecision(outcome, category string) {
	if category == "" {
		category = "none"
	}
	r.GateDecision.WithLabelValues(outcome, category).Inc()
}

// RecordChallengeIssued counts an issued verification code.
func (r *Registry) RecordChallengeIssued() { r.ChallengesIssued.Inc() }

// RecordChallengeCheck counts a code check by result.
func (r *Registry) RecordChallengeCheck(result string) {
	r.ChallengeChecks.WithLabelValues(result).Inc()
}

// RecordDelivery counts a delivery attempt by result.
func (r *Registry) RecordDelivery(result string) { r.Deliveries.WithLabelValues(result).Inc() }

// AddLinksSwept adds n swept links.
func (r *Registry) AddLinksSwept(n int) {
	if n > 0 {
		r.LinksSwept.Add(float64(n))
	}
}

// SetLinksActive sets the live link gauge.
func (r *Registry) SetLinksActive(n int) { r.LinksActive.Set(float64(n)) }

// ============================================================================
// HTTP and auth
// ============================================================================

// RecordRequest counts one HTTP request.
func (r *Registry) RecordRequest(route, method string, status int) {
	r.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// ObserveRequestDuration records request latency in seconds.
func (r *Registry) ObserveRequestDuration(route, method string, seconds float64) {
	r.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}

// IncAuthCacheHit counts a cached issuer key validation.
func (r *Registry) IncAuthCacheHit() { r.AuthCacheHits.Inc() }

// IncAuthCacheMiss counts an uncached issuer key validation.
func (r *Registry) IncAuthCacheMiss() { r.AuthCacheMisses.Inc() }

// RecordAuthFailure counts an authentication failure.
func (r *Registry) RecordAuthFailure(reason string) {
	r.AuthFailures.WithLabelValues(reason).Inc()
}
