package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TokenFetches       *prometheus.CounterVec
	UpstreamLatency    *prometheus.HistogramVec
	Verifications      *prometheus.CounterVec
	Revocations        *prometheus.CounterVec
	Issuances          *prometheus.CounterVec
	StateConsumes      *prometheus.CounterVec
	VerificationEvents *prometheus.CounterVec
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokenFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_upstream_token_fetches_total",
			Help: "Token endpoint calls by upstream, client auth scheme and outcome",
		}, []string{"upstream", "scheme", "outcome"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provenance_upstream_request_duration_seconds",
			Help:    "Latency of upstream API calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream", "operation", "outcome"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_credential_verifications_total",
			Help: "Reconciled verifications by credential type and result",
		}, []string{"type", "verified"}),
		Revocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_credential_revocations_total",
			Help: "Revocation attempts by outcome",
		}, []string{"outcome"}),
		Issuances: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_credential_issuances_total",
			Help: "Issuance attempts by credential type and outcome",
		}, []string{"type", "outcome"}),
		StateConsumes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_oauth_state_consumes_total",
			Help: "Authorization state lookups on callback by result",
		}, []string{"result"}),
		VerificationEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_verification_events_published_total",
			Help: "Verification events published to Kafka by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveTokenFetch(upstream, scheme, outcome string) {
	if m == nil {
		return
	}
	m.TokenFetches.WithLabelValues(upstream, scheme, outcome).Inc()
}

func (m *Metrics) ObserveUpstream(upstream, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamLatency.WithLabelValues(upstream, operation, outcome).Observe(d.Seconds())
}

func (m *Metrics) IncVerification(credentialType string, verified bool) {
	if m == nil {
		return
	}
	v := "false"
	if verified {
		v = "true"
	}
	m.Verifications.WithLabelValues(credentialType, v).Inc()
}

func (m *Metrics) IncRevocation(outcome string) {
	if m == nil {
		return
	}
	m.Revocations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncIssuance(credentialType, outcome string) {
	if m == nil {
		return
	}
	m.Issuances.WithLabelValues(credentialType, outcome).Inc()
}

func (m *Metrics) IncStateConsume(result string) {
	if m == nil {
		return
	}
	m.StateConsumes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncVerificationEvent(outcome string) {
	if m == nil {
		return
	}
	m.VerificationEvents.WithLabelValues(outcome).Inc()
}
