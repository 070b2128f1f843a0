// Package metrics registers the Prometheus metric sets used across the
// session, OTP, scoring, dispatcher and worker subsystems. Exposition itself
// (the /metrics HTTP handler) is out of scope per spec.md §1; only the
// metric objects live here, grounded on the teacher's
// internal/platform/metrics and internal/ratelimit/metrics packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric the application registers.
type Metrics struct {
	UsersCreated     prometheus.Counter
	ActiveSessions   prometheus.Gauge
	TokenRequests    prometheus.Counter
	AuthFailures     prometheus.Counter
	SessionValidations *prometheus.CounterVec
	EndpointLatency  *prometheus.HistogramVec

	OTPSent        prometheus.Counter
	OTPVerified    prometheus.Counter
	OTPFailures    *prometheus.CounterVec
	FraudSignals   *prometheus.CounterVec

	QueueDepth        *prometheus.GaugeVec
	JobsPublished     prometheus.Counter
	JobsProcessed     *prometheus.CounterVec
	ScoringDuration   prometheus.Histogram
	JobRetries        prometheus.Counter
	JobsDeadLettered  prometheus.Counter
}

// New creates and registers every metric. Call once per process.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_users_created_total",
			Help: "Total number of users created on first successful OTP verification",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worldcup_predict_active_sessions",
			Help: "Current number of non-expired sessions",
		}),
		TokenRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_token_requests_total",
			Help: "Total number of access-token refresh requests",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_auth_failures_total",
			Help: "Total number of failed session validations",
		}),
		SessionValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_predict_session_validations_total",
			Help: "Session validation attempts by path (cache_hit, db_fallback, miss)",
		}, []string{"path"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worldcup_predict_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		OTPSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_otp_sent_total",
			Help: "Total number of OTP codes dispatched",
		}),
		OTPVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_otp_verified_total",
			Help: "Total number of successful OTP verifications",
		}),
		OTPFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_predict_otp_failures_total",
			Help: "OTP failures by reason code",
		}, []string{"reason"}),
		FraudSignals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_predict_fraud_signals_total",
			Help: "Fraud signals emitted by kind",
		}, []string{"kind"}),

		QueueDepth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worldcup_predict_queue_depth",
			Help: "Best-effort queue depth by queue name",
		}, []string{"queue"}),
		JobsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_scoring_jobs_published_total",
			Help: "Total number of scoring jobs published by the dispatcher",
		}),
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_predict_scoring_jobs_processed_total",
			Help: "Total number of scoring jobs processed by outcome",
		}, []string{"outcome"}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldcup_predict_scoring_duration_seconds",
			Help:    "Duration of a single scoring job end to end",
			Buckets: prometheus.DefBuckets,
		}),
		JobRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_scoring_job_retries_total",
			Help: "Total number of scoring job republishes due to handler error",
		}),
		JobsDeadLettered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldcup_predict_scoring_jobs_dead_lettered_total",
			Help: "Total number of scoring jobs routed to the dead-letter queue",
		}),
	}
}

func (m *Metrics) IncrementUsersCreated()                    { m.UsersCreated.Inc() }
func (m *Metrics) IncrementActiveSessions(count int)         { m.ActiveSessions.Add(float64(count)) }
func (m *Metrics) DecrementActiveSessions(count int)         { m.ActiveSessions.Sub(float64(count)) }
func (m *Metrics) IncrementTokenRequests()                   { m.TokenRequests.Inc() }
func (m *Metrics) IncrementAuthFailures()                     { m.AuthFailures.Inc() }
func (m *Metrics) RecordSessionValidation(path string)        { m.SessionValidations.WithLabelValues(path).Inc() }
func (m *Metrics) ObserveEndpointLatency(endpoint string, seconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) IncrementOTPSent()     { m.OTPSent.Inc() }
func (m *Metrics) IncrementOTPVerified() { m.OTPVerified.Inc() }
func (m *Metrics) RecordOTPFailure(reason string) { m.OTPFailures.WithLabelValues(reason).Inc() }
func (m *Metrics) RecordFraudSignal(kind string)  { m.FraudSignals.WithLabelValues(kind).Inc() }

func (m *Metrics) SetQueueDepth(queue string, depth float64) { m.QueueDepth.WithLabelValues(queue).Set(depth) }
func (m *Metrics) IncrementJobsPublished()                   { m.JobsPublished.Inc() }
func (m *Metrics) RecordJobOutcome(outcome string)            { m.JobsProcessed.WithLabelValues(outcome).Inc() }
func (m *Metrics) ObserveScoringDuration(seconds float64)      { m.ScoringDuration.Observe(seconds) }
func (m *Metrics) IncrementJobRetries()                        { m.JobRetries.Inc() }
func (m *Metrics) IncrementJobsDeadLettered()                   { m.JobsDeadLettered.Inc() }
