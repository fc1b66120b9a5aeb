package files

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels recorded by Metrics.
const (
	outcomeAccepted   = "accepted"
	outcomeInvalid    = "invalid"
	outcomeBusy       = "busy"
	outcomeStoreError = "store_error"

	outcomeUploaded     = "uploaded"
	outcomeFailed       = "failed"
	outcomeSuperseded   = "superseded"
	outcomeSettleFailed = "settle_failed"

	outcomePublished = "published"
)

// Metrics instruments the ingestion pipeline.
type Metrics struct {
	registrations *prometheus.CounterVec
	transfers     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	inFlight      prometheus.Gauge
	duration      prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "registrations_total",
			Help:      "Upload registrations by outcome.",
		}, []string{"outcome"}),
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "transfers_total",
			Help:      "Background transfers by outcome.",
		}, []string{"outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "notifications_total",
			Help:      "Classification requests by outcome.",
		}, []string{"outcome"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "intake",
			Name:      "transfers_in_flight",
			Help:      "Transfers currently executing.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "transfer_duration_seconds",
			Help:      "Time from transfer start to settle.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (m *Metrics) registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) transferStarted() time.Time {
	m.inFlight.Inc()
	return time.Now()
}

func (m *Metrics) transferSettled(start time.Time, outcome string) {
	m.inFlight.Dec()
	m.duration.Observe(time.Since(start).Seconds())
	m.transfers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) notification(outcome string) {
	m.notifications.WithLabelValues(outcome).Inc()
}
