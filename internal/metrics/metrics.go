// Package metrics provides Prometheus metrics for the conversation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classifier outcome tiers.
const (
	TierEmpty      = "empty_input"
	TierStructured = "structured"
	TierRepaired   = "repaired"
	TierNoResponse = "no_response"
	TierFailure    = "failure"
)

// Reply outcomes.
const (
	ReplyOK          = "ok"
	ReplyEmptyInput  = "empty_input"
	ReplyNoResponse  = "no_response"
	ReplyUnavailable = "unavailable"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TurnsTotal           *prometheus.CounterVec
	SentimentLabelsTotal *prometheus.CounterVec
	ClassifierOutcomes   *prometheus.CounterVec
	ReplyOutcomes        *prometheus.CounterVec
	GenerationDuration   *prometheus.HistogramVec
	TurnDuration         prometheus.Histogram
	PersistFailuresTotal prometheus.Counter
	ActiveConversations  prometheus.Gauge
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentichat_turns_total",
				Help: "Turns appended to conversations by role",
			},
			[]string{"role"},
		),
		SentimentLabelsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentichat_sentiment_labels_total",
				Help: "Sentiment labels assigned to user turns",
			},
			[]string{"label"},
		),
		ClassifierOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentichat_classifier_outcomes_total",
				Help: "Sentiment classifier results by degrade tier",
			},
			[]string{"tier"},
		),
		ReplyOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentichat_reply_outcomes_total",
				Help: "Reply composer results by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentichat_generation_duration_seconds",
				Help:    "Duration of text generation calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"caller"},
		),
		TurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentichat_turn_duration_seconds",
				Help:    "Duration of a full classify-compose-persist turn",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		PersistFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentichat_persist_failures_total",
				Help: "Session persistence failures",
			},
		),
		ActiveConversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentichat_active_conversations",
				Help: "Conversations currently held in memory",
			},
		),
	}
}

// RecordTurn counts an appended turn.
func (m *Metrics) RecordTurn(role string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(role).Inc()
}

// RecordSentiment counts a sentiment label.
func (m *Metrics) RecordSentiment(label string) {
	if m == nil {
		return
	}
	m.SentimentLabelsTotal.WithLabelValues(label).Inc()
}

// RecordClassifierOutcome counts a classifier result tier.
func (m *Metrics) RecordClassifierOutcome(tier string) {
	if m == nil {
		return
	}
	m.ClassifierOutcomes.WithLabelValues(tier).Inc()
}

// RecordReplyOutcome counts a composer result.
func (m *Metrics) RecordReplyOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ReplyOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the duration of one producer call.
func (m *Metrics) ObserveGeneration(caller string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.WithLabelValues(caller).Observe(d.Seconds())
}

// ObserveTurn records the duration of a full turn.
func (m *Metrics) ObserveTurn(d time.Duration) {
	if m == nil {
		return
	}
	m.TurnDuration.Observe(d.Seconds())
}

// RecordPersistFailure counts a failed session write.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.Inc()
}

// SetActiveConversations updates the in-memory conversation gauge.
func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ActiveConversations.Set(float64(n))
}
