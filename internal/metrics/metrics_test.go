package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordTurn("user")
	m.RecordTurn("user")
	m.RecordSentiment("negative")
	m.RecordClassifierOutcome(TierRepaired)
	m.RecordPersistFailure()
	m.SetActiveConversations(3)
	m.ObserveTurn(150 * time.Millisecond)

	if got := testutil.ToFloat64(m.TurnsTotal.WithLabelValues("user")); got != 2 {
		t.Fatalf("expected 2 user turns, got %v", got)
	}
	if got := testutil.ToFloat64(m.SentimentLabelsTotal.WithLabelValues("negative")); got != 1 {
		t.Fatalf("expected 1 negative label, got %v", got)
	}
	if got := testutil.ToFloat64(m.ClassifierOutcomes.WithLabelValues(TierRepaired)); got != 1 {
		t.Fatalf("expected 1 repaired outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.PersistFailuresTotal); got != 1 {
		t.Fatalf("expected 1 persist failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveConversations); got != 3 {
		t.Fatalf("expected 3 active conversations, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordTurn("user")
	m.RecordSentiment("positive")
	m.RecordClassifierOutcome(TierFailure)
	m.RecordReplyOutcome(ReplyOK)
	m.ObserveGeneration("classifier", time.Second)
	m.ObserveTurn(time.Second)
	m.RecordPersistFailure()
	m.SetActiveConversations(1)
}
