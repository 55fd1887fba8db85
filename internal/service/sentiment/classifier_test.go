package sentiment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	analysis "github.com/zhouzirui/sentichat/internal/analysis/sentiment"
	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/service/ai"
)

type stubGenerator struct {
	reply   string
	err     error
	panicV  any
	calls   int
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.panicV != nil {
		panic(s.panicV)
	}
	return s.reply, s.err
}

func newClassifier(t *testing.T, gen ai.Generator) (*Classifier, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	c, err := NewClassifier(gen, zerolog.Nop(), m)
	if err != nil {
		t.Fatalf("NewClassifier err: %v", err)
	}
	return c, m
}

func TestClassifyEmptyInputSkipsProducer(t *testing.T) {
	gen := &stubGenerator{reply: `{"sentiment":"positive"}`}
	c, _ := newClassifier(t, gen)

	got := c.Classify(context.Background(), "")

	if gen.calls != 0 {
		t.Fatalf("expected no producer calls, got %d", gen.calls)
	}
	if got != analysis.EmptyInput() {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestClassifyStructuredOutput(t *testing.T) {
	gen := &stubGenerator{reply: `{"sentiment":"negative","confidence":0.8,"emotion":"angry","explanation":"Frustration."}`}
	c, m := newClassifier(t, gen)

	got := c.Classify(context.Background(), "I'm so frustrated with this situation.")

	want := chat.Sentiment{Label: chat.Negative, Confidence: 0.8, Emotion: "angry", Explanation: "Frustration."}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if n := testutil.ToFloat64(m.ClassifierOutcomes.WithLabelValues(metrics.TierStructured)); n != 1 {
		t.Fatalf("expected structured outcome recorded, got %v", n)
	}
}

func TestClassifyPromptContents(t *testing.T) {
	gen := &stubGenerator{reply: `{}`}
	c, _ := newClassifier(t, gen)

	c.Classify(context.Background(), "what a day")

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	for _, want := range []string{`"what a day"`, "sentiment", "confidence", "emotion", "explanation", "Return ONLY the JSON object"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestClassifyEmptyResponse(t *testing.T) {
	gen := &stubGenerator{reply: "   "}
	c, _ := newClassifier(t, gen)

	got := c.Classify(context.Background(), "hello")

	if got != analysis.NoResponse() {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestClassifyProducerError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection reset")}
	c, _ := newClassifier(t, gen)

	got := c.Classify(context.Background(), "hello")

	if got.Label != chat.Neutral || got.Confidence != 0 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.Explanation != "Error: connection reset" {
		t.Fatalf("unexpected explanation %q", got.Explanation)
	}
}

func TestClassifyRecoversPanic(t *testing.T) {
	gen := &stubGenerator{panicV: "nil map write"}
	c, m := newClassifier(t, gen)

	got := c.Classify(context.Background(), "hello")

	if got.Label != chat.Neutral || got.Confidence != 0 || got.Explanation != "Error: nil map write" {
		t.Fatalf("unexpected result %+v", got)
	}
	if n := testutil.ToFloat64(m.ClassifierOutcomes.WithLabelValues(metrics.TierFailure)); n != 1 {
		t.Fatalf("expected failure outcome recorded, got %v", n)
	}
}

func TestClassifyUnparsableOutput(t *testing.T) {
	raw := "I'd say this is negative, the writer seems furious."
	gen := &stubGenerator{reply: raw}
	c, _ := newClassifier(t, gen)

	got := c.Classify(context.Background(), "ugh")

	if got.Label != chat.Negative || got.Emotion != "angry" || got.Confidence != 0.5 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.RawResponse != raw {
		t.Fatalf("expected raw response kept, got %q", got.RawResponse)
	}
}

func TestNewClassifierRequiresGenerator(t *testing.T) {
	if _, err := NewClassifier(nil, zerolog.Nop(), nil); !errors.Is(err, ai.ErrProducerUnavailable) {
		t.Fatalf("expected ErrProducerUnavailable, got %v", err)
	}
}

func TestPromptIncludesSchema(t *testing.T) {
	prompt := BuildPrompt("x")
	if !strings.Contains(prompt, `"enum"`) {
		t.Fatalf("expected schema enum in prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "github.com") {
		t.Fatalf("schema should not leak package ids:\n%s", prompt)
	}
}
