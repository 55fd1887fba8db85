package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	analysis "github.com/zhouzirui/sentichat/internal/analysis/sentiment"
	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/service/ai"
)

// Classifier labels user utterances by asking a Generator for a JSON judgment. It never fails:
// every error path ends in a well-formed neutral-leaning Sentiment.
type Classifier struct {
	generator ai.Generator
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// NewClassifier creates a classifier. A nil generator is a startup error.
func NewClassifier(generator ai.Generator, log zerolog.Logger, m *metrics.Metrics) (*Classifier, error) {
	if generator == nil {
		return nil, fmt.Errorf("sentiment classifier: %w", ai.ErrProducerUnavailable)
	}
	return &Classifier{
		generator: generator,
		log:       log.With().Str("component", "classifier").Logger(),
		metrics:   m,
	}, nil
}

// Classify returns the sentiment of text. An empty text is answered without calling the producer.
func (c *Classifier) Classify(ctx context.Context, text string) (result chat.Sentiment) {
	if text == "" {
		c.metrics.RecordClassifierOutcome(metrics.TierEmpty)
		return analysis.EmptyInput()
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("classification panicked")
			c.metrics.RecordClassifierOutcome(metrics.TierFailure)
			result = analysis.Failure(fmt.Errorf("%v", r))
		}
	}()

	start := time.Now()
	raw, err := c.generator.Generate(ctx, BuildPrompt(text))
	c.metrics.ObserveGeneration("classifier", time.Since(start))
	if err != nil {
		c.log.Warn().Err(err).Msg("producer call failed")
		c.metrics.RecordClassifierOutcome(metrics.TierFailure)
		return analysis.Failure(err)
	}
	if strings.TrimSpace(raw) == "" {
		c.log.Warn().Msg("producer returned empty response")
		c.metrics.RecordClassifierOutcome(metrics.TierNoResponse)
		return analysis.NoResponse()
	}

	result, tier := analysis.ParseWithTier(raw)
	switch tier {
	case analysis.TierRepaired:
		c.log.Warn().Str("raw", preview(raw, 200)).Msg("classifier output was not a JSON object, used keyword scan")
		c.metrics.RecordClassifierOutcome(metrics.TierRepaired)
	default:
		c.metrics.RecordClassifierOutcome(metrics.TierStructured)
	}

	c.log.Debug().
		Str("label", string(result.Label)).
		Str("emotion", result.Emotion).
		Float64("confidence", result.Confidence).
		Msg("utterance classified")
	return result
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
