package reply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/model/persona"
	"github.com/zhouzirui/sentichat/internal/service/ai"
)

// Fixed replies for the degraded paths.
const (
	ClarificationReply = "I didn't catch that. Could you please say something?"
	ProcessingReply    = "I'm having trouble processing that right now. Could you try saying that differently?"
	ConnectionReply    = "I'm having trouble connecting right now. Please try again in a moment."
)

// HistoryLimit is the number of trailing history entries rendered into the prompt.
const HistoryLimit = 10

// Composer writes sentiment-aware replies. It never fails: producer problems turn into one of
// the fixed replies above.
type Composer struct {
	generator ai.Generator
	persona   persona.Persona
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// NewComposer creates a composer speaking as p. A nil generator is a startup error.
func NewComposer(generator ai.Generator, p persona.Persona, log zerolog.Logger, m *metrics.Metrics) (*Composer, error) {
	if generator == nil {
		return nil, fmt.Errorf("reply composer: %w", ai.ErrProducerUnavailable)
	}
	return &Composer{
		generator: generator,
		persona:   p,
		log:       log.With().Str("component", "composer").Logger(),
		metrics:   m,
	}, nil
}

// Persona returns the persona the composer speaks as.
func (c *Composer) Persona() persona.Persona {
	return c.persona
}

// Compose returns a reply to userText. history is a flat list of prior turn texts in order; roles
// are inferred by position (even index = user), so it must start with a user turn and alternate.
func (c *Composer) Compose(ctx context.Context, userText string, sentiment chat.Sentiment, history []string) (reply string) {
	if userText == "" {
		c.metrics.RecordReplyOutcome(metrics.ReplyEmptyInput)
		return ClarificationReply
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("reply generation panicked")
			c.metrics.RecordReplyOutcome(metrics.ReplyUnavailable)
			reply = ConnectionReply
		}
	}()

	start := time.Now()
	out, err := c.generator.Generate(ctx, BuildPrompt(c.persona, userText, sentiment, history))
	c.metrics.ObserveGeneration("composer", time.Since(start))
	if err != nil {
		c.log.Warn().Err(err).Msg("producer call failed")
		c.metrics.RecordReplyOutcome(metrics.ReplyUnavailable)
		return ConnectionReply
	}

	out = strings.TrimSpace(out)
	if out == "" {
		c.log.Warn().Msg("producer returned empty reply")
		c.metrics.RecordReplyOutcome(metrics.ReplyNoResponse)
		return ProcessingReply
	}

	c.metrics.RecordReplyOutcome(metrics.ReplyOK)
	return out
}

// BuildPrompt renders the reply prompt. Only the last HistoryLimit history entries are used.
func BuildPrompt(p persona.Persona, userText string, sentiment chat.Sentiment, history []string) string {
	label := sentiment.Label
	if label == "" {
		label = chat.Neutral
	}

	var b strings.Builder
	b.WriteString(personaLine(p))
	b.WriteString("\n")
	fmt.Fprintf(&b, "The user's message has been analyzed as having a %s sentiment.", label)
	if sentiment.HasEmotion() {
		fmt.Fprintf(&b, " They appear to be feeling %s.", strings.TrimSpace(sentiment.Emotion))
	}
	b.WriteString("\n")
	b.WriteString("Respond in a way that acknowledges their emotional state and provides an appropriate, ")
	b.WriteString("supportive response. Keep your response concise (1-3 sentences) and conversational.\n")
	b.WriteString("Do not explicitly mention that you detected their sentiment or emotion - just respond naturally.\n")

	if len(history) > 0 {
		start := len(history) - HistoryLimit
		if start < 0 {
			start = 0
		}
		b.WriteString("\nPrevious conversation:\n")
		for i, message := range history[start:] {
			role := "User"
			if i%2 == 1 {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, message)
		}
	}

	fmt.Fprintf(&b, "\nUser: %s\n\nAssistant:", userText)
	return b.String()
}

func personaLine(p persona.Persona) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "an empathetic and supportive AI assistant"
	}

	line := "You are " + title + "."
	if name := strings.TrimSpace(p.Name); name != "" {
		line = fmt.Sprintf("You are %s, %s.", name, title)
	}
	if tone := strings.TrimSpace(p.Tone); tone != "" {
		line += " Your tone is " + tone + "."
	}
	if hint := strings.TrimSpace(p.PromptHint); hint != "" {
		line += " " + hint
	}
	return line
}
