package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/model/persona"
	"github.com/zhouzirui/sentichat/internal/service/ai"
)

type recordingGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func companion() persona.Persona {
	p, _ := persona.NewMemoryStore(persona.Seed()).FindByID(persona.DefaultID)
	return p
}

func newComposer(t *testing.T, gen ai.Generator) *Composer {
	t.Helper()
	c, err := NewComposer(gen, companion(), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewComposer err: %v", err)
	}
	return c
}

func TestComposeEmptyInput(t *testing.T) {
	gen := &recordingGenerator{reply: "hi"}
	c := newComposer(t, gen)

	got := c.Compose(context.Background(), "", chat.Sentiment{Label: chat.Neutral}, nil)

	if got != ClarificationReply {
		t.Fatalf("unexpected reply %q", got)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no producer calls, got %d", gen.calls)
	}
}

func TestComposeTrimsCompletion(t *testing.T) {
	gen := &recordingGenerator{reply: "  I hear you — that sounds really frustrating.\n"}
	c := newComposer(t, gen)
	sentiment := chat.Sentiment{Label: chat.Negative, Confidence: 0.8, Emotion: "angry"}

	got := c.Compose(context.Background(), "I'm so frustrated with this situation.", sentiment, nil)

	if got != "I hear you — that sounds really frustrating." {
		t.Fatalf("unexpected reply %q", got)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{"negative", "angry", "I'm so frustrated with this situation.", "1-3 sentences", "Do not explicitly mention"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestComposeOmitsAbsentEmotion(t *testing.T) {
	gen := &recordingGenerator{reply: "ok"}
	c := newComposer(t, gen)

	c.Compose(context.Background(), "fine", chat.Sentiment{Label: chat.Neutral}, nil)

	if strings.Contains(gen.prompts[0], "They appear to be feeling") {
		t.Fatalf("prompt should not mention an emotion:\n%s", gen.prompts[0])
	}
	if strings.Contains(gen.prompts[0], "Previous conversation") {
		t.Fatalf("prompt should not render empty history:\n%s", gen.prompts[0])
	}
}

func TestComposeEmptyCompletion(t *testing.T) {
	c := newComposer(t, &recordingGenerator{reply: " \n "})

	if got := c.Compose(context.Background(), "hey", chat.Sentiment{}, nil); got != ProcessingReply {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestComposeProducerError(t *testing.T) {
	c := newComposer(t, &recordingGenerator{err: errors.New("dial tcp: timeout")})

	if got := c.Compose(context.Background(), "hey", chat.Sentiment{}, nil); got != ConnectionReply {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestComposeRecoversPanic(t *testing.T) {
	gen := ai.GeneratorFunc(func(context.Context, string) (string, error) {
		panic("boom")
	})
	c := newComposer(t, gen)

	if got := c.Compose(context.Background(), "hey", chat.Sentiment{}, nil); got != ConnectionReply {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestBuildPromptPositionalRolesAndLimit(t *testing.T) {
	history := make([]string, 0, 14)
	for i := 0; i < 14; i++ {
		history = append(history, fmt.Sprintf("msg-%02d", i))
	}

	prompt := BuildPrompt(companion(), "now", chat.Sentiment{Label: chat.Positive}, history)

	if strings.Contains(prompt, "msg-03") {
		t.Fatalf("expected only the last %d entries:\n%s", HistoryLimit, prompt)
	}
	if !strings.Contains(prompt, "User: msg-04\n") {
		t.Fatalf("first rendered entry must be labelled User:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Assistant: msg-05\n") || !strings.Contains(prompt, "Assistant: msg-13\n") {
		t.Fatalf("odd positions must be labelled Assistant:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "User: now\n\nAssistant:") {
		t.Fatalf("prompt must end with the current utterance:\n%s", prompt)
	}
}

func TestBuildPromptUsesPersona(t *testing.T) {
	p := persona.Persona{Name: "Coach", Title: "an empathetic and encouraging AI coach", Tone: "steady", PromptHint: "Offer one step."}

	prompt := BuildPrompt(p, "hi", chat.Sentiment{Label: chat.Neutral}, nil)

	if !strings.HasPrefix(prompt, "You are Coach, an empathetic and encouraging AI coach. Your tone is steady. Offer one step.") {
		t.Fatalf("unexpected persona line:\n%s", prompt)
	}
}

func TestNewComposerRequiresGenerator(t *testing.T) {
	if _, err := NewComposer(nil, companion(), zerolog.Nop(), nil); !errors.Is(err, ai.ErrProducerUnavailable) {
		t.Fatalf("expected ErrProducerUnavailable, got %v", err)
	}
}
