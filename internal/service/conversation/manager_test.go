package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/service/ai"
	chatservice "github.com/zhouzirui/sentichat/internal/service/chat"
)

func TestNewManagerRequiresGenerator(t *testing.T) {
	_, err := NewManager(ManagerConfig{Repository: chatservice.NewMemoryRepository(), Log: zerolog.Nop()})
	if !errors.Is(err, ai.ErrProducerUnavailable) {
		t.Fatalf("expected ErrProducerUnavailable, got %v", err)
	}
}

func TestManagerLifecycle(t *testing.T) {
	gen := &scriptedGenerator{
		judgment: `{"sentiment":"neutral","confidence":0.5,"emotion":null,"explanation":"ok"}`,
		reply:    "Sure.",
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	manager := newTestManager(t, gen, chatservice.NewMemoryRepository(), m)

	firstID, first, err := manager.Create("")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	secondID, second, err := manager.Create("coach")
	if err != nil {
		t.Fatalf("Create coach err: %v", err)
	}
	if first.Persona().ID != "companion" || second.Persona().ID != "coach" {
		t.Fatalf("unexpected personas %q %q", first.Persona().ID, second.Persona().ID)
	}
	if got := testutil.ToFloat64(m.ActiveConversations); got != 2 {
		t.Fatalf("expected 2 active conversations, got %v", got)
	}

	first.Process(context.Background(), "hello")
	if len(second.Turns()) != 0 {
		t.Fatalf("conversations should not share transcripts")
	}

	got, err := manager.Get(firstID)
	if err != nil || got != first {
		t.Fatalf("Get(%s) = %v, %v", firstID, got, err)
	}
	if ids := manager.IDs(); len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}

	if err := manager.Delete(secondID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}
	if _, err := manager.Get(secondID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if err := manager.Delete(secondID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound on second delete, got %v", err)
	}
	if got := testutil.ToFloat64(m.ActiveConversations); got != 1 {
		t.Fatalf("expected 1 active conversation, got %v", got)
	}

	saved, err := manager.SavedSessions(context.Background())
	if err != nil {
		t.Fatalf("SavedSessions err: %v", err)
	}
	if len(saved) != 1 || saved[0] != first.SessionID() {
		t.Fatalf("unexpected saved sessions %v", saved)
	}
}

func TestManagerUnknownPersona(t *testing.T) {
	manager := newTestManager(t, &scriptedGenerator{}, chatservice.NewMemoryRepository(), nil)
	if _, _, err := manager.Create("pirate"); !errors.Is(err, ErrPersonaNotFound) {
		t.Fatalf("expected ErrPersonaNotFound, got %v", err)
	}
}
