package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/model/persona"
	"github.com/zhouzirui/sentichat/internal/service/ai"
	chatservice "github.com/zhouzirui/sentichat/internal/service/chat"
	"github.com/zhouzirui/sentichat/internal/service/reply"
	"github.com/zhouzirui/sentichat/internal/service/sentiment"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrPersonaNotFound      = errors.New("persona not found")
)

// ManagerConfig holds the shared dependencies used to build each conversation.
type ManagerConfig struct {
	Generator      ai.Generator
	Repository     chatservice.Repository
	Personas       persona.Store
	DefaultPersona string
	HistoryLimit   int
	Log            zerolog.Logger
	Metrics        *metrics.Metrics
}

// Manager keeps independent conversations keyed by an opaque handle. Sessions share no mutable
// state; only the generator and repository are shared.
type Manager struct {
	mu       sync.RWMutex
	cfg      ManagerConfig
	sessions map[string]*Session
}

// NewManager validates cfg and returns an empty manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("conversation manager: %w", ai.ErrProducerUnavailable)
	}
	if cfg.Repository == nil {
		return nil, errors.New("conversation manager: repository is required")
	}
	if cfg.Personas == nil {
		cfg.Personas = persona.NewMemoryStore(persona.Seed())
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}, nil
}

// Personas returns the persona catalogue.
func (m *Manager) Personas() persona.Store {
	return m.cfg.Personas
}

// Create starts a new conversation with the given persona ("" selects the default).
func (m *Manager) Create(personaID string) (string, *Session, error) {
	session, err := m.NewSession(personaID)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.cfg.Metrics.SetActiveConversations(count)
	return id, session, nil
}

// NewSession builds an unregistered session, for callers that hold it themselves.
func (m *Manager) NewSession(personaID string) (*Session, error) {
	if personaID == "" {
		personaID = m.cfg.DefaultPersona
	}
	p, ok := persona.Resolve(m.cfg.Personas, personaID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, personaID)
	}

	classifier, err := sentiment.NewClassifier(m.cfg.Generator, m.cfg.Log, m.cfg.Metrics)
	if err != nil {
		return nil, err
	}
	composer, err := reply.NewComposer(m.cfg.Generator, p, m.cfg.Log, m.cfg.Metrics)
	if err != nil {
		return nil, err
	}

	store := chatservice.NewStore(m.cfg.Repository, m.cfg.Log)
	return New(store, classifier, composer, Options{
		HistoryLimit: m.cfg.HistoryLimit,
		Persona:      p,
		Log:          m.cfg.Log,
		Metrics:      m.cfg.Metrics,
	}), nil
}

// Get returns the conversation registered under id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return session, nil
}

// Delete forgets the conversation. Persisted sessions are kept.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return ErrConversationNotFound
	}
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	m.cfg.Metrics.SetActiveConversations(count)
	return nil
}

// IDs returns the registered conversation handles in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SavedSessions lists the session ids available to Load.
func (m *Manager) SavedSessions(ctx context.Context) ([]string, error) {
	return m.cfg.Repository.List(ctx)
}
