// Package conversation runs the classify, store, compose and persist pipeline for one
// conversation at a time.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/model/persona"
	chatservice "github.com/zhouzirui/sentichat/internal/service/chat"
)

// Classifier labels a user utterance.
type Classifier interface {
	Classify(ctx context.Context, text string) chat.Sentiment
}

// Composer writes the assistant reply.
type Composer interface {
	Compose(ctx context.Context, userText string, sentiment chat.Sentiment, history []string) string
}

// Options tunes a Session.
type Options struct {
	// HistoryLimit is the number of prior turns passed to the composer. Use an even number so
	// the history starts on a user turn.
	HistoryLimit int
	Persona      persona.Persona
	Log          zerolog.Logger
	Metrics      *metrics.Metrics
}

// TurnResult is the outcome of one processed utterance.
type TurnResult struct {
	SessionID string         `json:"sessionId"`
	Sentiment chat.Sentiment `json:"sentiment"`
	Reply     string         `json:"reply"`
	Stats     chat.Stats     `json:"stats"`
}

// Session owns the store, classifier and composer of one conversation. Process, Reset and Load
// are serialised, so a turn always completes before the next one starts.
type Session struct {
	mu           sync.Mutex
	store        *chatservice.Store
	classifier   Classifier
	composer     Composer
	persona      persona.Persona
	historyLimit int
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// New wires a session around an existing store.
func New(store *chatservice.Store, classifier Classifier, composer Composer, opts Options) *Session {
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = chatservice.DefaultWindow
	}
	return &Session{
		store:        store,
		classifier:   classifier,
		composer:     composer,
		persona:      opts.Persona,
		historyLimit: limit,
		log:          opts.Log.With().Str("component", "conversation").Logger(),
		metrics:      opts.Metrics,
	}
}

// Process classifies text, records it, composes a reply, records that and persists the session.
// Persistence failures are logged and do not affect the result.
func (s *Session) Process(ctx context.Context, text string) TurnResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { s.metrics.ObserveTurn(time.Since(start)) }()

	sentiment := s.classifier.Classify(ctx, text)
	s.metrics.RecordSentiment(string(sentiment.Label))
	s.appendTurn(text, chat.RoleUser, &sentiment)

	reply := s.composer.Compose(ctx, text, sentiment, s.history())
	s.appendTurn(reply, chat.RoleAssistant, nil)

	if _, err := s.store.Persist(ctx); err != nil {
		s.metrics.RecordPersistFailure()
		s.log.Error().Err(err).Str("session_id", s.store.SessionID()).Msg("failed to persist session")
	}

	s.log.Info().
		Str("session_id", s.store.SessionID()).
		Str("label", string(sentiment.Label)).
		Str("emotion", sentiment.Emotion).
		Dur("duration", time.Since(start)).
		Msg("turn processed")

	return TurnResult{
		SessionID: s.store.SessionID(),
		Sentiment: sentiment,
		Reply:     reply,
		Stats:     s.store.Stats(),
	}
}

// history returns up to historyLimit turns preceding the utterance just appended. The window is
// taken one longer and the trailing current utterance dropped, so with an even limit it begins
// on a user turn as the composer's positional role labelling expects.
func (s *Session) history() []string {
	window := s.store.Window(s.historyLimit + 1)
	if len(window) == 0 {
		return nil
	}
	return window[:len(window)-1]
}

func (s *Session) appendTurn(text string, role chat.Role, sentiment *chat.Sentiment) {
	if err := s.store.Append(text, role, sentiment); err != nil {
		s.log.Error().Err(err).Msg("failed to append turn")
		return
	}
	s.metrics.RecordTurn(string(role))
}

// SessionID returns the id of the active session.
func (s *Session) SessionID() string {
	return s.store.SessionID()
}

// Persona returns the persona replies are written as.
func (s *Session) Persona() persona.Persona {
	return s.persona
}

// Formatted returns the full transcript for display.
func (s *Session) Formatted() []chat.FormattedMessage {
	return s.store.Formatted()
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []chat.Turn {
	return s.store.Turns()
}

// Stats returns the label tally of the active session.
func (s *Session) Stats() chat.Stats {
	return s.store.Stats()
}

// Reset starts a new, empty session.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.store.SessionID()
	s.store.Reset()
	s.log.Info().Str("previous_session_id", previous).Str("session_id", s.store.SessionID()).Msg("session reset")
	return s.store.SessionID()
}

// Load switches to a previously persisted session.
func (s *Session) Load(ctx context.Context, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx, sessionID)
}
