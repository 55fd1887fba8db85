package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/model/chat"
)

// DefaultWindow is the number of turns Window returns when no positive limit is given.
const DefaultWindow = 20

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrInvalidRole      = errors.New("invalid role")
)

// Store holds the transcript of the active session. Turns are append-only; the session id only
// changes on construction, Load and Reset. Persisting is a whole-record overwrite, so each
// session id must have a single writer.
type Store struct {
	mu        sync.RWMutex
	repo      Repository
	log       zerolog.Logger
	now       func() time.Time
	sessionID string
	turns     []chat.Turn
}

// NewStore creates an empty store with a fresh session id.
func NewStore(repo Repository, log zerolog.Logger) *Store {
	s := &Store{
		repo: repo,
		log:  log.With().Str("component", "store").Logger(),
		now:  time.Now,
	}
	s.sessionID = chat.NewSessionID(s.now())
	s.turns = make([]chat.Turn, 0, 16)
	return s
}

// SessionID returns the id of the active session.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Append adds a turn stamped with the current time. The sentiment is kept for user turns only.
// Turns are expected to alternate user/assistant; a repeated role is logged because
// positional consumers of Window rely on the alternation.
func (s *Store) Append(text string, role chat.Role, sentiment *chat.Sentiment) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if n := len(s.turns); n > 0 {
		last := s.turns[n-1]
		if ts.Before(last.Timestamp) {
			ts = last.Timestamp
		}
		if last.Role == role {
			s.log.Warn().
				Str("session_id", s.sessionID).
				Str("role", string(role)).
				Msg("same role appended twice in a row, history alternation broken")
		}
	}

	turn := chat.Turn{Text: text, Role: role, Timestamp: ts}
	if role == chat.RoleUser && sentiment != nil {
		copied := *sentiment
		turn.Sentiment = &copied
	}
	s.turns = append(s.turns, turn)
	return nil
}

// Window returns the text of the last maxTurns turns, oldest first. Roles are not included.
func (s *Store) Window(maxTurns int) []string {
	if maxTurns <= 0 {
		maxTurns = DefaultWindow
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.turns) - maxTurns
	if start < 0 {
		start = 0
	}

	texts := make([]string, 0, len(s.turns)-start)
	for _, turn := range s.turns[start:] {
		texts = append(texts, turn.Text)
	}
	return texts
}

// Formatted returns the full history as role/content pairs.
func (s *Store) Formatted() []chat.FormattedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.FormattedMessage, 0, len(s.turns))
	for _, turn := range s.turns {
		out = append(out, chat.FormattedMessage{Role: turn.Role, Content: turn.Text})
	}
	return out
}

// Turns returns a copy of the transcript.
func (s *Store) Turns() []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTurns(s.turns)
}

// Len returns the number of turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Stats tallies the sentiment labels of the user turns.
func (s *Store) Stats() chat.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats chat.Stats
	for _, turn := range s.turns {
		if turn.Role == chat.RoleUser && turn.Sentiment != nil {
			stats.Add(turn.Sentiment.Label)
		}
	}
	return stats
}

// Persist writes the session through the repository and returns its location. An empty session
// is not written and yields "".
func (s *Store) Persist(ctx context.Context) (string, error) {
	s.mu.RLock()
	session := chat.Session{ID: s.sessionID, Turns: copyTurns(s.turns)}
	s.mu.RUnlock()

	if len(session.Turns) == 0 {
		return "", nil
	}

	location, err := s.repo.Save(ctx, session)
	if err != nil {
		return "", fmt.Errorf("persist session %s: %w", session.ID, err)
	}

	s.log.Debug().Str("session_id", session.ID).Str("location", location).Int("turns", len(session.Turns)).Msg("session persisted")
	return location, nil
}

// Load replaces the transcript with the stored session. On any failure the store is left
// unchanged and false is returned.
func (s *Store) Load(ctx context.Context, sessionID string) bool {
	if !chat.ValidSessionID(sessionID) {
		s.log.Warn().Str("session_id", sessionID).Msg("refusing to load invalid session id")
		return false
	}

	turns, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.log.Info().Str("session_id", sessionID).Msg("session not found")
		} else {
			s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		}
		return false
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.turns = copyTurns(turns)
	s.mu.Unlock()

	s.log.Info().Str("session_id", sessionID).Int("turns", len(turns)).Msg("session loaded")
	return true
}

// Reset clears the transcript and starts a new session id.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.sessionID
	next := chat.NewSessionID(s.now())
	for next == previous {
		next = chat.NewSessionID(s.now())
	}
	s.sessionID = next
	s.turns = make([]chat.Turn, 0, 16)
}

func copyTurns(turns []chat.Turn) []chat.Turn {
	out := make([]chat.Turn, len(turns))
	copy(out, turns)
	return out
}
