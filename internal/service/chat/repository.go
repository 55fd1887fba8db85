package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zhouzirui/sentichat/internal/config"
	"github.com/zhouzirui/sentichat/internal/model/chat"
)

// Repository stores one record per session id. Save replaces the whole record.
type Repository interface {
	Save(ctx context.Context, session chat.Session) (string, error)
	Load(ctx context.Context, sessionID string) ([]chat.Turn, error)
	List(ctx context.Context) ([]string, error)
}

// OpenRepository returns the backend selected by cfg.
func OpenRepository(cfg config.StorageConfig) (Repository, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return NewMemoryRepository(), nil
	case config.StorageFile, "":
		return NewFileRepository(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// FileRepository keeps each session as <dir>/<id>.json, an indented JSON array of turns.
type FileRepository struct {
	dir string
}

// NewFileRepository creates dir if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &FileRepository{dir: dir}, nil
}

// Dir returns the storage directory.
func (r *FileRepository) Dir() string {
	return r.dir
}

// Save writes the session atomically via a temp file and rename.
func (r *FileRepository) Save(_ context.Context, session chat.Session) (string, error) {
	if !chat.ValidSessionID(session.ID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, session.ID)
	}

	data, err := json.MarshalIndent(session.Turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	path := r.path(session.ID)
	tmp, err := os.CreateTemp(r.dir, session.ID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("replace session file: %w", err)
	}
	return path, nil
}

// Load reads the turns of sessionID.
func (r *FileRepository) Load(_ context.Context, sessionID string) ([]chat.Turn, error) {
	if !chat.ValidSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}

	data, err := os.ReadFile(r.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var turns []chat.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return turns, nil
}

// List returns the stored session ids, newest first.
func (r *FileRepository) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if chat.ValidSessionID(id) {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

func (r *FileRepository) path(sessionID string) string {
	return filepath.Join(r.dir, sessionID+".json")
}

// MemoryRepository keeps sessions in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]chat.Turn
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string][]chat.Turn)}
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, session chat.Session) (string, error) {
	if !chat.ValidSessionID(session.ID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, session.ID)
	}

	r.mu.Lock()
	r.sessions[session.ID] = copyTurns(session.Turns)
	r.mu.Unlock()
	return "memory://" + session.ID, nil
}

// Load implements Repository.
func (r *MemoryRepository) Load(_ context.Context, sessionID string) ([]chat.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	turns, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copyTurns(turns), nil
}

// List implements Repository.
func (r *MemoryRepository) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
