package document

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jackzampolin/folio/internal/fonts"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// StoreConfig configures a Store.
type StoreConfig struct {
	Logger *slog.Logger
	Fonts  fonts.Defaults
}

// Store is an in-memory registry of sessions. Nothing is persisted.
type Store struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	fonts    fonts.Defaults
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		sessions: make(map[string]*Session),
		fonts:    cfg.Fonts,
	}
}

// Create adds an empty session with its own font cache.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := uuid.New().String()
	s := NewSession(Config{
		ID:     id,
		Logger: st.logger,
		Fonts:  fonts.NewCache(st.fonts),
	})
	st.sessions[id] = s
	st.logger.Debug("session created", "session", id)
	return s
}

// Get returns the session with the given ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (st *Store) List() []Info {
	st.mu.RLock()
	infos := make([]Info, 0, len(st.sessions))
	for _, s := range st.sessions {
		infos = append(infos, s.Info())
	}
	st.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Delete closes and removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	st.logger.Debug("session deleted", "session", id)
	return nil
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SetFontDefaults changes the category defaults used by sessions created
// afterwards.
func (st *Store) SetFontDefaults(d fonts.Defaults) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.fonts = d
}
