// Package document holds the in-memory state of documents being edited.
//
// A Session owns the bytes of one document: the bytes it was loaded from and
// the current snapshot. Every mutation runs through Session.Apply, which
// serializes operations on the session and installs the result wholesale, so
// readers always see a complete document.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/fonts"
)

var (
	// ErrLoad means the input could not be parsed as a PDF.
	ErrLoad = errors.New("failed to load document")
	// ErrOperation means a mutation failed. The session keeps its previous
	// snapshot.
	ErrOperation = errors.New("operation failed")
	// ErrNoDocument is returned by operations on a session with nothing loaded.
	ErrNoDocument = errors.New("no document loaded")
)

// Snapshot is one immutable version of a document.
// Bytes is shared; callers must not modify it.
type Snapshot struct {
	Bytes     []byte
	PageCount int
	// Version increases with every installed snapshot. Page indices are only
	// meaningful for the version they were read from.
	Version uint64
}

// LoadResult describes a successful load.
type LoadResult struct {
	PageCount int    `json:"page_count"`
	Version   uint64 `json:"version"`
}

// ApplyResult describes the outcome of Apply.
type ApplyResult struct {
	// Applied is false when the operation did not apply (out-of-range index,
	// last page, nothing to fill) and the snapshot is unchanged.
	Applied   bool   `json:"applied"`
	PageCount int    `json:"page_count"`
	Version   uint64 `json:"version"`
}

// Info summarizes a session for listings.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Loaded    bool      `json:"loaded"`
	PageCount int       `json:"page_count"`
	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Config configures a Session.
type Config struct {
	ID     string
	Logger *slog.Logger
	// Fonts is the font cache owned by this session. A new cache with
	// standard defaults is created when nil.
	Fonts *fonts.Cache
}

// Session is the document currently being edited.
type Session struct {
	id        string
	logger    *slog.Logger
	fonts     *fonts.Cache
	createdAt time.Time

	mu            sync.Mutex
	name          string
	original      []byte
	originalPages int
	current       Snapshot
	loaded        bool
	version       uint64

	// notifyMu keeps events in installation order without holding mu
	// while listeners run.
	notifyMu  sync.Mutex
	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewSession creates an empty session.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fc := cfg.Fonts
	if fc == nil {
		fc = fonts.NewCache(fonts.StandardDefaults())
	}
	return &Session{
		id:        cfg.ID,
		logger:    logger.With("session", cfg.ID),
		fonts:     fc,
		createdAt: time.Now(),
		listeners: make(map[int]Listener),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Fonts returns the session's font cache.
func (s *Session) Fonts() *fonts.Cache { return s.fonts }

// Load reads a PDF from r and makes it both the original and the current
// document. On failure the session is left with no document.
func (s *Session) Load(ctx context.Context, name string, r io.Reader) (LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		s.clear()
		return LoadResult{}, fmt.Errorf("%w: read %s: %v", ErrLoad, name, err)
	}
	return s.LoadBytes(ctx, name, data)
}

// LoadBytes is Load for an in-memory document.
func (s *Session) LoadBytes(ctx context.Context, name string, data []byte) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}

	n, err := edit.PageCount(data)
	if err == nil && n == 0 {
		err = errors.New("document has no pages")
	}
	if err != nil {
		s.clear()
		s.logger.Warn("load failed", "name", name, "error", err)
		return LoadResult{}, fmt.Errorf("%w: %s: %v", ErrLoad, name, err)
	}

	s.mu.Lock()
	s.version++
	s.name = name
	s.original = bytes.Clone(data)
	s.originalPages = n
	s.current = Snapshot{Bytes: s.original, PageCount: n, Version: s.version}
	s.loaded = true
	snap := s.current
	s.fonts.Clear()
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Info("document loaded", "name", name, "pages", n, "bytes", len(data))
	s.emit(Event{Kind: EventLoaded, Snapshot: snap})
	return LoadResult{PageCount: n, Version: snap.Version}, nil
}

// Reset discards all edits and restores the bytes the session was loaded
// from.
func (s *Session) Reset() (Snapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return Snapshot{}, ErrNoDocument
	}
	s.version++
	s.current = Snapshot{Bytes: s.original, PageCount: s.originalPages, Version: s.version}
	snap := s.current
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Info("document reset", "pages", snap.PageCount)
	s.emit(Event{Kind: EventReset, Snapshot: snap})
	return snap, nil
}

// Close drops the document. The session can be loaded again.
func (s *Session) Close() {
	s.clear()
}

func (s *Session) clear() {
	s.mu.Lock()
	wasLoaded := s.loaded
	s.version++
	s.name = ""
	s.original = nil
	s.originalPages = 0
	s.current = Snapshot{Version: s.version}
	s.loaded = false
	snap := s.current
	s.notifyMu.Lock()
	s.mu.Unlock()

	if wasLoaded {
		s.emit(Event{Kind: EventClosed, Snapshot: snap})
		return
	}
	s.notifyMu.Unlock()
}

// Apply runs op against the current snapshot and installs its result.
// Operations on one session never interleave. If op reports edit.ErrNoOp the
// snapshot is kept and the result has Applied false. Any other failure is
// wrapped in ErrOperation and the snapshot is kept.
func (s *Session) Apply(ctx context.Context, label string, op edit.Op) (ApplyResult, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ApplyResult{}, ErrNoDocument
	}
	cur := s.current

	out, err := op(ctx, cur.Bytes)
	if errors.Is(err, edit.ErrNoOp) {
		s.mu.Unlock()
		s.logger.Debug("operation not applied", "op", label)
		return ApplyResult{PageCount: cur.PageCount, Version: cur.Version}, nil
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("operation failed", "op", label, "error", err)
		return ApplyResult{}, fmt.Errorf("%w: %s: %w", ErrOperation, label, err)
	}

	// The result must load on its own before it replaces the snapshot.
	n, err := edit.PageCount(out)
	if err == nil && n == 0 {
		err = errors.New("result has no pages")
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("operation produced an invalid document", "op", label, "error", err)
		return ApplyResult{}, fmt.Errorf("%w: %s: %w", ErrOperation, label, err)
	}

	s.version++
	s.current = Snapshot{Bytes: out, PageCount: n, Version: s.version}
	snap := s.current
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.logger.Debug("operation applied", "op", label, "pages", n, "version", snap.Version)
	s.emit(Event{Kind: EventMutated, Label: label, Snapshot: snap})
	return ApplyResult{Applied: true, PageCount: n, Version: snap.Version}, nil
}

// Snapshot returns the current snapshot.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return Snapshot{}, ErrNoDocument
	}
	return s.current, nil
}

// Bytes returns the current document bytes.
func (s *Session) Bytes() ([]byte, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Bytes, nil
}

// PageCount returns the page count of the current snapshot, 0 when nothing
// is loaded.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.PageCount
}

// Name returns the name the document was loaded under.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// IsLoaded reports whether a document is loaded.
func (s *Session) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Info summarizes the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.id,
		Name:      s.name,
		Loaded:    s.loaded,
		PageCount: s.current.PageCount,
		Version:   s.current.Version,
		CreatedAt: s.createdAt,
	}
}
