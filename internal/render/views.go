package render

import (
	"log/slog"
	"sync"

	"github.com/jackzampolin/folio/internal/document"
)

// Views keeps one Adapter per session.
type Views struct {
	logger *slog.Logger

	mu       sync.Mutex
	raster   Rasterizer
	baseDPI  float64
	adapters map[string]*Adapter
}

// NewViews creates an empty registry rendering with r at baseDPI.
func NewViews(r Rasterizer, baseDPI float64, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{
		logger:   logger,
		raster:   r,
		baseDPI:  baseDPI,
		adapters: make(map[string]*Adapter),
	}
}

// For returns the adapter of s, creating it on first use.
func (v *Views) For(s *document.Session) *Adapter {
	v.mu.Lock()
	defer v.mu.Unlock()
	if a, ok := v.adapters[s.ID()]; ok {
		return a
	}
	a := NewAdapter(AdapterConfig{
		Session:    s,
		Rasterizer: v.raster,
		BaseDPI:    v.baseDPI,
		Logger:     v.logger,
	})
	v.adapters[s.ID()] = a
	return a
}

// Remove detaches and forgets the adapter of a session.
func (v *Views) Remove(id string) {
	v.mu.Lock()
	a, ok := v.adapters[id]
	delete(v.adapters, id)
	v.mu.Unlock()
	if ok {
		a.Close()
	}
}

// Rasterizer returns the backend new adapters are created with.
func (v *Views) Rasterizer() Rasterizer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.raster
}

// SetBackend changes the backend of every adapter, existing and future.
func (v *Views) SetBackend(r Rasterizer, baseDPI float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r != nil {
		v.raster = r
	}
	if baseDPI > 0 {
		v.baseDPI = baseDPI
	}
	for _, a := range v.adapters {
		a.SetBackend(r, baseDPI)
	}
}

// Len returns the number of live adapters.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.adapters)
}
