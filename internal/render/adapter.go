package render

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"sync"

	"github.com/jackzampolin/folio/internal/document"
)

// DefaultBaseDPI is the resolution at scale 1.0.
const DefaultBaseDPI = 96.0

// Frame is a rendered view of one page.
type Frame struct {
	Image   image.Image
	Page    int
	Scale   float64
	DPI     float64
	Token   uint64
	Version uint64
	View    ViewState
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	Session    *document.Session
	Rasterizer Rasterizer
	BaseDPI    float64
	Logger     *slog.Logger
}

// Adapter renders the current page of a session's document and keeps the
// view in step with the session.
type Adapter struct {
	session     *document.Session
	logger      *slog.Logger
	mu          sync.RWMutex
	raster      Rasterizer
	baseDPI     float64
	view        *View
	unsubscribe func()
}

// NewAdapter creates an adapter and subscribes it to the session. If the
// session already holds a document the view starts ready.
func NewAdapter(cfg AdapterConfig) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dpi := cfg.BaseDPI
	if dpi <= 0 {
		dpi = DefaultBaseDPI
	}

	a := &Adapter{
		session: cfg.Session,
		logger:  logger.With("session", cfg.Session.ID()),
		raster:  cfg.Rasterizer,
		baseDPI: dpi,
		view:    NewView(),
	}
	if snap, err := cfg.Session.Snapshot(); err == nil {
		a.view.LoadSucceeded(snap.PageCount)
	}
	a.unsubscribe = cfg.Session.Subscribe(a.onEvent)
	return a
}

func (a *Adapter) onEvent(ev document.Event) {
	switch ev.Kind {
	case document.EventLoaded, document.EventReset:
		a.view.LoadSucceeded(ev.Snapshot.PageCount)
	case document.EventMutated:
		a.view.SetPageCount(ev.Snapshot.PageCount)
	case document.EventClosed:
		a.view.Close()
	}
}

// View returns the adapter's view state machine.
func (a *Adapter) View() *View { return a.view }

// Rasterizer returns the rendering backend.
func (a *Adapter) Rasterizer() Rasterizer {
	r, _ := a.backend()
	return r
}

// SetBackend swaps the rasterizer and base resolution used by later renders.
// A non-positive dpi keeps the current one.
func (a *Adapter) SetBackend(r Rasterizer, dpi float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r != nil {
		a.raster = r
	}
	if dpi > 0 {
		a.baseDPI = dpi
	}
}

func (a *Adapter) backend() (Rasterizer, float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.raster, a.baseDPI
}

// Load loads r into the session, moving the view through loading. A failed
// load leaves the view with no document and the error available from Err.
func (a *Adapter) Load(ctx context.Context, name string, r io.Reader) (document.LoadResult, error) {
	a.view.BeginLoad()
	res, err := a.session.Load(ctx, name, r)
	if err != nil {
		a.view.LoadFailed(err)
		return res, err
	}
	return res, nil
}

// Render rasterizes the current page at the current scale and rotation.
// If another render starts or the document changes before this one finishes,
// the result is discarded and ErrStaleRender is returned.
func (a *Adapter) Render(ctx context.Context) (Frame, error) {
	token, vs, err := a.view.beginRender()
	if err != nil {
		return Frame{}, err
	}

	frame, err := a.render(ctx, vs)
	fresh := a.view.finishRender(token)
	if err != nil {
		return Frame{}, err
	}
	if !fresh {
		a.logger.Debug("discarding stale render", "page", vs.CurrentPage, "token", token)
		return Frame{}, ErrStaleRender
	}
	frame.Token = token
	return frame, nil
}

func (a *Adapter) render(ctx context.Context, vs ViewState) (Frame, error) {
	snap, err := a.session.Snapshot()
	if err != nil {
		return Frame{}, ErrNoDocument
	}
	raster, base := a.backend()
	page := clampPage(vs.CurrentPage, snap.PageCount)
	dpi := base * vs.Scale

	img, err := raster.Rasterize(ctx, snap.Bytes, page, dpi)
	if err != nil {
		return Frame{}, fmt.Errorf("render page %d: %w", page, err)
	}
	return Frame{
		Image:   Rotate(img, vs.Rotation),
		Page:    page,
		Scale:   vs.Scale,
		DPI:     dpi,
		Version: snap.Version,
		View:    vs,
	}, nil
}

// RenderPNG renders the current view and writes it to w as PNG.
func (a *Adapter) RenderPNG(ctx context.Context, w io.Writer) (Frame, error) {
	frame, err := a.Render(ctx)
	if err != nil {
		return Frame{}, err
	}
	if err := png.Encode(w, frame.Image); err != nil {
		return Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	return frame, nil
}

// RenderPage rasterizes a 1-based page of the current snapshot without
// touching the view, e.g. for OCR.
func (a *Adapter) RenderPage(ctx context.Context, page int, dpi float64) (image.Image, error) {
	snap, err := a.session.Snapshot()
	if err != nil {
		return nil, err
	}
	if page < 1 || page > snap.PageCount {
		return nil, fmt.Errorf("page %d out of range 1-%d", page, snap.PageCount)
	}
	raster, base := a.backend()
	if dpi <= 0 {
		dpi = base
	}
	return raster.Rasterize(ctx, snap.Bytes, page, dpi)
}

// Close stops following the session.
func (a *Adapter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
