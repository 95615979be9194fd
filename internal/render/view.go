// Package render rasterizes document pages and owns the view state:
// current page, zoom and rotation.
package render

import (
	"errors"
	"math"
	"sync"
)

// State is the lifecycle of a view.
type State string

const (
	StateNoDocument State = "no-document"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateRendering  State = "rendering"
)

// Zoom bounds.
const (
	MinScale  = 0.5
	MaxScale  = 3.0
	ScaleStep = 0.25
)

var (
	// ErrNoDocument is returned when rendering a view with nothing loaded.
	ErrNoDocument = errors.New("no document loaded")
	// ErrStaleRender is returned when a newer render or a document change
	// superseded a render before it finished. Its result is discarded.
	ErrStaleRender = errors.New("render superseded by a newer request")
)

// ViewState is the user-facing view of a document.
type ViewState struct {
	// CurrentPage is 1-based.
	CurrentPage int     `json:"current_page"`
	Scale       float64 `json:"scale"`
	Rotation    int     `json:"rotation"`
}

func initialView() ViewState {
	return ViewState{CurrentPage: 1, Scale: 1.0, Rotation: 0}
}

// Status is a point-in-time copy of a View.
type Status struct {
	State     State     `json:"state"`
	PageCount int       `json:"page_count"`
	View      ViewState `json:"view"`
	Error     string    `json:"error,omitempty"`
}

// View is the view state machine. All methods are safe for concurrent use.
type View struct {
	mu        sync.Mutex
	state     State
	err       error
	pageCount int
	vs        ViewState
	inflight  int
	token     uint64
}

// NewView returns a view with no document.
func NewView() *View {
	return &View{state: StateNoDocument, vs: initialView()}
}

// BeginLoad enters the loading state.
func (v *View) BeginLoad() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateLoading
	v.err = nil
	v.token++
}

// LoadSucceeded enters ready with a fresh view for a pageCount-page document.
func (v *View) LoadSucceeded(pageCount int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateReady
	v.err = nil
	v.pageCount = pageCount
	v.vs = initialView()
	v.inflight = 0
	v.token++
}

// LoadFailed returns to no-document and keeps err for Err.
func (v *View) LoadFailed(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateNoDocument
	v.err = err
	v.pageCount = 0
	v.vs = initialView()
	v.token++
}

// Close returns to no-document.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = StateNoDocument
	v.pageCount = 0
	v.vs = initialView()
	v.token++
}

// SetPageCount follows a mutation of the document. The current page is
// clamped into the new range and in-flight renders become stale.
func (v *View) SetPageCount(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded() {
		return
	}
	v.pageCount = n
	v.vs.CurrentPage = clampPage(v.vs.CurrentPage, n)
	v.token++
}

// State returns the lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Err returns the error of the last failed load.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// ViewState returns the current view.
func (v *View) ViewState() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vs
}

// Status returns a snapshot of the whole view.
func (v *View) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := Status{State: v.state, PageCount: v.pageCount, View: v.vs}
	if v.err != nil {
		st.Error = v.err.Error()
	}
	return st
}

func (v *View) loaded() bool {
	return v.state == StateReady || v.state == StateRendering
}

// update applies fn to the view state if a document is loaded. A change of
// page, scale or rotation makes in-flight renders stale.
func (v *View) update(fn func(vs *ViewState, pageCount int)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded() {
		return false
	}
	before := v.vs
	fn(&v.vs, v.pageCount)
	if v.vs != before {
		v.token++
	}
	return true
}

// ZoomIn raises the scale by one step, up to MaxScale.
func (v *View) ZoomIn() bool {
	return v.update(func(vs *ViewState, _ int) { vs.Scale = clampScale(vs.Scale + ScaleStep) })
}

// ZoomOut lowers the scale by one step, down to MinScale.
func (v *View) ZoomOut() bool {
	return v.update(func(vs *ViewState, _ int) { vs.Scale = clampScale(vs.Scale - ScaleStep) })
}

// ResetZoom sets the scale back to 1.
func (v *View) ResetZoom() bool {
	return v.update(func(vs *ViewState, _ int) { vs.Scale = 1.0 })
}

// SetScale sets the scale, clamped and snapped to the zoom step.
func (v *View) SetScale(scale float64) bool {
	return v.update(func(vs *ViewState, _ int) { vs.Scale = clampScale(scale) })
}

// Rotate turns the view 90 degrees clockwise.
func (v *View) Rotate() bool {
	return v.update(func(vs *ViewState, _ int) { vs.Rotation = (vs.Rotation + 90) % 360 })
}

// NextPage moves forward one page, stopping at the last page.
func (v *View) NextPage() bool {
	return v.update(func(vs *ViewState, n int) { vs.CurrentPage = clampPage(vs.CurrentPage+1, n) })
}

// PrevPage moves back one page, stopping at page 1.
func (v *View) PrevPage() bool {
	return v.update(func(vs *ViewState, n int) { vs.CurrentPage = clampPage(vs.CurrentPage-1, n) })
}

// GoToPage jumps to a 1-based page, clamped into range.
func (v *View) GoToPage(page int) bool {
	return v.update(func(vs *ViewState, n int) { vs.CurrentPage = clampPage(page, n) })
}

// HandleKey applies a keyboard shortcut. It returns false for unknown keys
// and when no document is loaded.
func (v *View) HandleKey(key string) bool {
	switch key {
	case "ArrowRight", "ArrowDown", "PageDown":
		return v.NextPage()
	case "ArrowLeft", "ArrowUp", "PageUp":
		return v.PrevPage()
	case "+", "=":
		return v.ZoomIn()
	case "-":
		return v.ZoomOut()
	case "0":
		return v.ResetZoom()
	case "r", "R":
		return v.Rotate()
	}
	return false
}

// Action names accepted by Do.
const (
	ActionZoomIn    = "zoom_in"
	ActionZoomOut   = "zoom_out"
	ActionResetZoom = "reset_zoom"
	ActionRotate    = "rotate"
	ActionNext      = "next"
	ActionPrev      = "prev"
	ActionGoTo      = "goto"
)

// Do applies a named action. page is only used by ActionGoTo.
func (v *View) Do(action string, page int) bool {
	switch action {
	case ActionZoomIn:
		return v.ZoomIn()
	case ActionZoomOut:
		return v.ZoomOut()
	case ActionResetZoom:
		return v.ResetZoom()
	case ActionRotate:
		return v.Rotate()
	case ActionNext:
		return v.NextPage()
	case ActionPrev:
		return v.PrevPage()
	case ActionGoTo:
		return v.GoToPage(page)
	}
	return false
}

// beginRender issues a render token for the current view.
func (v *View) beginRender() (uint64, ViewState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded() {
		return 0, ViewState{}, ErrNoDocument
	}
	v.token++
	v.inflight++
	v.state = StateRendering
	return v.token, v.vs, nil
}

// finishRender reports whether token is still the latest.
func (v *View) finishRender(token uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.inflight > 0 {
		v.inflight--
	}
	if v.inflight == 0 && v.state == StateRendering {
		v.state = StateReady
	}
	return token == v.token && v.loaded()
}

func clampScale(s float64) float64 {
	s = math.Round(s/ScaleStep) * ScaleStep
	return math.Min(MaxScale, math.Max(MinScale, s))
}

func clampPage(p, n int) int {
	if n < 1 {
		return 1
	}
	if p < 1 {
		return 1
	}
	if p > n {
		return n
	}
	return p
}
