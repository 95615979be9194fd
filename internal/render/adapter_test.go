package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/testutil"
)

// fakeRasterizer returns a w x h image sized by DPI. Calls for a page in
// block wait until release is closed.
type fakeRasterizer struct {
	mu      sync.Mutex
	calls   []float64
	block   map[int]chan struct{}
	started chan int
}

func newFake() *fakeRasterizer {
	return &fakeRasterizer{block: make(map[int]chan struct{}), started: make(chan int, 16)}
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dpi)
	ch := f.block[page]
	f.mu.Unlock()

	f.started <- page
	if ch != nil {
		<-ch
	}
	w, h := int(dpi), int(dpi*2)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	return img, nil
}

func loadedSession(t *testing.T, pages int) *document.Session {
	t.Helper()
	s := document.NewSession(document.Config{ID: "render-test"})
	if _, err := s.LoadBytes(context.Background(), "doc.pdf", testutil.PagesPDF(t, pages)); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAdapter_Render(t *testing.T) {
	s := loadedSession(t, 2)
	fake := newFake()
	a := NewAdapter(AdapterConfig{Session: s, Rasterizer: fake, BaseDPI: 100})
	defer a.Close()

	a.View().ZoomIn()
	a.View().Rotate()
	frame, err := a.Render(context.Background())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if frame.DPI != 125 {
		t.Errorf("DPI = %v, want 125", frame.DPI)
	}
	// 125x250 rotated a quarter turn.
	if b := frame.Image.Bounds(); b.Dx() != 250 || b.Dy() != 125 {
		t.Errorf("rotated frame is %dx%d, want 250x125", b.Dx(), b.Dy())
	}
	if a.View().State() != StateReady {
		t.Errorf("state = %s after render, want ready", a.View().State())
	}

	var buf bytes.Buffer
	if _, err := a.RenderPNG(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("RenderPNG did not produce a PNG: %v", err)
	}
}

func TestAdapter_StaleRenderDiscarded(t *testing.T) {
	s := loadedSession(t, 3)
	fake := newFake()
	release := make(chan struct{})
	fake.block[1] = release
	a := NewAdapter(AdapterConfig{Session: s, Rasterizer: fake})
	defer a.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := a.Render(context.Background())
		errc <- err
	}()
	<-fake.started

	// The user moves on while page 1 is still rendering.
	a.View().NextPage()
	frame, err := a.Render(context.Background())
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	<-fake.started
	if frame.Page != 2 {
		t.Errorf("frame page = %d, want 2", frame.Page)
	}

	close(release)
	if err := <-errc; !errors.Is(err, ErrStaleRender) {
		t.Errorf("first render err = %v, want ErrStaleRender", err)
	}
}

func TestAdapter_FollowsSession(t *testing.T) {
	s := document.NewSession(document.Config{ID: "follow"})
	a := NewAdapter(AdapterConfig{Session: s, Rasterizer: newFake()})
	defer a.Close()

	if a.View().State() != StateNoDocument {
		t.Fatalf("state = %s, want no-document", a.View().State())
	}
	if _, err := a.Render(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Render with no document err = %v", err)
	}

	ctx := context.Background()
	if _, err := a.Load(ctx, "doc.pdf", bytes.NewReader(testutil.PagesPDF(t, 3))); err != nil {
		t.Fatal(err)
	}
	a.View().GoToPage(3)
	a.View().ZoomIn()

	if _, err := s.Apply(ctx, "delete", edit.DeletePage(2)); err != nil {
		t.Fatal(err)
	}
	st := a.View().Status()
	if st.PageCount != 2 || st.View.CurrentPage != 2 || st.View.Scale != 1.25 {
		t.Errorf("after delete: %+v", st)
	}

	if _, err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	st = a.View().Status()
	if st.PageCount != 3 || st.View != initialView() {
		t.Errorf("after reset: %+v", st)
	}

	_, err := a.Load(ctx, "bad.pdf", strings.NewReader("nope"))
	if !errors.Is(err, document.ErrLoad) {
		t.Fatalf("bad load err = %v", err)
	}
	if a.View().State() != StateNoDocument || a.View().Err() == nil {
		t.Errorf("after failed load: %+v", a.View().Status())
	}
}

func TestAdapter_MutationMakesRenderStale(t *testing.T) {
	s := loadedSession(t, 2)
	fake := newFake()
	release := make(chan struct{})
	fake.block[1] = release
	a := NewAdapter(AdapterConfig{Session: s, Rasterizer: fake})
	defer a.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := a.Render(context.Background())
		errc <- err
	}()
	<-fake.started

	if _, err := s.Apply(context.Background(), "insert", edit.InsertBlankPage(0)); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-errc; !errors.Is(err, ErrStaleRender) {
		t.Errorf("render across a mutation err = %v, want ErrStaleRender", err)
	}
}

func TestAdapter_ViewChangeMakesRenderStale(t *testing.T) {
	tests := []struct {
		name      string
		change    func(v *View) bool
		wantStale bool
	}{
		{"next page", (*View).NextPage, true},
		{"zoom in", (*View).ZoomIn, true},
		{"rotate", (*View).Rotate, true},
		{"prev on first page", (*View).PrevPage, false},
		{"reset zoom at 1.0", (*View).ResetZoom, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedSession(t, 3)
			fake := newFake()
			release := make(chan struct{})
			fake.block[1] = release
			a := NewAdapter(AdapterConfig{Session: s, Rasterizer: fake})
			defer a.Close()

			errc := make(chan error, 1)
			go func() {
				_, err := a.Render(context.Background())
				errc <- err
			}()
			<-fake.started

			if !tt.change(a.View()) {
				t.Fatal("view change not applied")
			}
			close(release)
			err := <-errc
			if tt.wantStale && !errors.Is(err, ErrStaleRender) {
				t.Errorf("err = %v, want ErrStaleRender", err)
			}
			if !tt.wantStale && err != nil {
				t.Errorf("err = %v, want fresh frame", err)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255}) // top-left marker

	tests := []struct {
		degrees int
		w, h    int
		x, y    int
	}{
		{0, 4, 2, 0, 0},
		{90, 2, 4, 1, 0},
		{180, 4, 2, 3, 1},
		{270, 2, 4, 0, 3},
		{-90, 2, 4, 0, 3},
	}
	for _, tt := range tests {
		got := Rotate(src, tt.degrees)
		b := got.Bounds()
		if b.Dx() != tt.w || b.Dy() != tt.h {
			t.Errorf("Rotate(%d) size = %dx%d, want %dx%d", tt.degrees, b.Dx(), b.Dy(), tt.w, tt.h)
			continue
		}
		if r, _, _, _ := got.At(tt.x, tt.y).RGBA(); r != 0xffff {
			t.Errorf("Rotate(%d): marker not at (%d,%d)", tt.degrees, tt.x, tt.y)
		}
	}
}

func TestPoppler_Rasterize(t *testing.T) {
	testutil.RequireBinary(t, "pdftoppm")

	doc := testutil.PDF(t, testutil.Size{W: 144, H: 72})
	img, err := NewPoppler("").Rasterize(context.Background(), doc, 1, 72)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 140 || b.Dx() > 148 || b.Dy() < 70 || b.Dy() > 74 {
		t.Errorf("image is %dx%d, want about 144x72", b.Dx(), b.Dy())
	}
}

func TestPoppler_BadInput(t *testing.T) {
	testutil.RequireBinary(t, "pdftoppm")
	if _, err := NewPoppler("").Rasterize(context.Background(), []byte("junk"), 1, 72); !errors.Is(err, ErrRasterize) {
		t.Errorf("err = %v, want ErrRasterize", err)
	}
}

func TestMuPDF_Rasterize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MuPDF render in short mode")
	}
	doc := testutil.PDF(t, testutil.Size{W: 144, H: 72})
	img, err := MuPDF{}.Rasterize(context.Background(), doc, 1, 72)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if b := img.Bounds(); b.Dx() < b.Dy() {
		t.Errorf("landscape page rendered as %dx%d", b.Dx(), b.Dy())
	}
	if _, err := (MuPDF{}).Rasterize(context.Background(), doc, 2, 72); !errors.Is(err, ErrRasterize) {
		t.Errorf("out of range err = %v, want ErrRasterize", err)
	}
}

func TestNew(t *testing.T) {
	for _, engine := range []string{"", EnginePoppler, EngineMuPDF} {
		r, err := New(engine, "")
		if err != nil {
			t.Errorf("New(%q): %v", engine, err)
			continue
		}
		if engine != "" && r.Name() != engine {
			t.Errorf("New(%q).Name() = %s", engine, r.Name())
		}
	}
	if _, err := New("ghostscript", ""); err == nil {
		t.Error("expected error for unknown engine")
	}
}
