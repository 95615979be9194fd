package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/render"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/internal/testutil"
)

type fakeRaster struct {
	calls atomic.Int32
}

func (f *fakeRaster) Name() string { return "fake" }

func (f *fakeRaster) Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error) {
	f.calls.Add(1)
	return image.NewRGBA(image.Rect(0, 0, 20, 30)), nil
}

type fakeOCR struct{}

func (fakeOCR) Name() string { return "fake-ocr" }

func (fakeOCR) Recognize(ctx context.Context, in ocr.Input, progress ocr.Progress) (ocr.Result, error) {
	if progress != nil {
		progress(1)
	}
	return ocr.Result{Text: "hello world", Confidence: 0.9, Languages: in.Languages}, nil
}

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *document.Store
	views   *render.Views
	raster  *fakeRaster
	home    *home.Dir
}

// newEnv wires all endpoints against in-memory services. configYAML, when
// not empty, is written to a config file and loaded through a Manager.
func newEnv(t *testing.T, configYAML string) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	var cm *config.Manager
	if configYAML != "" {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if cm, err = config.NewManager(path); err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
	}

	validator, err := schema.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	raster := &fakeRaster{}
	env := &testEnv{
		t:      t,
		store:  document.NewStore(document.StoreConfig{Logger: logger, Fonts: config.DefaultConfig().FontDefaults()}),
		raster: raster,
		home:   h,
	}
	env.views = render.NewViews(raster, render.DefaultBaseDPI, logger)

	svc := &svcctx.Services{
		Store:         env.store,
		Views:         env.views,
		OCR:           fakeOCR{},
		Validator:     validator,
		ConfigManager: cm,
		Logger:        logger,
		Home:          h,
	}

	reg := api.NewRegistry()
	for _, ep := range All(Config{}) {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })
	env.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), svc)))
	})
	return env
}

func (e *testEnv) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			e.t.Fatalf("failed to marshal body: %v", err)
		}
	}
	return e.do(method, path, "application/json", data)
}

// open loads an n-page document and returns its session id.
func (e *testEnv) open(name string, pages int) string {
	e.t.Helper()
	rec := e.do("POST", "/api/documents?name="+name, "application/pdf", testutil.PagesPDF(e.t, pages))
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("load status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp DocumentResponse
	decode(e.t, rec, &resp)
	return resp.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	part.Write(data)
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func TestLoadDocument(t *testing.T) {
	env := newEnv(t, "")

	t.Run("raw body", func(t *testing.T) {
		rec := env.do("POST", "/api/documents?name=report.pdf", "application/pdf", testutil.PagesPDF(t, 3))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var resp DocumentResponse
		decode(t, rec, &resp)
		if resp.Name != "report.pdf" || resp.PageCount != 3 || !resp.Loaded {
			t.Errorf("info = %+v, want report.pdf with 3 pages", resp.Info)
		}
		if resp.View.State != render.StateReady || resp.View.View.CurrentPage != 1 {
			t.Errorf("view = %+v, want ready on page 1", resp.View)
		}
	})

	t.Run("multipart with generic type", func(t *testing.T) {
		body, ctype := multipartBody(t, "file", "scan.pdf", "application/octet-stream", testutil.PagesPDF(t, 1))
		rec := env.do("POST", "/api/documents", ctype, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var resp DocumentResponse
		decode(t, rec, &resp)
		if resp.Name != "scan.pdf" {
			t.Errorf("name = %q, want scan.pdf", resp.Name)
		}
	})

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        int
	}{
		{"not a pdf", "text/plain", []byte("hello"), http.StatusUnsupportedMediaType},
		{"corrupt pdf", "application/pdf", []byte("%PDF-1.7 garbage"), http.StatusUnprocessableEntity},
		{"empty body", "application/pdf", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.store.Len()
			rec := env.do("POST", "/api/documents", tt.contentType, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if env.store.Len() != before {
				t.Errorf("store has %d sessions, want %d", env.store.Len(), before)
			}
		})
	}
}

func TestDocumentLifecycle(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("a.pdf", 2)

	rec := env.do("GET", "/api/documents", "", nil)
	var list ListDocumentsResponse
	decode(t, rec, &list)
	if len(list.Documents) != 1 || list.Documents[0].ID != id {
		t.Fatalf("documents = %+v, want one with id %s", list.Documents, id)
	}

	rec = env.doJSON("DELETE", "/api/documents/"+id+"/pages/0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete page status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = env.doJSON("POST", "/api/documents/"+id+"/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body = %s", rec.Code, rec.Body)
	}
	var reset DocumentResponse
	decode(t, rec, &reset)
	if reset.PageCount != 2 {
		t.Errorf("page count after reset = %d, want 2", reset.PageCount)
	}

	rec = env.doJSON("DELETE", "/api/documents/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", rec.Code)
	}
	if env.views.Len() != 0 {
		t.Errorf("views = %d after close, want 0", env.views.Len())
	}
	if rec := env.do("GET", "/api/documents/"+id, "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after close status = %d, want 404", rec.Code)
	}
}

func TestEmptySession(t *testing.T) {
	env := newEnv(t, "")
	s := env.store.Create()
	base := "/api/documents/" + s.ID()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"add text", "POST", base + "/text", edit.TextRequest{PageIndex: 0, X: 10, Y: 10, Value: "x"}},
		{"delete page", "DELETE", base + "/pages/0", nil},
		{"download", "GET", base + "/download", nil},
		{"view image", "GET", base + "/view/image", nil},
		{"page text", "GET", base + "/pages/0/text", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(tt.method, tt.path, tt.body)
			if rec.Code != http.StatusConflict {
				t.Errorf("status = %d, want 409 (body %s)", rec.Code, rec.Body)
			}
		})
	}
}

func TestEdits(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("a.pdf", 3)
	base := "/api/documents/" + id

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantCode  int
		wantPages int
		applied   bool
	}{
		{"add text", "POST", base + "/text", edit.TextRequest{PageIndex: 0, X: 72, Y: 700, Value: "Approved", Font: "serif"}, http.StatusOK, 3, true},
		{"annotate", "POST", base + "/annotations", edit.AnnotationRequest{PageIndex: 1, X: 72, Y: 600, Text: "check"}, http.StatusOK, 3, true},
		{"insert page", "POST", base + "/pages", InsertPageRequest{Index: 1}, http.StatusOK, 4, true},
		{"delete page", "DELETE", base + "/pages/3", nil, http.StatusOK, 3, true},
		{"reorder", "POST", base + "/pages/reorder", ReorderPagesRequest{Order: []int{2, 0, 1}}, http.StatusOK, 3, true},
		{"text off the end", "POST", base + "/text", edit.TextRequest{PageIndex: 9, X: 1, Y: 1, Value: "x"}, http.StatusBadRequest, 0, false},
		{"schema violation", "POST", base + "/text", map[string]any{"x": 1}, http.StatusBadRequest, 0, false},
		{"bad index", "DELETE", base + "/pages/minus", nil, http.StatusBadRequest, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(tt.method, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp MutationResponse
			decode(t, rec, &resp)
			if resp.PageCount != tt.wantPages || resp.Applied != tt.applied {
				t.Errorf("result = %+v, want %d pages applied=%v", resp.ApplyResult, tt.wantPages, tt.applied)
			}
		})
	}

	t.Run("view follows mutations", func(t *testing.T) {
		a := env.views.For(mustGet(t, env.store, id))
		if got := a.View().Status().PageCount; got != 3 {
			t.Errorf("view page count = %d, want 3", got)
		}
	})
}

func mustGet(t *testing.T, store *document.Store, id string) *document.Session {
	t.Helper()
	s, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return s
}

func TestExtractMergeSplit(t *testing.T) {
	env := newEnv(t, "")
	a := env.open("a.pdf", 3)
	b := env.open("b.pdf", 2)

	t.Run("extract", func(t *testing.T) {
		rec := env.doJSON("POST", "/api/documents/"+a+"/extract", ExtractPagesRequest{Pages: []int{0, 2}})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var resp DocumentResponse
		decode(t, rec, &resp)
		if resp.PageCount != 2 || resp.ID == a {
			t.Errorf("extracted = %+v, want a new 2-page session", resp.Info)
		}
		if got := mustGet(t, env.store, a).PageCount(); got != 3 {
			t.Errorf("source page count = %d, want 3", got)
		}
	})

	t.Run("merge", func(t *testing.T) {
		rec := env.doJSON("POST", "/api/documents/merge", MergeRequest{SessionIDs: []string{a, b}})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var resp DocumentResponse
		decode(t, rec, &resp)
		if resp.PageCount != 5 {
			t.Errorf("merged page count = %d, want 5", resp.PageCount)
		}
	})

	t.Run("merge unknown session", func(t *testing.T) {
		rec := env.doJSON("POST", "/api/documents/merge", MergeRequest{SessionIDs: []string{a, "missing"}})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("split", func(t *testing.T) {
		rec := env.doJSON("POST", "/api/documents/"+a+"/split", SplitRequest{At: 1})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var resp SplitResponse
		decode(t, rec, &resp)
		var got []int
		for _, p := range resp.Parts {
			got = append(got, p.PageCount)
		}
		if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
			t.Errorf("part page counts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("split at end", func(t *testing.T) {
		rec := env.doJSON("POST", "/api/documents/"+a+"/split", SplitRequest{At: 3})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestFeatureToggles(t *testing.T) {
	env := newEnv(t, "features:\n  ocr: false\n  merge_split: false\n")
	id := env.open("a.pdf", 2)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"merge", "POST", "/api/documents/merge", MergeRequest{SessionIDs: []string{id, id}}},
		{"split", "POST", "/api/documents/" + id + "/split", SplitRequest{At: 1}},
		{"page ocr", "POST", "/api/documents/" + id + "/pages/0/ocr", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(tt.method, tt.path, tt.body)
			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403 (body %s)", rec.Code, rec.Body)
			}
		})
	}

	rec := env.do("GET", "/api/features", "", nil)
	var f config.Features
	decode(t, rec, &f)
	if f.OCR || f.MergeSplit {
		t.Errorf("features = %+v, want ocr and merge_split off", f)
	}
}

func TestFormsAndInvoice(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("a.pdf", 1)

	rec := env.do("GET", "/api/documents/"+id+"/form", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("form status = %d, body = %s", rec.Code, rec.Body)
	}
	var form FormResponse
	decode(t, rec, &form)
	if form.Fields == nil || len(form.Fields) != 0 {
		t.Errorf("fields = %v, want empty list", form.Fields)
	}

	rec = env.doJSON("POST", "/api/documents/"+id+"/form", FillFormRequest{Fields: map[string]string{"name": "x"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("fill status = %d, body = %s", rec.Code, rec.Body)
	}
	var fill MutationResponse
	decode(t, rec, &fill)
	if fill.Applied {
		t.Errorf("fill on a formless document applied")
	}

	inv := edit.Invoice{
		Number:     "42",
		ClientName: "Acme",
		Items:      []edit.Item{{Name: "Consulting", Amount: 1200.5}},
	}
	rec = env.doJSON("POST", "/api/invoices", inv)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invoice status = %d, body = %s", rec.Code, rec.Body)
	}
	var doc DocumentResponse
	decode(t, rec, &doc)
	if doc.Name != "invoice-42.pdf" || doc.PageCount < 1 {
		t.Errorf("invoice = %+v", doc.Info)
	}
}

func TestFillForm(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do("POST", "/api/documents?name=form.pdf", "application/pdf", testutil.FormPDF(t, "company", "agree"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("load status = %d, body = %s", rec.Code, rec.Body)
	}
	var loaded DocumentResponse
	decode(t, rec, &loaded)
	id := loaded.ID

	rec = env.doJSON("POST", "/api/documents/"+id+"/form", FillFormRequest{Fields: map[string]string{
		"company": "Acme",
		"agree":   "yes",
		"unknown": "ignored",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("fill status = %d, body = %s", rec.Code, rec.Body)
	}
	var fill MutationResponse
	decode(t, rec, &fill)
	if !fill.Applied {
		t.Fatal("fill not applied")
	}

	rec = env.do("GET", "/api/documents/"+id+"/form", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("form status = %d, body = %s", rec.Code, rec.Body)
	}
	var form FormResponse
	decode(t, rec, &form)
	values := make(map[string]string)
	for _, f := range form.Fields {
		values[f.Name] = f.Value
	}
	if values["company"] != "Acme" {
		t.Errorf("company = %q, want Acme", values["company"])
	}
	if v := values["agree"]; v == "" || v == "Off" {
		t.Errorf("agree = %q, want checked", v)
	}
	if _, ok := values["unknown"]; ok || len(values) != 2 {
		t.Errorf("fields = %v, want company and agree only", values)
	}
}

func TestDownloadAndExport(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("report.pdf", 1)

	rec := env.do("GET", "/api/documents/"+id+"/download", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "filename=edited-report.pdf") {
		t.Errorf("Content-Disposition = %q, want edited-report.pdf", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("download body is not a PDF")
	}

	rec = env.doJSON("POST", "/api/documents/"+id+"/export", ExportRequest{Filename: "final.pdf"})
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp ExportResponse
	decode(t, rec, &resp)
	if want := filepath.Join(env.home.ExportsDir(), "final.pdf"); resp.Path != want {
		t.Errorf("path = %q, want %q", resp.Path, want)
	}
	if _, err := os.Stat(resp.Path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestView(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("a.pdf", 3)
	base := "/api/documents/" + id + "/view"

	steps := []struct {
		name    string
		path    string
		body    any
		applied bool
		want    render.ViewState
	}{
		{"next", base + "/action", ViewActionRequest{Action: render.ActionNext}, true, render.ViewState{CurrentPage: 2, Scale: 1}},
		{"goto past end", base + "/action", ViewActionRequest{Action: render.ActionGoTo, Page: 10}, true, render.ViewState{CurrentPage: 3, Scale: 1}},
		{"next on last page", base + "/action", ViewActionRequest{Action: render.ActionNext}, true, render.ViewState{CurrentPage: 3, Scale: 1}},
		{"zoom key", base + "/key", ViewKeyRequest{Key: "+"}, true, render.ViewState{CurrentPage: 3, Scale: 1.25}},
		{"rotate key", base + "/key", ViewKeyRequest{Key: "r"}, true, render.ViewState{CurrentPage: 3, Scale: 1.25, Rotation: 90}},
		{"unknown key", base + "/key", ViewKeyRequest{Key: "q"}, false, render.ViewState{CurrentPage: 3, Scale: 1.25, Rotation: 90}},
	}
	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON("POST", tt.path, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
			}
			var resp ViewResponse
			decode(t, rec, &resp)
			if resp.Applied != tt.applied {
				t.Errorf("applied = %v, want %v", resp.Applied, tt.applied)
			}
			if diff := cmp.Diff(tt.want, resp.Status.View); diff != "" {
				t.Errorf("view mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("unknown action", func(t *testing.T) {
		rec := env.doJSON("POST", base+"/action", ViewActionRequest{Action: "spin"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("image", func(t *testing.T) {
		rec := env.do("GET", base+"/image", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		if got := rec.Header().Get("Content-Type"); got != "image/png" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := rec.Header().Get("X-Folio-Page"); got != "3" {
			t.Errorf("X-Folio-Page = %q, want 3", got)
		}
		if got := rec.Header().Get("X-Folio-Rotation"); got != "90" {
			t.Errorf("X-Folio-Rotation = %q, want 90", got)
		}
		img, err := png.Decode(rec.Body)
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		// The 20x30 page turned a quarter.
		if got := img.Bounds().Size(); got != image.Pt(30, 20) {
			t.Errorf("image size = %v, want 30x20", got)
		}
	})
}

func TestPages(t *testing.T) {
	env := newEnv(t, "")
	id := env.open("a.pdf", 2)
	base := "/api/documents/" + id + "/pages"

	rec := env.do("GET", base+"/1/text", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("text status = %d, body = %s", rec.Code, rec.Body)
	}
	var text PageTextResponse
	decode(t, rec, &text)
	if !strings.Contains(text.Text, "Page 2") {
		t.Errorf("text = %q, want it to contain %q", text.Text, "Page 2")
	}

	rec = env.do("GET", base+"/5/image", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("image out of range status = %d, want 400", rec.Code)
	}

	rec = env.do("GET", base+"/0/image?dpi=150", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("image status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = env.doJSON("POST", base+"/0/ocr?lang=eng,deu", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ocr status = %d, body = %s", rec.Code, rec.Body)
	}
	var res OCRResponse
	decode(t, rec, &res)
	if res.Text != "hello world" || res.Engine != "fake-ocr" {
		t.Errorf("ocr = %+v", res)
	}
	if diff := cmp.Diff([]string{"eng", "deu"}, res.Languages); diff != "" {
		t.Errorf("languages mismatch (-want +got):\n%s", diff)
	}
}

func TestImageOCR(t *testing.T) {
	env := newEnv(t, "")

	body, ctype := multipartBody(t, "image", "scan.png", "image/png", testutil.PNG(t, 8, 8))
	rec := env.do("POST", "/api/ocr", ctype, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	body, ctype = multipartBody(t, "image", "notes.txt", "text/plain", []byte("plain text"))
	rec = env.do("POST", "/api/ocr", ctype, body)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("non-image status = %d, want 415", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	env := newEnv(t, "")
	env.open("a.pdf", 1)

	rec := env.do("GET", "/status", "", nil)
	var resp StatusResponse
	decode(t, rec, &resp)
	if resp.Sessions != 1 || resp.Views != 1 || resp.Renderer != "fake" || resp.OCR != "fake-ocr" {
		t.Errorf("status = %+v", resp)
	}
}

func TestSwagger(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do("GET", "/swagger.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var spec struct {
		Info  map[string]any            `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	decode(t, rec, &spec)
	if spec.Info["title"] != "Folio API" {
		t.Errorf("title = %v", spec.Info["title"])
	}
	if _, ok := spec.Paths["/api/documents/{id}/view/action"]["post"]; !ok {
		t.Errorf("paths missing view action: %v", spec.Paths)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", schema.ErrInvalid), http.StatusBadRequest},
		{edit.ErrPageRange, http.StatusBadRequest},
		{errFeatureDisabled, http.StatusForbidden},
		{document.ErrNotFound, http.StatusNotFound},
		{document.ErrNoDocument, http.StatusConflict},
		{render.ErrStaleRender, http.StatusConflict},
		{ocr.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{document.ErrLoad, http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", render.ErrRasterize), http.StatusBadGateway},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{document.ErrOperation, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
