package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/testutil"
)

type stubRaster struct{}

func (stubRaster) Name() string { return "stub" }

func (stubRaster) Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 8, 8)), nil
}

type stubOCR struct{}

func (stubOCR) Name() string { return "stub-ocr" }

func (stubOCR) Recognize(ctx context.Context, in ocr.Input, progress ocr.Progress) (ocr.Result, error) {
	return ocr.Result{Text: "stub"}, nil
}

// newTestServer builds a server on a free port with stub engines.
func newTestServer(t *testing.T) (*Server, testutil.ServerConfig) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	srv, err := New(Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		Home:       h,
		Rasterizer: stubRaster{},
		OCR:        stubOCR{},
		Logger:     cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg
}

// startServer runs srv until the test ends.
func startServer(t *testing.T, srv *Server, url string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	starter := testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(url, 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
}

func TestServer_FullLifecycle(t *testing.T) {
	srv, cfg := newTestServer(t)
	startServer(t, srv, cfg.URL())

	ctx := context.Background()
	client := api.NewClient(cfg.URL())

	t.Run("health_endpoint", func(t *testing.T) {
		var health endpoints.HealthResponse
		if err := client.Get(ctx, "/health", &health); err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("health.Status = %q, want %q", health.Status, "ok")
		}
	})

	pdfPath := filepath.Join(t.TempDir(), "contract.pdf")
	if err := os.WriteFile(pdfPath, testutil.PagesPDF(t, 2), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	var doc endpoints.DocumentResponse
	t.Run("load_document", func(t *testing.T) {
		if err := client.Upload(ctx, "/api/documents", "file", pdfPath, nil, &doc); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if doc.Name != "contract.pdf" || doc.PageCount != 2 {
			t.Errorf("document = %+v, want contract.pdf with 2 pages", doc.Info)
		}
	})

	t.Run("edit_and_download", func(t *testing.T) {
		var res endpoints.MutationResponse
		if err := client.Post(ctx, "/api/documents/"+doc.ID+"/pages", endpoints.InsertPageRequest{Index: 2}, &res); err != nil {
			t.Fatalf("insert page failed: %v", err)
		}
		if res.PageCount != 3 {
			t.Errorf("page count = %d, want 3", res.PageCount)
		}

		var buf bytes.Buffer
		if err := client.Download(ctx, "/api/documents/"+doc.ID+"/download", &buf); err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Error("download is not a PDF")
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.Sessions != 1 || status.Renderer != "stub" || status.OCR != "stub-ocr" {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("home_created", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(cfg.HomeDir, home.ExportsDirName)); err != nil {
			t.Errorf("exports dir missing: %v", err)
		}
	})

	t.Run("close_document", func(t *testing.T) {
		if err := client.Delete(ctx, "/api/documents/"+doc.ID, nil); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		resp, err := http.Get(cfg.URL() + "/api/documents/" + doc.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
		var e endpoints.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			t.Errorf("error body = %+v, err = %v", e, err)
		}
	})
}
