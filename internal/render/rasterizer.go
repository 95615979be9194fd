package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/gen2brain/go-fitz"
)

// ErrRasterize wraps failures of the rendering backend.
var ErrRasterize = errors.New("rasterizer failed")

// Engine names accepted by New.
const (
	EnginePoppler = "poppler"
	EngineMuPDF   = "mupdf"
)

// Rasterizer draws one page of a document as an image.
type Rasterizer interface {
	Name() string
	// Rasterize renders the 1-based page at the given resolution.
	Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error)
}

// New returns the rasterizer for engine. pdftoppmPath is only used by the
// poppler engine; empty means "pdftoppm" on PATH.
func New(engine, pdftoppmPath string) (Rasterizer, error) {
	switch engine {
	case "", EnginePoppler:
		return NewPoppler(pdftoppmPath), nil
	case EngineMuPDF:
		return MuPDF{}, nil
	}
	return nil, fmt.Errorf("unknown render engine %q", engine)
}

// Poppler renders with the pdftoppm command from poppler-utils.
type Poppler struct {
	Path string
}

// NewPoppler returns a Poppler rasterizer using the binary at path.
func NewPoppler(path string) *Poppler {
	if path == "" {
		path = "pdftoppm"
	}
	return &Poppler{Path: path}
}

func (p *Poppler) Name() string { return EnginePoppler }

// Available reports whether the pdftoppm binary can be found.
func (p *Poppler) Available() bool {
	_, err := exec.LookPath(p.Path)
	return err == nil
}

func (p *Poppler) Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tmpDir, err := os.MkdirTemp("", "folio-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, doc, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	// -singlefile: write <prefix>.png without a page number suffix
	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, p.Path,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.FormatFloat(dpi, 'f', 0, 64),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v (output: %s)", ErrRasterize, err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm did not create expected output: %v", ErrRasterize, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode page image: %v", ErrRasterize, err)
	}
	return img, nil
}

// MuPDF renders in-process with go-fitz.
type MuPDF struct{}

func (MuPDF) Name() string { return EngineMuPDF }

func (MuPDF) Rasterize(ctx context.Context, doc []byte, page int, dpi float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: open document: %v", ErrRasterize, err)
	}
	defer d.Close()

	if page < 1 || page > d.NumPage() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrRasterize, page, d.NumPage())
	}
	img, err := d.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: render page %d: %v", ErrRasterize, page, err)
	}
	return img, nil
}
