package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Size is a page size in points.
type Size struct {
	W, H float64
}

// A4 is the ISO A4 page size in points.
var A4 = Size{W: 595.28, H: 841.89}

// PDF builds a document with one page per size. Each page carries the text
// "Page N" near its top-left corner.
func PDF(t testing.TB, sizes ...Size) []byte {
	t.Helper()

	// fpdf omits /MediaBox for pages matching the default orientation and
	// size. A landscape default with portrait pages gives every page its own.
	doc := fpdf.New("L", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", 14)
	for i, s := range sizes {
		// "P" keeps width and height as given.
		doc.AddPageFormat("P", fpdf.SizeType{Wd: s.W, Ht: s.H})
		doc.Text(36, 48, fmt.Sprintf("Page %d", i+1))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// PagesPDF builds an n-page A4 document.
func PagesPDF(t testing.TB, n int) []byte {
	t.Helper()
	sizes := make([]Size, n)
	for i := range sizes {
		sizes[i] = A4
	}
	return PDF(t, sizes...)
}

// FormPDF builds a one-page A4 AcroForm with an empty text field and an
// unchecked checkbox. Field names are returned by edit.FormFields as given.
func FormPDF(t testing.TB, textField, checkBox string) []byte {
	t.Helper()

	layout := fmt.Sprintf(`{
	"paper": "A4P",
	"origin": "LowerLeft",
	"fonts": {
		"input": {"name": "Helvetica", "size": 12},
		"label": {"name": "Helvetica", "size": 12}
	},
	"pages": {
		"1": {
			"content": {
				"textfield": [{"id": %q, "value": "", "pos": [100, 700], "width": 200}],
				"checkbox": [{"id": %q, "value": false, "pos": [100, 650], "width": 12}]
			}
		}
	}
}`, textField, checkBox)

	var buf bytes.Buffer
	if err := api.Create(nil, strings.NewReader(layout), &buf, nil); err != nil {
		t.Fatalf("failed to build form PDF: %v", err)
	}
	return buf.Bytes()
}

// PNG encodes a solid white image of the given size.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture PNG: %v", err)
	}
	return buf.Bytes()
}

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(t testing.TB, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed", name)
	}
}
