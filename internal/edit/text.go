package edit

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/folio/internal/fonts"
)

const (
	// DefaultFontSize is used when a request leaves the size unset.
	DefaultFontSize = 12.0

	defaultHighlight = "#FFEB3B"
)

// TextRequest places a run of text on a page.
// X and Y are in points from the bottom-left corner of the page.
type TextRequest struct {
	PageIndex int     `json:"page_index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Value     string  `json:"value"`
	Font      string  `json:"font,omitempty"`
	FontSize  float64 `json:"font_size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Weight    string  `json:"weight,omitempty"`
	Style     string  `json:"style,omitempty"`
	MaxWidth  float64 `json:"max_width,omitempty"`
}

// AnnotationRequest places a highlighted note box on a page.
type AnnotationRequest struct {
	PageIndex  int     `json:"page_index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"font_size,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
}

// AddText stamps req onto its page using the font cache to pick a font.
func AddText(req TextRequest, cache *fonts.Cache) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.Value) == "" {
			return nil, ErrNoOp
		}
		if err := checkPage(doc, req.PageIndex); err != nil {
			return nil, err
		}

		font := cache.Resolve(req.Font, req.Weight, req.Style)
		size := req.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		text := req.Value
		if req.MaxWidth > 0 {
			text = strings.Join(WrapText(req.Value, font.Name, size, req.MaxWidth), "\n")
		}

		desc := stampDescription(font.Name, size, NormalizeColor(req.Color), req.X, req.Y)
		return stamp(doc, req.PageIndex, text, desc)
	}
}

// AddAnnotation stamps a bordered note with a background highlight onto its
// page.
func AddAnnotation(req AnnotationRequest) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.Text) == "" {
			return nil, ErrNoOp
		}
		if err := checkPage(doc, req.PageIndex); err != nil {
			return nil, err
		}

		size := req.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		bg := defaultHighlight
		if req.Background != "" {
			bg = NormalizeColor(req.Background)
		}

		desc := stampDescription("Helvetica", size, NormalizeColor(req.Color), req.X, req.Y) +
			fmt.Sprintf(", backgroundcolor:%s, margins:4, border:1 #7F7F7F", bg)
		return stamp(doc, req.PageIndex, req.Text, desc)
	}
}

func checkPage(doc []byte, index int) error {
	n, err := PageCount(doc)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d of %d", ErrPageRange, index, n)
	}
	return nil
}

// stampDescription builds a pdfcpu stamp description that places text with
// its bottom-left corner at (x, y), unscaled and unrotated.
func stampDescription(fontName string, size float64, color string, x, y float64) string {
	return fmt.Sprintf(
		"fontname:%s, points:%s, fillcolor:%s, position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, opacity:1",
		fontName,
		strconv.FormatFloat(size, 'f', -1, 64),
		color,
		strconv.FormatFloat(x, 'f', 2, 64),
		strconv.FormatFloat(y, 'f', 2, 64),
	)
}

func stamp(doc []byte, index int, text, desc string) ([]byte, error) {
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("invalid stamp: %w", err)
	}

	var out bytes.Buffer
	sel := []string{strconv.Itoa(index + 1)}
	if err := api.AddWatermarks(bytes.NewReader(doc), &out, sel, wm, Configuration()); err != nil {
		return nil, fmt.Errorf("failed to stamp page %d: %w", index, err)
	}
	return out.Bytes(), nil
}

// NormalizeColor returns a "#RRGGBB" color. It accepts "#RGB", "#RRGGBB"
// and the same without the leading '#'. Empty or malformed input is black.
func NormalizeColor(s string) string {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return "#000000"
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return "#000000"
	}
	return "#" + strings.ToUpper(h)
}

// WrapText breaks text into lines no wider than maxWidth points when set in
// fontName at size. Explicit newlines are kept. Installed fonts are measured
// with Helvetica metrics.
func WrapText(text, fontName string, size, maxWidth float64) []string {
	family, style, ok := fonts.FpdfFace(fontName)
	if !ok {
		family, style = "Helvetica", ""
	}

	m := fpdf.New("P", "pt", "A4", "")
	m.SetCellMargin(0)
	m.SetFont(family, style, size)

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, m.SplitText(para, maxWidth)...)
	}
	return lines
}

// TextWidth returns the width of text in points for a core font.
func TextWidth(text, fontName string, size float64) float64 {
	family, style, ok := fonts.FpdfFace(fontName)
	if !ok {
		family, style = "Helvetica", ""
	}
	m := fpdf.New("P", "pt", "A4", "")
	m.SetFont(family, style, size)
	return m.GetStringWidth(text)
}
