// Package tesseract implements ocr.Engine with the Tesseract library.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/jackzampolin/folio/internal/ocr"
)

// Engine runs Tesseract through gosseract. A fresh client is used per
// request.
type Engine struct {
	languages      []string
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// Config configures an Engine.
type Config struct {
	// Languages used when an input names none, e.g. ["eng"].
	Languages      []string
	TessdataPrefix string
}

// New constructs a Tesseract-backed OCR engine.
func New(cfg Config) *Engine {
	return &Engine{
		languages:      cfg.Languages,
		tessdataPrefix: cfg.TessdataPrefix,
		clientFactory:  gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input, progress ocr.Progress) (ocr.Result, error) {
	c := e.clientFactory()
	defer c.Close()

	langs := in.Languages
	if len(langs) == 0 {
		langs = e.languages
	}

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return ocr.Result{}, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	progress(0.1)

	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	progress(0.8)

	words, avgConf := extractWords(c)
	progress(0.95)

	return ocr.Result{
		Text:       strings.TrimSpace(text),
		Confidence: avgConf,
		Words:      words,
		Languages:  langs,
	}, nil
}

func extractWords(c *gosseract.Client) ([]ocr.Word, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]ocr.Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, ocr.Word{
			Text:       b.Word,
			Confidence: conf,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
		})
	}
	return words, sum / float64(len(words))
}
