// Package ocr recognizes text in images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"sync"
)

var (
	// ErrExternalService wraps failures of the OCR engine. No partial
	// result is returned with it.
	ErrExternalService = errors.New("ocr engine failed")
	// ErrUnsupportedMedia is returned for input that is not an image.
	ErrUnsupportedMedia = errors.New("input is not an image")
)

// Input is one image to recognize.
type Input struct {
	Image     []byte
	Languages []string
	// DPI hints the engine about the image resolution; 0 leaves it unset.
	DPI int
}

// Word is a recognized word with its bounding box in image pixels.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Result is the recognized text of one image.
type Result struct {
	Text string `json:"text"`
	// Confidence is the mean word confidence in [0, 1].
	Confidence float64  `json:"confidence"`
	Words      []Word   `json:"words,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

// Progress receives the completed fraction of a recognition, from 0 to 1.
type Progress func(fraction float64)

// Engine performs OCR.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input, progress Progress) (Result, error)
}

// CheckImage sniffs data and returns its MIME type, or ErrUnsupportedMedia
// when it is not an image.
func CheckImage(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return mime, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mime)
	}
	return mime, nil
}

// Recognize validates in and runs it through e. Progress is reported from 0
// to 1 and never decreases. Engine failures are wrapped in
// ErrExternalService.
func Recognize(ctx context.Context, e Engine, in Input, progress Progress) (Result, error) {
	if _, err := CheckImage(in.Image); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	report := monotonic(progress)
	report(0)
	res, err := e.Recognize(ctx, in, report)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %s: %w", ErrExternalService, e.Name(), err)
	}
	report(1)
	return res, nil
}

// monotonic wraps p so that it only sees increasing fractions in [0, 1].
func monotonic(p Progress) Progress {
	if p == nil {
		return func(float64) {}
	}
	var mu sync.Mutex
	last := -1.0
	return func(f float64) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		mu.Lock()
		defer mu.Unlock()
		if f <= last {
			return
		}
		last = f
		p(f)
	}
}

// EncodePNG encodes img for engines that take image bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
