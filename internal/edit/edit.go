// Package edit implements single-shot mutation operations on PDF bytes.
//
// Every operation reads a complete document and returns a complete new
// serialization. Operations never modify their input slice and never return
// a partially applied document: either the new bytes or an error.
package edit

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoOp is returned when an operation does not apply to the document,
// e.g. deleting the last page or an out-of-range index. Callers keep the
// current snapshot and do not report it as a failure.
var ErrNoOp = errors.New("operation not applicable")

// ErrPageRange is returned when an operation that must target an existing
// page is given an index outside the document.
var ErrPageRange = errors.New("page index out of range")

// Op transforms one document snapshot into the next.
type Op func(ctx context.Context, doc []byte) ([]byte, error)

// Configuration returns the pdfcpu configuration used by all operations.
// Validation is relaxed so that documents produced by other tools load.
func Configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in doc.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), Configuration())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// PageDims returns the width and height of every page, in points.
func PageDims(doc []byte) ([]types.Dim, error) {
	dims, err := api.PageDims(bytes.NewReader(doc), Configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	return dims, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
