package edit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DeletePage removes the page at index (0-based).
// Returns ErrNoOp for a single-page document or an out-of-range index.
func DeletePage(index int) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		n, err := PageCount(doc)
		if err != nil {
			return nil, err
		}
		if n <= 1 || index < 0 || index >= n {
			return nil, ErrNoOp
		}

		var out bytes.Buffer
		sel := []string{strconv.Itoa(index + 1)}
		if err := api.RemovePages(bytes.NewReader(doc), &out, sel, Configuration()); err != nil {
			return nil, fmt.Errorf("failed to remove page %d: %w", index, err)
		}
		return out.Bytes(), nil
	}
}

// InsertBlankPage inserts an empty page so that it ends up at index
// (0-based, 0..pageCount). The new page takes the first page's dimensions.
// Returns ErrNoOp for an out-of-range index.
func InsertBlankPage(index int) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		dims, err := PageDims(doc)
		if err != nil {
			return nil, err
		}
		n := len(dims)
		if n == 0 || index < 0 || index > n {
			return nil, ErrNoOp
		}

		desc := fmt.Sprintf("dimensions:%.2f %.2f", dims[0].Width, dims[0].Height)
		pageConf, err := pdfcpu.ParsePageConfiguration(desc, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("failed to build page configuration: %w", err)
		}

		// pdfcpu inserts relative to an existing page.
		anchor, before := index+1, true
		if index == n {
			anchor, before = n, false
		}

		var out bytes.Buffer
		sel := []string{strconv.Itoa(anchor)}
		if err := api.InsertPages(bytes.NewReader(doc), &out, sel, before, pageConf, Configuration()); err != nil {
			return nil, fmt.Errorf("failed to insert page at %d: %w", index, err)
		}
		return out.Bytes(), nil
	}
}

// ReorderPages builds a new document from the pages at the given 0-based
// indices, in order. Indices outside the document are skipped; duplicates
// are copied again. Returns ErrNoOp when no index is valid.
func ReorderPages(order []int) Op {
	return func(ctx context.Context, doc []byte) ([]byte, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		n, err := PageCount(doc)
		if err != nil {
			return nil, err
		}
		sel := selectPages(order, n)
		if len(sel) == 0 {
			return nil, ErrNoOp
		}
		return collect(doc, sel)
	}
}

// ExtractPages is ReorderPages under the name callers use when copying a
// subset out into a new document.
func ExtractPages(indices []int) Op {
	return ReorderPages(indices)
}

// selectPages converts valid 0-based indices into pdfcpu page selections.
func selectPages(indices []int, pageCount int) []string {
	sel := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= pageCount {
			continue
		}
		sel = append(sel, strconv.Itoa(i+1))
	}
	return sel
}

func collect(doc []byte, sel []string) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(doc), &out, sel, Configuration()); err != nil {
		return nil, fmt.Errorf("failed to collect pages: %w", err)
	}
	return out.Bytes(), nil
}

// Split cuts doc into two documents: pages [0, at) and [at, pageCount).
// Returns ErrNoOp unless both parts would be non-empty.
func Split(ctx context.Context, doc []byte, at int) (first, second []byte, err error) {
	if err := checkContext(ctx); err != nil {
		return nil, nil, err
	}
	n, err := PageCount(doc)
	if err != nil {
		return nil, nil, err
	}
	if at <= 0 || at >= n {
		return nil, nil, ErrNoOp
	}

	first, err = collect(doc, []string{fmt.Sprintf("1-%d", at)})
	if err != nil {
		return nil, nil, err
	}
	second, err = collect(doc, []string{fmt.Sprintf("%d-%d", at+1, n)})
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// Merge concatenates documents in order into a new document.
func Merge(ctx context.Context, docs ...[]byte) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	switch len(docs) {
	case 0:
		return nil, ErrNoOp
	case 1:
		return bytes.Clone(docs[0]), nil
	}

	rsc := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		rsc[i] = bytes.NewReader(d)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(rsc, &out, false, Configuration()); err != nil {
		return nil, fmt.Errorf("failed to merge %d documents: %w", len(docs), err)
	}
	return out.Bytes(), nil
}
