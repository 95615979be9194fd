package edit

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/testutil"
)

func mustCount(t *testing.T, doc []byte) int {
	t.Helper()
	n, err := PageCount(doc)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	return n
}

// pageLabels returns the "Page N" label printed on each fixture page.
func pageLabels(t *testing.T, doc []byte) []string {
	t.Helper()
	pages, err := extract.AllText(doc)
	if err != nil {
		t.Fatalf("AllText: %v", err)
	}
	labels := make([]string, len(pages))
	for i, p := range pages {
		labels[i] = strings.TrimSpace(p.Text)
	}
	return labels
}

func TestDeletePage_NeverBelowOne(t *testing.T) {
	ctx := context.Background()
	doc := testutil.PagesPDF(t, 4)

	for want := 3; want >= 1; want-- {
		next, err := DeletePage(0)(ctx, doc)
		if err != nil {
			t.Fatalf("DeletePage with %d pages: %v", want+1, err)
		}
		if got := mustCount(t, next); got != want {
			t.Fatalf("page count = %d, want %d", got, want)
		}
		doc = next
	}

	if _, err := DeletePage(0)(ctx, doc); !errors.Is(err, ErrNoOp) {
		t.Errorf("deleting the last page: err = %v, want ErrNoOp", err)
	}
}

func TestDeletePage_OutOfRange(t *testing.T) {
	doc := testutil.PagesPDF(t, 2)
	for _, i := range []int{-1, 2, 10} {
		if _, err := DeletePage(i)(context.Background(), doc); !errors.Is(err, ErrNoOp) {
			t.Errorf("DeletePage(%d) err = %v, want ErrNoOp", i, err)
		}
	}
}

func TestDeletePage_RemovesSelected(t *testing.T) {
	doc := testutil.PagesPDF(t, 3)
	next, err := DeletePage(1)(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Page 1", "Page 3"}
	if diff := cmp.Diff(want, pageLabels(t, next)); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertBlankPage_InheritsFirstPageSize(t *testing.T) {
	sizes := []testutil.Size{{W: 300, H: 400}, {W: 500, H: 700}, {W: 450, H: 650}}
	doc := testutil.PDF(t, sizes...)

	before, err := PageDims(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != len(sizes) {
		t.Fatalf("fixture has %d pages, want %d", len(before), len(sizes))
	}
	for i, s := range sizes {
		if !sameSize(before[i], s) {
			t.Fatalf("fixture page %d is %.2fx%.2f, want %.0fx%.0f", i, before[i].Width, before[i].Height, s.W, s.H)
		}
	}

	next, err := InsertBlankPage(2)(context.Background(), doc)
	if err != nil {
		t.Fatalf("InsertBlankPage: %v", err)
	}

	dims, err := PageDims(next)
	if err != nil {
		t.Fatal(err)
	}
	if len(dims) != 4 {
		t.Fatalf("page count = %d, want 4", len(dims))
	}
	if !sameSize(dims[2], sizes[0]) {
		t.Errorf("new page is %.2fx%.2f, want first page's %.0fx%.0f", dims[2].Width, dims[2].Height, sizes[0].W, sizes[0].H)
	}
	if !sameSize(dims[3], sizes[2]) {
		t.Errorf("page after insertion is %.2fx%.2f, want %.0fx%.0f", dims[3].Width, dims[3].Height, sizes[2].W, sizes[2].H)
	}

	labels := pageLabels(t, next)
	if labels[2] != "" {
		t.Errorf("inserted page has text %q, want blank", labels[2])
	}
	if labels[3] != "Page 3" {
		t.Errorf("page after insertion = %q, want Page 3", labels[3])
	}
}

func sameSize(d types.Dim, s testutil.Size) bool {
	return math.Abs(d.Width-s.W) <= 0.5 && math.Abs(d.Height-s.H) <= 0.5
}

func TestInsertBlankPage_Positions(t *testing.T) {
	tests := []struct {
		name  string
		index int
		blank int
	}{
		{"front", 0, 0},
		{"end", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testutil.PagesPDF(t, 2)
			next, err := InsertBlankPage(tt.index)(context.Background(), doc)
			if err != nil {
				t.Fatal(err)
			}
			labels := pageLabels(t, next)
			if len(labels) != 3 {
				t.Fatalf("page count = %d, want 3", len(labels))
			}
			if labels[tt.blank] != "" {
				t.Errorf("page %d = %q, want blank", tt.blank, labels[tt.blank])
			}
		})
	}
}

func TestInsertBlankPage_OutOfRange(t *testing.T) {
	doc := testutil.PagesPDF(t, 2)
	for _, i := range []int{-1, 3} {
		if _, err := InsertBlankPage(i)(context.Background(), doc); !errors.Is(err, ErrNoOp) {
			t.Errorf("InsertBlankPage(%d) err = %v, want ErrNoOp", i, err)
		}
	}
}

func TestReorderPages(t *testing.T) {
	doc := testutil.PagesPDF(t, 3)

	tests := []struct {
		name  string
		order []int
		want  []string
	}{
		{"reverse", []int{2, 1, 0}, []string{"Page 3", "Page 2", "Page 1"}},
		{"rotate", []int{1, 2, 0}, []string{"Page 2", "Page 3", "Page 1"}},
		{"out of range skipped", []int{2, 7, 0, 1, -1}, []string{"Page 3", "Page 1", "Page 2"}},
		{"duplicate", []int{0, 0}, []string{"Page 1", "Page 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := ReorderPages(tt.order)(context.Background(), doc)
			if err != nil {
				t.Fatalf("ReorderPages(%v): %v", tt.order, err)
			}
			if diff := cmp.Diff(tt.want, pageLabels(t, next)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReorderPages_NothingValid(t *testing.T) {
	doc := testutil.PagesPDF(t, 2)
	if _, err := ReorderPages([]int{5, -2})(context.Background(), doc); !errors.Is(err, ErrNoOp) {
		t.Errorf("err = %v, want ErrNoOp", err)
	}
	if _, err := ReorderPages(nil)(context.Background(), doc); !errors.Is(err, ErrNoOp) {
		t.Errorf("empty order err = %v, want ErrNoOp", err)
	}
}

func TestSplitAndMerge(t *testing.T) {
	ctx := context.Background()
	doc := testutil.PagesPDF(t, 3)

	first, second, err := Split(ctx, doc, 1)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if diff := cmp.Diff([]string{"Page 1"}, pageLabels(t, first)); diff != "" {
		t.Errorf("first part (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Page 2", "Page 3"}, pageLabels(t, second)); diff != "" {
		t.Errorf("second part (-want +got):\n%s", diff)
	}

	merged, err := Merge(ctx, second, first)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if diff := cmp.Diff([]string{"Page 2", "Page 3", "Page 1"}, pageLabels(t, merged)); diff != "" {
		t.Errorf("merged (-want +got):\n%s", diff)
	}
}

func TestSplit_Bounds(t *testing.T) {
	doc := testutil.PagesPDF(t, 2)
	for _, at := range []int{0, 2, -1} {
		if _, _, err := Split(context.Background(), doc, at); !errors.Is(err, ErrNoOp) {
			t.Errorf("Split(%d) err = %v, want ErrNoOp", at, err)
		}
	}
	if _, err := Merge(context.Background()); !errors.Is(err, ErrNoOp) {
		t.Errorf("Merge() err = %v, want ErrNoOp", err)
	}
}

func TestOps_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := testutil.PagesPDF(t, 2)

	if _, err := DeletePage(0)(ctx, doc); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestOps_DoNotModifyInput(t *testing.T) {
	doc := testutil.PagesPDF(t, 3)
	orig := append([]byte(nil), doc...)

	ops := []Op{DeletePage(0), InsertBlankPage(1), ReorderPages([]int{2, 1, 0})}
	for _, op := range ops {
		if _, err := op(context.Background(), doc); err != nil {
			t.Fatal(err)
		}
	}
	if string(orig) != string(doc) {
		t.Error("operation modified its input")
	}
}
