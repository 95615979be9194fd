// Package extract reads the text content of PDF pages.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrPageRange is returned for a page index outside the document.
var ErrPageRange = errors.New("page index out of range")

// Page is the text of one page.
type Page struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// PageText returns the plain text of the page at index (0-based).
func PageText(doc []byte, index int) (string, error) {
	r, err := open(doc)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= r.NumPage() {
		return "", fmt.Errorf("%w: %d of %d", ErrPageRange, index, r.NumPage())
	}
	return pageText(r.Page(index + 1))
}

// AllText returns the text of every page. Pages without a content stream
// yield empty text.
func AllText(doc []byte) ([]Page, error) {
	r, err := open(doc)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		text, err := pageText(r.Page(i))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i-1, err)
		}
		pages = append(pages, Page{Index: i - 1, Text: text})
	}
	return pages, nil
}

// Contains reports whether any page text contains s.
func Contains(doc []byte, s string) (bool, error) {
	pages, err := AllText(doc)
	if err != nil {
		return false, err
	}
	for _, p := range pages {
		if strings.Contains(p.Text, s) {
			return true, nil
		}
	}
	return false, nil
}

func open(doc []byte) (*pdf.Reader, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return r, nil
}

// pageText recovers from reader panics on malformed content streams.
func pageText(page pdf.Page) (text string, err error) {
	if page.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err = page.GetPlainText(fonts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
