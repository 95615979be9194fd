// Package export writes edited documents out of a session.
package export

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPrefix is prepended to the original file name of an export.
const DefaultPrefix = "edited-"

// FileName returns the download name for a document originally named
// original. A non-empty override wins. The result is a bare file name
// ending in ".pdf".
func FileName(original, override, prefix string) string {
	name := strings.TrimSpace(override)
	if name == "" {
		base := filepath.Base(strings.TrimSpace(original))
		if base == "." || base == string(filepath.Separator) || base == "" {
			base = "document.pdf"
		}
		name = prefix + base
	}
	name = filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// ToDir writes data to dir/name. The file is written to a temporary name
// and renamed into place so readers never see a partial file.
func ToDir(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return path, nil
}

// Download writes data as a PDF attachment named name. Non-ASCII names are
// sent in the RFC 2231 extended form.
func Download(w http.ResponseWriter, name string, data []byte) error {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(data)
	return err
}
