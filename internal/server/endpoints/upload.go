package endpoints

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/svcctx"
)

var (
	// errUnsupportedType is returned for uploads of the wrong media type.
	errUnsupportedType = errors.New("unsupported media type")
	// errBadUpload is returned for a missing or unreadable upload.
	errBadUpload = errors.New("bad upload")
)

// upload is a file received with a request.
type upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// maxUpload returns the configured upload limit.
func maxUpload(r *http.Request) int64 {
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		return cm.Get().MaxUploadBytes()
	}
	return config.DefaultConfig().MaxUploadBytes()
}

// readUpload reads a file from the multipart field, or the whole body when
// the request is not multipart. The raw form names the file with ?name=.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (upload, error) {
	limit := maxUpload(r)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return upload{}, fmt.Errorf("%w: failed to read body: %w", errBadUpload, err)
		}
		if len(data) == 0 {
			return upload{}, fmt.Errorf("%w: request body is empty", errBadUpload)
		}
		return upload{Name: r.URL.Query().Get("name"), ContentType: mediaType, Data: data}, nil
	}

	// Parse multipart form with 32MB max memory; larger parts spill to disk
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return upload{}, fmt.Errorf("%w: failed to parse form: %w", errBadUpload, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, fh, err := r.FormFile(field)
	if err != nil {
		return upload{}, fmt.Errorf("%w: no %q file uploaded", errBadUpload, field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("%w: failed to read uploaded file: %w", errBadUpload, err)
	}
	ctype, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	return upload{Name: fh.Filename, ContentType: ctype, Data: data}, nil
}

// checkPDF accepts an upload declared as application/pdf, or one whose
// content sniffs as PDF when the client sent a generic type.
func checkPDF(u upload) error {
	if u.ContentType == "application/pdf" {
		return nil
	}
	generic := u.ContentType == "" || u.ContentType == "application/octet-stream"
	if generic && http.DetectContentType(u.Data) == "application/pdf" {
		return nil
	}
	return fmt.Errorf("%w: %s: only application/pdf documents can be loaded", errUnsupportedType, orUnknown(u.ContentType))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
