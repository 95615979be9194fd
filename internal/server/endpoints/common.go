package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/render"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// errFeatureDisabled is returned for endpoints behind a disabled toggle.
var errFeatureDisabled = errors.New("feature disabled")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, schema.ErrInvalid), errors.Is(err, edit.ErrPageRange),
		errors.Is(err, extract.ErrPageRange), errors.Is(err, edit.ErrEmptyInvoice),
		errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	case errors.Is(err, errFeatureDisabled):
		return http.StatusForbidden
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrNoDocument),
		errors.Is(err, render.ErrNoDocument),
		errors.Is(err, render.ErrStaleRender):
		return http.StatusConflict
	case errors.Is(err, ocr.ErrUnsupportedMedia), errors.Is(err, errUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, document.ErrLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ocr.ErrExternalService), errors.Is(err, render.ErrRasterize):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeErr writes err with the status it maps to.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// sessionFrom looks up the session named by the {id} path value. It writes
// the error response and returns nil when there is none.
func sessionFrom(w http.ResponseWriter, r *http.Request) *document.Session {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil
	}
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return nil
	}
	s, err := store.Get(id)
	if err != nil {
		writeErr(w, err)
		return nil
	}
	return s
}

// adapterFor returns the render adapter of s.
func adapterFor(w http.ResponseWriter, r *http.Request, s *document.Session) *render.Adapter {
	views := svcctx.ViewsFrom(r.Context())
	if views == nil {
		writeError(w, http.StatusServiceUnavailable, "renderer not initialized")
		return nil
	}
	return views.For(s)
}

// decodeBody validates the request body against the named schema and
// decodes it into dst. It writes the error response and returns false on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	v := svcctx.ValidatorFrom(r.Context())
	if v == nil {
		var err error
		if v, err = schema.Default(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return false
		}
	}
	if err := v.Decode(name, r.Body, dst); err != nil {
		writeErr(w, err)
		return false
	}
	return true
}

// requireFeature writes 403 and returns false unless the toggle is on.
func requireFeature(w http.ResponseWriter, r *http.Request, name string, on func(config.Features) bool) bool {
	if on(featuresFrom(r)) {
		return true
	}
	writeErr(w, fmt.Errorf("%w: %s", errFeatureDisabled, name))
	return false
}

// pageIndex parses the 0-based {index} path value.
func pageIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "page index must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// checkPage writes an error and returns false unless s has a document with
// a page at the 0-based idx.
func checkPage(w http.ResponseWriter, s *document.Session, idx int) bool {
	snap, err := s.Snapshot()
	if err != nil {
		writeErr(w, err)
		return false
	}
	if idx >= snap.PageCount {
		writeErr(w, fmt.Errorf("%w: page %d of %d", edit.ErrPageRange, idx, snap.PageCount))
		return false
	}
	return true
}

// createSession stores data as a new session named name.
func createSession(r *http.Request, name string, data []byte) (*document.Session, error) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		return nil, errors.New("session store not initialized")
	}
	s := store.Create()
	if views := svcctx.ViewsFrom(r.Context()); views != nil {
		views.For(s)
	}
	if _, err := s.LoadBytes(r.Context(), name, data); err != nil {
		removeSession(r, s.ID())
		return nil, err
	}
	return s, nil
}

// removeSession drops a session and its view.
func removeSession(r *http.Request, id string) error {
	if views := svcctx.ViewsFrom(r.Context()); views != nil {
		views.Remove(id)
	}
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		return errors.New("session store not initialized")
	}
	return store.Delete(id)
}

// DocumentResponse describes a session and its view.
type DocumentResponse struct {
	document.Info
	View render.Status `json:"view"`
}

func describeSession(r *http.Request, s *document.Session) DocumentResponse {
	resp := DocumentResponse{Info: s.Info()}
	if views := svcctx.ViewsFrom(r.Context()); views != nil {
		resp.View = views.For(s).View().Status()
	}
	return resp
}

// MutationResponse is returned by edit endpoints.
type MutationResponse struct {
	SessionID string `json:"session_id"`
	document.ApplyResult
}

// applyOp runs op on the session and writes the outcome.
func applyOp(w http.ResponseWriter, r *http.Request, s *document.Session, label string, op edit.Op) {
	res, err := s.Apply(r.Context(), label, op)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{SessionID: s.ID(), ApplyResult: res})
}
