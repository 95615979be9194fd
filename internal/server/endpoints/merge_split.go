package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/export"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/svcctx"
)

func mergeSplitEnabled(f config.Features) bool { return f.MergeSplit }

// MergeRequest is the body of POST /api/documents/merge.
type MergeRequest struct {
	SessionIDs []string `json:"session_ids"`
	Name       string   `json:"name,omitempty"`
}

// MergeEndpoint handles POST /api/documents/merge.
type MergeEndpoint struct{}

func (e *MergeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/merge", e.handler
}

func (e *MergeEndpoint) RequiresInit() bool { return true }

func (e *MergeEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Merge documents
//	@Description	Concatenate the current documents of several sessions into a new session
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MergeRequest	true	"Sessions in order"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/merge [post]
func (e *MergeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if !requireFeature(w, r, "merge_split", mergeSplitEnabled) {
		return
	}
	var req MergeRequest
	if !decodeBody(w, r, schema.Merge, &req) {
		return
	}
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}

	docs := make([][]byte, 0, len(req.SessionIDs))
	var first string
	for _, id := range req.SessionIDs {
		s, err := store.Get(id)
		if err != nil {
			writeErr(w, fmt.Errorf("%s: %w", id, err))
			return
		}
		snap, err := s.Snapshot()
		if err != nil {
			writeErr(w, fmt.Errorf("%s: %w", id, err))
			return
		}
		if first == "" {
			first = s.Name()
		}
		docs = append(docs, snap.Bytes)
	}

	out, err := edit.Merge(r.Context(), docs...)
	if err != nil {
		writeErr(w, fmt.Errorf("%w: merge: %w", document.ErrOperation, err))
		return
	}
	s, err := createSession(r, export.FileName(first, req.Name, "merged-"), out)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, describeSession(r, s))
}

func (e *MergeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "merge <id> <id>...",
		Short: "Merge sessions into a new session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Post(cmd.Context(), "/api/documents/merge", MergeRequest{SessionIDs: args, Name: name}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the merged document")
	return cmd
}

// SplitRequest is the body of POST /api/documents/{id}/split.
type SplitRequest struct {
	// At is the page count of the first part.
	At int `json:"at"`
}

// SplitResponse lists the sessions created by a split.
type SplitResponse struct {
	Parts []DocumentResponse `json:"parts"`
}

// SplitEndpoint handles POST /api/documents/{id}/split.
type SplitEndpoint struct{}

func (e *SplitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/split", e.handler
}

func (e *SplitEndpoint) RequiresInit() bool { return true }

func (e *SplitEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Split a document
//	@Description	Open pages [0, at) and [at, n) as two new sessions. The source session is unchanged.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		SplitRequest	true	"Split point"
//	@Success		201		{object}	SplitResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/split [post]
func (e *SplitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if !requireFeature(w, r, "merge_split", mergeSplitEnabled) {
		return
	}
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req SplitRequest
	if !decodeBody(w, r, schema.Split, &req) {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}
	first, second, err := edit.Split(r.Context(), snap.Bytes, req.At)
	if errors.Is(err, edit.ErrNoOp) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("split point must be between 1 and %d", snap.PageCount-1))
		return
	}
	if err != nil {
		writeErr(w, fmt.Errorf("%w: split: %w", document.ErrOperation, err))
		return
	}

	base := strings.TrimSuffix(s.Name(), ".pdf")
	var resp SplitResponse
	for i, part := range [][]byte{first, second} {
		created, err := createSession(r, base+"-part"+strconv.Itoa(i+1)+".pdf", part)
		if err != nil {
			writeErr(w, err)
			return
		}
		resp.Parts = append(resp.Parts, describeSession(r, created))
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (e *SplitEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "split <id> <at>",
		Short: "Split a session into two new sessions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid split point: %w", err)
			}
			client := api.NewClient(getServerURL())
			var resp SplitResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/split", SplitRequest{At: at}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
