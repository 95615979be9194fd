package endpoints

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// documentsGroup is the CLI subcommand for session endpoints.
const documentsGroup = "documents"

// LoadDocumentEndpoint handles POST /api/documents.
type LoadDocumentEndpoint struct{}

var _ api.Endpoint = (*LoadDocumentEndpoint)(nil)

func (e *LoadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *LoadDocumentEndpoint) RequiresInit() bool { return true }

func (e *LoadDocumentEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Open a document
//	@Description	Create a session from an uploaded PDF
//	@Tags			documents
//	@Accept			mpfd
//	@Accept			application/pdf
//	@Produce		json
//	@Param			file	formData	file	true	"PDF document"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents [post]
func (e *LoadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	u, err := readUpload(w, r, "file")
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := checkPDF(u); err != nil {
		writeErr(w, err)
		return
	}

	s, err := createSession(r, u.Name, u.Data)
	if err != nil {
		writeErr(w, err)
		return
	}
	svcctx.LoggerFrom(r.Context()).Info("document opened", "session", s.ID(), "name", u.Name)
	writeJSON(w, http.StatusCreated, describeSession(r, s))
}

func (e *LoadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.pdf>",
		Short: "Open a PDF in a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Upload(cmd.Context(), "/api/documents", "file", args[0], nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ReloadDocumentEndpoint handles POST /api/documents/{id}/load.
type ReloadDocumentEndpoint struct{}

func (e *ReloadDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/load", e.handler
}

func (e *ReloadDocumentEndpoint) RequiresInit() bool { return true }

func (e *ReloadDocumentEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Replace the document of a session
//	@Description	Load a new PDF into an existing session. A failed load leaves the session empty.
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			file	formData	file	true	"PDF document"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/documents/{id}/load [post]
func (e *ReloadDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}
	u, err := readUpload(w, r, "file")
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := checkPDF(u); err != nil {
		writeErr(w, err)
		return
	}
	if _, err := a.Load(r.Context(), u.Name, bytes.NewReader(u.Data)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeSession(r, s))
}

func (e *ReloadDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <id> <file.pdf>",
		Short: "Replace the document of a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Upload(cmd.Context(), "/api/documents/"+args[0]+"/load", "file", args[1], nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListDocumentsResponse is the response for GET /api/documents.
type ListDocumentsResponse struct {
	Documents []document.Info `json:"documents"`
}

// ListDocumentsEndpoint handles GET /api/documents.
type ListDocumentsEndpoint struct{}

func (e *ListDocumentsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents", e.handler
}

func (e *ListDocumentsEndpoint) RequiresInit() bool { return true }

func (e *ListDocumentsEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary	List open sessions
//	@Tags		documents
//	@Produce	json
//	@Success	200	{object}	ListDocumentsResponse
//	@Router		/api/documents [get]
func (e *ListDocumentsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "session store not initialized")
		return
	}
	writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: store.List()})
}

func (e *ListDocumentsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListDocumentsResponse
			if err := client.Get(cmd.Context(), "/api/documents", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetDocumentEndpoint handles GET /api/documents/{id}.
type GetDocumentEndpoint struct{}

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}", e.handler
}

func (e *GetDocumentEndpoint) RequiresInit() bool { return true }

func (e *GetDocumentEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary	Get a session
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	DocumentResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/documents/{id} [get]
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, describeSession(r, s))
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Get(cmd.Context(), "/api/documents/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// CloseDocumentEndpoint handles DELETE /api/documents/{id}.
type CloseDocumentEndpoint struct{}

func (e *CloseDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/documents/{id}", e.handler
}

func (e *CloseDocumentEndpoint) RequiresInit() bool { return true }

func (e *CloseDocumentEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Close a session
//	@Description	Drop the document and its edits. Nothing is saved.
//	@Tags			documents
//	@Param			id	path	string	true	"Session ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/documents/{id} [delete]
func (e *CloseDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := removeSession(r, r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *CloseDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/documents/"+args[0], nil); err != nil {
				return err
			}
			fmt.Printf("Closed %s\n", args[0])
			return nil
		},
	}
}

// ResetDocumentEndpoint handles POST /api/documents/{id}/reset.
type ResetDocumentEndpoint struct{}

func (e *ResetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/reset", e.handler
}

func (e *ResetDocumentEndpoint) RequiresInit() bool { return true }

func (e *ResetDocumentEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Discard edits
//	@Description	Restore the document the session was loaded with
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	DocumentResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/documents/{id}/reset [post]
func (e *ResetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	if _, err := s.Reset(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeSession(r, s))
}

func (e *ResetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "Discard all edits of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/reset", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
