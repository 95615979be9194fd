package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/export"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// exportPrefix returns the configured file name prefix.
func exportPrefix(r *http.Request) string {
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		return cm.Get().Export.Prefix
	}
	return export.DefaultPrefix
}

// DownloadEndpoint handles GET /api/documents/{id}/download.
type DownloadEndpoint struct{}

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/download", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return true }

func (e *DownloadEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Download the edited document
//	@Description	Sent as an attachment named edited-<original> unless filename is given
//	@Tags			export
//	@Produce		application/pdf
//	@Param			id			path		string	true	"Session ID"
//	@Param			filename	query		string	false	"Download file name"
//	@Success		200			{file}		binary
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/api/documents/{id}/download [get]
func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	doc, err := s.Bytes()
	if err != nil {
		writeErr(w, err)
		return
	}
	name := export.FileName(s.Name(), r.URL.Query().Get("filename"), exportPrefix(r))
	if err := export.Download(w, name, doc); err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("download interrupted", "session", s.ID(), "error", err)
	}
}

func (e *DownloadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the edited document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				var info DocumentResponse
				client := api.NewClient(getServerURL())
				if err := client.Get(cmd.Context(), "/api/documents/"+args[0], &info); err != nil {
					return err
				}
				out = export.FileName(info.Name, "", export.DefaultPrefix)
			}
			return downloadTo(cmd, getServerURL(), "/api/documents/"+args[0]+"/download", out)
		},
	}
	cmd.Flags().StringVarP(&out, "file", "f", "", "Output file")
	return cmd
}

// ExportRequest is the body of POST /api/documents/{id}/export.
type ExportRequest struct {
	Filename string `json:"filename,omitempty"`
}

// ExportResponse reports where a document was written.
type ExportResponse struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	Version   uint64 `json:"version"`
}

// ExportEndpoint handles POST /api/documents/{id}/export.
type ExportEndpoint struct{}

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/export", e.handler
}

func (e *ExportEndpoint) RequiresInit() bool { return true }

func (e *ExportEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Export to the home directory
//	@Description	Write the edited document to the exports directory
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		ExportRequest	false	"File name"
//	@Success		200		{object}	ExportResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/export [post]
func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req ExportRequest
	if !decodeBody(w, r, schema.Export, &req) {
		return
	}
	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}
	name := export.FileName(s.Name(), req.Filename, exportPrefix(r))
	path, err := export.ToDir(homeDir.ExportsDir(), name, snap.Bytes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	svcctx.LoggerFrom(r.Context()).Info("document exported", "session", s.ID(), "path", path)
	writeJSON(w, http.StatusOK, ExportResponse{
		SessionID: s.ID(),
		Path:      path,
		Bytes:     len(snap.Bytes),
		Version:   snap.Version,
	})
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the edited document to the server's exports directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ExportResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/export", ExportRequest{Filename: filename}, &resp); err != nil {
				return err
			}
			fmt.Printf("Exported %s (%d bytes)\n", resp.Path, resp.Bytes)
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "File name, default edited-<original>")
	return cmd
}
