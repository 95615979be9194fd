package endpoints

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/render"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/svcctx"
)

const viewGroup = "view"

// ViewResponse is the view after a navigation request.
type ViewResponse struct {
	SessionID string `json:"session_id"`
	// Applied is false for unknown keys and when no document is loaded.
	Applied bool          `json:"applied"`
	Status  render.Status `json:"status"`
}

// GetViewEndpoint handles GET /api/documents/{id}/view.
type GetViewEndpoint struct{}

func (e *GetViewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/view", e.handler
}

func (e *GetViewEndpoint) RequiresInit() bool { return true }

func (e *GetViewEndpoint) Group() string { return viewGroup }

// handler godoc
//
//	@Summary		Get the view state
//	@Description	Current page (1-based), scale, rotation and lifecycle state
//	@Tags			view
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	ViewResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/documents/{id}/view [get]
func (e *GetViewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{SessionID: s.ID(), Status: a.View().Status()})
}

func (e *GetViewEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the view state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ViewResponse
			if err := client.Get(cmd.Context(), "/api/documents/"+args[0]+"/view", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ViewActionRequest is the body of POST /api/documents/{id}/view/action.
type ViewActionRequest struct {
	Action string `json:"action"`
	// Page is the 1-based target of goto.
	Page int `json:"page,omitempty"`
}

// ViewActionEndpoint handles POST /api/documents/{id}/view/action.
type ViewActionEndpoint struct{}

func (e *ViewActionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/view/action", e.handler
}

func (e *ViewActionEndpoint) RequiresInit() bool { return true }

func (e *ViewActionEndpoint) Group() string { return viewGroup }

// handler godoc
//
//	@Summary		Navigate the view
//	@Description	zoom_in, zoom_out, reset_zoom, rotate, next, prev or goto. Pages and scale are clamped.
//	@Tags			view
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		ViewActionRequest	true	"Action"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/documents/{id}/view/action [post]
func (e *ViewActionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req ViewActionRequest
	if !decodeBody(w, r, schema.ViewAction, &req) {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}
	applied := a.View().Do(req.Action, req.Page)
	writeJSON(w, http.StatusOK, ViewResponse{SessionID: s.ID(), Applied: applied, Status: a.View().Status()})
}

func (e *ViewActionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "do <id> <action> [page]",
		Short: "Apply a view action (zoom_in, zoom_out, reset_zoom, rotate, next, prev, goto)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ViewActionRequest{Action: args[1]}
			if len(args) == 3 {
				page, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid page: %w", err)
				}
				req.Page = page
			}
			client := api.NewClient(getServerURL())
			var resp ViewResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/view/action", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ViewKeyRequest is the body of POST /api/documents/{id}/view/key.
type ViewKeyRequest struct {
	Key string `json:"key"`
}

// ViewKeyEndpoint handles POST /api/documents/{id}/view/key.
type ViewKeyEndpoint struct{}

func (e *ViewKeyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/view/key", e.handler
}

func (e *ViewKeyEndpoint) RequiresInit() bool { return true }

func (e *ViewKeyEndpoint) Group() string { return viewGroup }

// handler godoc
//
//	@Summary		Apply a keyboard shortcut
//	@Description	Arrow keys and PageUp/PageDown navigate, + and - zoom, 0 resets zoom, r rotates
//	@Tags			view
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		ViewKeyRequest	true	"Key"
//	@Success		200		{object}	ViewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/documents/{id}/view/key [post]
func (e *ViewKeyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req ViewKeyRequest
	if !decodeBody(w, r, schema.ViewKey, &req) {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}
	applied := a.View().HandleKey(req.Key)
	writeJSON(w, http.StatusOK, ViewResponse{SessionID: s.ID(), Applied: applied, Status: a.View().Status()})
}

func (e *ViewKeyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "key <id> <key>",
		Short: "Send a keyboard shortcut to the view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ViewResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/view/key", ViewKeyRequest{Key: args[1]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ViewImageEndpoint handles GET /api/documents/{id}/view/image.
type ViewImageEndpoint struct{}

func (e *ViewImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/view/image", e.handler
}

func (e *ViewImageEndpoint) RequiresInit() bool { return true }

func (e *ViewImageEndpoint) Group() string { return viewGroup }

// handler godoc
//
//	@Summary		Render the current view
//	@Description	PNG of the current page at the current scale and rotation. A render overtaken by a newer one returns 409.
//	@Tags			view
//	@Produce		image/png
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{file}		binary
//	@Failure		409	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Router			/api/documents/{id}/view/image [get]
func (e *ViewImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}
	var buf bytes.Buffer
	frame, err := a.RenderPNG(r.Context(), &buf)
	if err != nil {
		writeErr(w, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set("X-Folio-Page", strconv.Itoa(frame.Page))
	h.Set("X-Folio-Scale", strconv.FormatFloat(frame.Scale, 'f', -1, 64))
	h.Set("X-Folio-Rotation", strconv.Itoa(frame.View.Rotation))
	h.Set("X-Folio-Version", strconv.FormatUint(frame.Version, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		svcctx.LoggerFrom(r.Context()).Debug("view image write failed", "session", s.ID(), "error", err)
	}
}

func (e *ViewImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "image <id>",
		Short: "Render the current view to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = args[0] + ".png"
			}
			return downloadTo(cmd, getServerURL(), "/api/documents/"+args[0]+"/view/image", out)
		},
	}
	cmd.Flags().StringVarP(&out, "file", "f", "", "Output file")
	return cmd
}
