package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/export"
	"github.com/jackzampolin/folio/internal/schema"
)

// AddTextEndpoint handles POST /api/documents/{id}/text.
type AddTextEndpoint struct{}

func (e *AddTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/text", e.handler
}

func (e *AddTextEndpoint) RequiresInit() bool { return true }

func (e *AddTextEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Add text to a page
//	@Description	Draw text at a point, resolving the font against the session's font cache
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		edit.TextRequest	true	"Text to place"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/documents/{id}/text [post]
func (e *AddTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req edit.TextRequest
	if !decodeBody(w, r, schema.AddText, &req) {
		return
	}
	applyOp(w, r, s, "add-text", edit.AddText(req, s.Fonts()))
}

func (e *AddTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req edit.TextRequest
	cmd := &cobra.Command{
		Use:   "add-text <id> <page-index> <text>",
		Short: "Add text to a page",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid page index: %w", err)
			}
			req.PageIndex = idx
			req.Value = args[2]
			return postMutation(cmd, getServerURL(), "/api/documents/"+args[0]+"/text", req)
		},
	}
	cmd.Flags().Float64Var(&req.X, "x", 72, "X position in points from the left")
	cmd.Flags().Float64Var(&req.Y, "y", 72, "Y position in points from the bottom")
	cmd.Flags().StringVar(&req.Font, "font", "", "Font family, e.g. \"Times New Roman\"")
	cmd.Flags().Float64Var(&req.FontSize, "size", edit.DefaultFontSize, "Font size in points")
	cmd.Flags().StringVar(&req.Color, "color", "", "Text color as #RRGGBB")
	cmd.Flags().StringVar(&req.Weight, "weight", "", "Font weight, e.g. bold or 700")
	cmd.Flags().StringVar(&req.Style, "style", "", "Font style, e.g. italic")
	cmd.Flags().Float64Var(&req.MaxWidth, "max-width", 0, "Wrap lines at this width in points")
	return cmd
}

// AddAnnotationEndpoint handles POST /api/documents/{id}/annotations.
type AddAnnotationEndpoint struct{}

func (e *AddAnnotationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/annotations", e.handler
}

func (e *AddAnnotationEndpoint) RequiresInit() bool { return true }

func (e *AddAnnotationEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary	Add a note to a page
//	@Tags		edit
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Session ID"
//	@Param		request	body		edit.AnnotationRequest	true	"Note to place"
//	@Success	200		{object}	MutationResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/api/documents/{id}/annotations [post]
func (e *AddAnnotationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req edit.AnnotationRequest
	if !decodeBody(w, r, schema.AddAnnotation, &req) {
		return
	}
	applyOp(w, r, s, "add-annotation", edit.AddAnnotation(req))
}

func (e *AddAnnotationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req edit.AnnotationRequest
	cmd := &cobra.Command{
		Use:   "annotate <id> <page-index> <text>",
		Short: "Add a note to a page",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid page index: %w", err)
			}
			req.PageIndex = idx
			req.Text = args[2]
			return postMutation(cmd, getServerURL(), "/api/documents/"+args[0]+"/annotations", req)
		},
	}
	cmd.Flags().Float64Var(&req.X, "x", 72, "X position in points from the left")
	cmd.Flags().Float64Var(&req.Y, "y", 72, "Y position in points from the bottom")
	cmd.Flags().StringVar(&req.Background, "background", "", "Background color as #RRGGBB")
	return cmd
}

// DeletePageEndpoint handles DELETE /api/documents/{id}/pages/{index}.
type DeletePageEndpoint struct{}

func (e *DeletePageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/documents/{id}/pages/{index}", e.handler
}

func (e *DeletePageEndpoint) RequiresInit() bool { return true }

func (e *DeletePageEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Delete a page
//	@Description	Out-of-range indices and the last remaining page are left alone; applied is false.
//	@Tags			edit
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"0-based page index"
//	@Success		200		{object}	MutationResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages/{index} [delete]
func (e *DeletePageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	idx, ok := pageIndex(w, r)
	if !ok {
		return
	}
	applyOp(w, r, s, "delete-page", edit.DeletePage(idx))
}

func (e *DeletePageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-page <id> <page-index>",
		Short: "Delete a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MutationResponse
			if err := client.Delete(cmd.Context(), "/api/documents/"+args[0]+"/pages/"+args[1], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// InsertPageRequest is the body of POST /api/documents/{id}/pages.
type InsertPageRequest struct {
	Index int `json:"index"`
}

// InsertPageEndpoint handles POST /api/documents/{id}/pages.
type InsertPageEndpoint struct{}

func (e *InsertPageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/pages", e.handler
}

func (e *InsertPageEndpoint) RequiresInit() bool { return true }

func (e *InsertPageEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Insert a blank page
//	@Description	The new page takes the size of the first page and ends up at index. index may equal the page count to append.
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		InsertPageRequest	true	"Position"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages [post]
func (e *InsertPageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req InsertPageRequest
	if !decodeBody(w, r, schema.InsertPage, &req) {
		return
	}
	applyOp(w, r, s, "insert-page", edit.InsertBlankPage(req.Index))
}

func (e *InsertPageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "insert-page <id> <index>",
		Short: "Insert a blank page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index: %w", err)
			}
			return postMutation(cmd, getServerURL(), "/api/documents/"+args[0]+"/pages", InsertPageRequest{Index: idx})
		},
	}
}

// ReorderPagesRequest is the body of POST /api/documents/{id}/pages/reorder.
type ReorderPagesRequest struct {
	Order []int `json:"order"`
}

// ReorderPagesEndpoint handles POST /api/documents/{id}/pages/reorder.
type ReorderPagesEndpoint struct{}

func (e *ReorderPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/pages/reorder", e.handler
}

func (e *ReorderPagesEndpoint) RequiresInit() bool { return true }

func (e *ReorderPagesEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Reorder pages
//	@Description	The document becomes the listed 0-based pages in order. Invalid indices are skipped and unlisted pages are dropped.
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		ReorderPagesRequest	true	"New order"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages/reorder [post]
func (e *ReorderPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req ReorderPagesRequest
	if !decodeBody(w, r, schema.ReorderPages, &req) {
		return
	}
	applyOp(w, r, s, "reorder-pages", edit.ReorderPages(req.Order))
}

func (e *ReorderPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id> <index>...",
		Short: "Reorder pages",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := atoiAll(args[1:])
			if err != nil {
				return err
			}
			return postMutation(cmd, getServerURL(), "/api/documents/"+args[0]+"/pages/reorder", ReorderPagesRequest{Order: order})
		},
	}
}

// ExtractPagesRequest is the body of POST /api/documents/{id}/extract.
type ExtractPagesRequest struct {
	Pages []int  `json:"pages"`
	Name  string `json:"name,omitempty"`
}

// ExtractPagesEndpoint handles POST /api/documents/{id}/extract.
type ExtractPagesEndpoint struct{}

func (e *ExtractPagesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/extract", e.handler
}

func (e *ExtractPagesEndpoint) RequiresInit() bool { return true }

func (e *ExtractPagesEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Extract pages into a new session
//	@Description	The source session is unchanged
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Session ID"
//	@Param			request	body		ExtractPagesRequest	true	"0-based pages to copy"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/extract [post]
func (e *ExtractPagesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req ExtractPagesRequest
	if !decodeBody(w, r, schema.ExtractPages, &req) {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := edit.ExtractPages(req.Pages)(r.Context(), snap.Bytes)
	if errors.Is(err, edit.ErrNoOp) {
		writeError(w, http.StatusBadRequest, "no valid pages to extract")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	created, err := createSession(r, export.FileName(s.Name(), req.Name, "extract-"), out)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, describeSession(r, created))
}

func (e *ExtractPagesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "extract <id> <index>...",
		Short: "Copy pages into a new session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := atoiAll(args[1:])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Post(cmd.Context(), "/api/documents/"+args[0]+"/extract", ExtractPagesRequest{Pages: pages, Name: name}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the new document")
	return cmd
}

// postMutation posts body and prints the MutationResponse.
func postMutation(cmd *cobra.Command, serverURL, path string, body any) error {
	client := api.NewClient(serverURL)
	var resp MutationResponse
	if err := client.Post(cmd.Context(), path, body, &resp); err != nil {
		return err
	}
	return api.Output(resp)
}

func atoiAll(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid page index %q: %w", a, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// readJSONFile decodes a JSON file for commands that take a request body
// from disk.
func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
