package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/schema"
)

// FormResponse lists the fields of a document's form.
type FormResponse struct {
	SessionID string       `json:"session_id"`
	Fields    []edit.Field `json:"fields"`
}

// GetFormEndpoint handles GET /api/documents/{id}/form.
type GetFormEndpoint struct{}

func (e *GetFormEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/form", e.handler
}

func (e *GetFormEndpoint) RequiresInit() bool { return true }

func (e *GetFormEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		List form fields
//	@Description	A document without a form has no fields
//	@Tags			forms
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	FormResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/documents/{id}/form [get]
func (e *GetFormEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	doc, err := s.Bytes()
	if err != nil {
		writeErr(w, err)
		return
	}
	fields, err := edit.FormFields(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fields == nil {
		fields = []edit.Field{}
	}
	writeJSON(w, http.StatusOK, FormResponse{SessionID: s.ID(), Fields: fields})
}

func (e *GetFormEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "form <id>",
		Short: "List form fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FormResponse
			if err := client.Get(cmd.Context(), "/api/documents/"+args[0]+"/form", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// FillFormRequest maps field names (or IDs) to values. Checkboxes take
// true/false; list boxes take comma-separated values.
type FillFormRequest struct {
	Fields map[string]string `json:"fields"`
}

// FillFormEndpoint handles POST /api/documents/{id}/form.
type FillFormEndpoint struct{}

func (e *FillFormEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/form", e.handler
}

func (e *FillFormEndpoint) RequiresInit() bool { return true }

func (e *FillFormEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Fill form fields
//	@Description	Unknown names are ignored; applied is false when nothing matched
//	@Tags			forms
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		FillFormRequest	true	"Field values"
//	@Success		200		{object}	MutationResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/form [post]
func (e *FillFormEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	var req FillFormRequest
	if !decodeBody(w, r, schema.FillForm, &req) {
		return
	}
	applyOp(w, r, s, "fill-form", edit.FillForm(req.Fields))
}

func (e *FillFormEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <id> <name=value>...",
		Short: "Fill form fields",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := FillFormRequest{Fields: make(map[string]string)}
			for _, kv := range args[1:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("expected name=value, got %q", kv)
				}
				req.Fields[k] = v
			}
			return postMutation(cmd, getServerURL(), "/api/documents/"+args[0]+"/form", req)
		},
	}
}

// InvoiceEndpoint handles POST /api/invoices.
type InvoiceEndpoint struct{}

func (e *InvoiceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/invoices", e.handler
}

func (e *InvoiceEndpoint) RequiresInit() bool { return true }

func (e *InvoiceEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Generate an invoice
//	@Description	Lay out an invoice as a new document and open it in a session
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		edit.Invoice	true	"Invoice"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/invoices [post]
func (e *InvoiceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var inv edit.Invoice
	if !decodeBody(w, r, schema.Invoice, &inv) {
		return
	}
	doc, err := edit.GenerateInvoice(r.Context(), inv)
	if err != nil {
		writeErr(w, err)
		return
	}
	name := "invoice.pdf"
	if inv.Number != "" {
		name = "invoice-" + inv.Number + ".pdf"
	}
	s, err := createSession(r, name, doc)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, describeSession(r, s))
}

func (e *InvoiceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "invoice <invoice.json>",
		Short: "Generate an invoice in a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var inv edit.Invoice
			if err := readJSONFile(args[0], &inv); err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp DocumentResponse
			if err := client.Post(cmd.Context(), "/api/invoices", inv, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
