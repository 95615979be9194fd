package endpoints

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/extract"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// ocrDPI is the resolution pages are rasterized at for OCR.
const ocrDPI = 300

func ocrEnabled(f config.Features) bool { return f.OCR }

// PageImageEndpoint handles GET /api/documents/{id}/pages/{index}/image.
type PageImageEndpoint struct{}

func (e *PageImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/pages/{index}/image", e.handler
}

func (e *PageImageEndpoint) RequiresInit() bool { return true }

func (e *PageImageEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Render a page
//	@Description	Rasterize one page of the current document, independent of the view
//	@Tags			pages
//	@Produce		image/png
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"0-based page index"
//	@Param			dpi		query		number	false	"Resolution, default base_dpi"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages/{index}/image [get]
func (e *PageImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	idx, ok := pageIndex(w, r)
	if !ok {
		return
	}
	var dpi float64
	if v := r.URL.Query().Get("dpi"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 || d > 1200 {
			writeError(w, http.StatusBadRequest, "dpi must be a number between 0 and 1200")
			return
		}
		dpi = d
	}
	if !checkPage(w, s, idx) {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}

	img, err := a.RenderPage(r.Context(), idx+1, dpi)
	if err != nil {
		writeErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (e *PageImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	var dpi float64
	cmd := &cobra.Command{
		Use:   "page-image <id> <page-index>",
		Short: "Render a page to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/documents/%s/pages/%s/image", args[0], args[1])
			if dpi > 0 {
				path += "?dpi=" + strconv.FormatFloat(dpi, 'f', -1, 64)
			}
			if out == "" {
				out = fmt.Sprintf("page-%s.png", args[1])
			}
			return downloadTo(cmd, getServerURL(), path, out)
		},
	}
	cmd.Flags().StringVarP(&out, "file", "f", "", "Output file")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "Resolution")
	return cmd
}

// PageTextResponse is the extracted text of one page.
type PageTextResponse struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
}

// PageTextEndpoint handles GET /api/documents/{id}/pages/{index}/text.
type PageTextEndpoint struct{}

func (e *PageTextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/documents/{id}/pages/{index}/text", e.handler
}

func (e *PageTextEndpoint) RequiresInit() bool { return true }

func (e *PageTextEndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		Page text
//	@Description	Text content of one page of the current document
//	@Tags			pages
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"0-based page index"
//	@Success		200		{object}	PageTextResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages/{index}/text [get]
func (e *PageTextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	idx, ok := pageIndex(w, r)
	if !ok {
		return
	}
	doc, err := s.Bytes()
	if err != nil {
		writeErr(w, err)
		return
	}
	text, err := extract.PageText(doc, idx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageTextResponse{SessionID: s.ID(), Index: idx, Text: text})
}

func (e *PageTextEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "page-text <id> <page-index>",
		Short: "Print the text of a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PageTextResponse
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/documents/%s/pages/%s/text", args[0], args[1]), &resp); err != nil {
				return err
			}
			fmt.Println(resp.Text)
			return nil
		},
	}
}

// OCRResponse is the result of a recognition.
type OCRResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Engine    string `json:"engine"`
	ocr.Result
}

// PageOCREndpoint handles POST /api/documents/{id}/pages/{index}/ocr.
type PageOCREndpoint struct{}

func (e *PageOCREndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents/{id}/pages/{index}/ocr", e.handler
}

func (e *PageOCREndpoint) RequiresInit() bool { return true }

func (e *PageOCREndpoint) Group() string { return documentsGroup }

// handler godoc
//
//	@Summary		OCR a page
//	@Description	Rasterize a page and recognize its text. The document is not modified.
//	@Tags			ocr
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"0-based page index"
//	@Param			lang	query		string	false	"Comma-separated Tesseract languages"
//	@Success		200		{object}	OCRResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/documents/{id}/pages/{index}/ocr [post]
func (e *PageOCREndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if !requireFeature(w, r, "ocr", ocrEnabled) {
		return
	}
	s := sessionFrom(w, r)
	if s == nil {
		return
	}
	idx, ok := pageIndex(w, r)
	if !ok {
		return
	}
	engine := svcctx.OCRFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "ocr engine not initialized")
		return
	}
	if !checkPage(w, s, idx) {
		return
	}
	a := adapterFor(w, r, s)
	if a == nil {
		return
	}

	img, err := a.RenderPage(r.Context(), idx+1, ocrDPI)
	if err != nil {
		writeErr(w, err)
		return
	}
	data, err := ocr.EncodePNG(img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res, err := recognize(r, engine, data, ocrDPI)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OCRResponse{SessionID: s.ID(), Index: &idx, Engine: engine.Name(), Result: res})
}

func (e *PageOCREndpoint) Command(getServerURL func() string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "ocr <id> <page-index>",
		Short: "Recognize the text of a rendered page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/documents/%s/pages/%s/ocr", args[0], args[1])
			if lang != "" {
				path += "?lang=" + lang
			}
			client := api.NewClient(getServerURL())
			var resp OCRResponse
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Comma-separated languages, e.g. eng,deu")
	return cmd
}

// ImageOCREndpoint handles POST /api/ocr.
type ImageOCREndpoint struct{}

func (e *ImageOCREndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/ocr", e.handler
}

func (e *ImageOCREndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		OCR an image
//	@Description	Recognize the text of an uploaded image. Only image/* content is accepted.
//	@Tags			ocr
//	@Accept			mpfd
//	@Produce		json
//	@Param			image	formData	file	true	"Image"
//	@Param			lang	query		string	false	"Comma-separated Tesseract languages"
//	@Success		200		{object}	OCRResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/ocr [post]
func (e *ImageOCREndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if !requireFeature(w, r, "ocr", ocrEnabled) {
		return
	}
	engine := svcctx.OCRFrom(r.Context())
	if engine == nil {
		writeError(w, http.StatusServiceUnavailable, "ocr engine not initialized")
		return
	}
	u, err := readUpload(w, r, "image")
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := recognize(r, engine, u.Data, 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OCRResponse{Engine: engine.Name(), Result: res})
}

func (e *ImageOCREndpoint) Command(getServerURL func() string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Recognize the text of an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/ocr"
			if lang != "" {
				path += "?lang=" + lang
			}
			client := api.NewClient(getServerURL())
			var resp OCRResponse
			if err := client.Upload(cmd.Context(), path, "image", args[0], nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Comma-separated languages, e.g. eng,deu")
	return cmd
}

// recognize runs the engine, logging progress, with languages from ?lang=.
func recognize(r *http.Request, engine ocr.Engine, image []byte, dpi int) (ocr.Result, error) {
	logger := svcctx.LoggerFrom(r.Context())
	var langs []string
	if v := r.URL.Query().Get("lang"); v != "" {
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
	}
	in := ocr.Input{Image: image, Languages: langs, DPI: dpi}
	return ocr.Recognize(r.Context(), engine, in, func(f float64) {
		logger.Debug("ocr progress", "engine", engine.Name(), "fraction", f)
	})
}

// downloadTo saves a binary response to path.
func downloadTo(cmd *cobra.Command, serverURL, path, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	client := api.NewClient(serverURL)
	if err := client.Download(cmd.Context(), path, f); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
