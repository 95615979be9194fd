package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/svcctx"
	"github.com/jackzampolin/folio/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server   string `json:"server"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	Views    int    `json:"views"`
	Renderer string `json:"renderer"`
	OCR      string `json:"ocr"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Open sessions and the engines in use
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server:   "running",
		Version:  version.GitRelease,
		Renderer: "not_initialized",
		OCR:      "not_initialized",
	}
	if store := svcctx.StoreFrom(r.Context()); store != nil {
		resp.Sessions = store.Len()
	}
	if views := svcctx.ViewsFrom(r.Context()); views != nil {
		resp.Views = views.Len()
		if rz := views.Rasterizer(); rz != nil {
			resp.Renderer = rz.Name()
		}
	}
	if engine := svcctx.OCRFrom(r.Context()); engine != nil {
		resp.OCR = engine.Name()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server:   %s (%s)\n", resp.Server, resp.Version)
			fmt.Printf("Sessions: %d\n", resp.Sessions)
			fmt.Printf("Renderer: %s\n", resp.Renderer)
			fmt.Printf("OCR:      %s\n", resp.OCR)
			return nil
		},
	}
}

// FeaturesEndpoint handles GET /api/features.
type FeaturesEndpoint struct{}

func (e *FeaturesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/features", e.handler
}

func (e *FeaturesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Feature toggles
//	@Description	Current deployment toggles, reloaded with the config file
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	config.Features
//	@Router			/api/features [get]
func (e *FeaturesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, featuresFrom(r))
}

func (e *FeaturesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Show feature toggles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp config.Features
			if err := client.Get(cmd.Context(), "/api/features", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// featuresFrom returns the live toggles, or the defaults without a config
// manager.
func featuresFrom(r *http.Request) config.Features {
	if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
		return cm.Features()
	}
	return config.DefaultConfig().Features
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
