package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/edit"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/internal/ocr"
	"github.com/jackzampolin/folio/internal/ocr/tesseract"
	"github.com/jackzampolin/folio/internal/render"
	"github.com/jackzampolin/folio/internal/schema"
	"github.com/jackzampolin/folio/internal/server/endpoints"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// Server is the main Folio HTTP server.
// It owns the document sessions being edited and the engines they use.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	store     *document.Store
	views     *render.Views
	ocr       ocr.Engine
	validator *schema.Validator

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the folio home directory used for exports and fonts
	Home *home.Dir
	// Rasterizer overrides the render engine from configuration
	Rasterizer render.Rasterizer
	// OCR overrides the Tesseract engine
	OCR ocr.Engine
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	current := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		current = cfg.ConfigManager.Get()
	}

	raster := cfg.Rasterizer
	if raster == nil {
		r, err := render.New(current.Render.Engine, current.Render.PdftoppmPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create rasterizer: %w", err)
		}
		raster = r
	}

	engine := cfg.OCR
	if engine == nil {
		engine = ocr.WithRetry(tesseract.New(tesseract.Config{
			Languages:      current.OCR.Languages,
			TessdataPrefix: current.TessdataPrefix(),
		}), current.OCR.Attempts, 250*time.Millisecond, cfg.Logger)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schemas: %w", err)
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
		store: document.NewStore(document.StoreConfig{
			Logger: cfg.Logger,
			Fonts:  current.FontDefaults(),
		}),
		views:     render.NewViews(raster, current.Render.BaseDPI, cfg.Logger),
		ocr:       engine,
		validator: validator,
	}

	// Config-backed backends follow the file; explicit overrides stay put.
	if cfg.ConfigManager != nil {
		fixedRaster := cfg.Rasterizer != nil
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.store.SetFontDefaults(c.FontDefaults())
			var r render.Rasterizer
			if !fixedRaster {
				nr, err := render.New(c.Render.Engine, c.Render.PdftoppmPath)
				if err != nil {
					cfg.Logger.Warn("keeping current render engine", "error", err)
				} else {
					r = nr
				}
			}
			s.views.SetBackend(r, c.Render.BaseDPI)
			cfg.Logger.Info("configuration reloaded", "features", c.Features)
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.home != nil {
		if err := s.home.EnsureExists(); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to prepare home directory: %w", err)
		}
		s.installFonts()
	}

	s.mu.Lock()
	s.services = &svcctx.Services{
		Store:         s.store,
		Views:         s.views,
		OCR:           s.ocr,
		Validator:     s.validator,
		ConfigManager: s.configMgr,
		Logger:        s.logger,
		Home:          s.home,
	}
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr,
			"render", s.views.Rasterizer().Name(), "ocr", s.ocr.Name())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// installFonts installs TrueType files from config and the home fonts
// directory. Failures are logged; text falls back to the core fonts.
func (s *Server) installFonts() {
	var files []string
	if s.configMgr != nil {
		files = append(files, s.configMgr.Get().Fonts.Install...)
	}
	found, err := s.home.FontFiles()
	if err != nil {
		s.logger.Warn("failed to scan fonts", "error", err)
	}
	files = append(files, found...)

	n, err := edit.InstallFonts(files)
	if err != nil {
		s.logger.Warn("font installation failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("installed fonts", "count", n)
	}
}

// shutdown performs graceful shutdown of the HTTP server and drops all
// sessions.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	for _, info := range s.store.List() {
		s.views.Remove(info.ID)
		_ = s.store.Delete(info.ID)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the document session store.
func (s *Server) Store() *document.Store {
	return s.store
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) currentServices() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc := s.currentServices(); svc != nil {
			ctx = svcctx.WithServices(ctx, svc)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until Start has wired the services.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.currentServices() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
