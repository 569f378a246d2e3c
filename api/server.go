// Package api provides the HTTP server for companydash.
//
// It serves the server-rendered dashboard page, the workbook export, a JSON
// view of the dashboard and health endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seenimoa/companydash/internal/config"
	"github.com/seenimoa/companydash/internal/dashboard"
	"github.com/seenimoa/companydash/internal/logging"
	"github.com/seenimoa/companydash/internal/metrics"
	"github.com/seenimoa/companydash/internal/provider"
	"github.com/seenimoa/companydash/internal/report"
	"github.com/seenimoa/companydash/pkg/utils"
	"github.com/seenimoa/companydash/web"
)

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

// Server is the HTTP server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	svc    *dashboard.Service
	logger zerolog.Logger
	chart  report.ChartConfig
	today  func() time.Time
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(cfg *config.Config, svc *dashboard.Service, logger zerolog.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		chart:  report.DefaultChartConfig(),
		today:  utils.Today,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger)...)
	r.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	// CORS: credentials only for explicitly configured origins.
	origins := []string{"*"}
	credentials := len(s.cfg.Server.CORSOrigins) > 0
	if credentials {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}))

	r.Use(s.sessionMiddleware)

	// Health check
	r.Get("/health", s.handleHealth)

	// Dashboard page and export
	r.Get("/", s.handlePage)
	r.Get("/export", s.handleExport)

	// Static assets
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Dashboard view
		r.Get("/dashboard/{ticker}", s.handleDashboard)

		// Configuration
		r.Get("/config", s.handleGetConfig)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleDashboard returns the dashboard view as JSON.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req := dashboardRequest(r)
	req.Ticker = chi.URLParam(r, "ticker")

	view, err := s.svc.Build(r.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		s.logError(r, status, err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: view})
}

// handlePage renders the dashboard page. Without a ticker in the query the
// configured default ticker is shown.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	req := dashboardRequest(r)
	if req.Ticker == "" {
		req.Ticker = s.cfg.Dashboard.DefaultTicker
	}
	if req.Ticker == "" {
		s.renderPage(w, r, http.StatusOK, s.formPage(req))
		return
	}

	view, err := s.svc.Build(r.Context(), req)
	if err != nil {
		s.renderError(w, r, req, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, report.BuildPage(view, s.chart))
}

// handleExport streams the workbook as an attachment. Any failure renders
// the error page instead, so a partial file is never sent.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req := dashboardRequest(r)

	name, data, err := s.svc.Export(r.Context(), req, s.today())
	if err != nil {
		s.renderError(w, r, req, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logError(r, http.StatusOK, err)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ============================================================
// Helpers
// ============================================================

func dashboardRequest(r *http.Request) dashboard.Request {
	q := r.URL.Query()
	return dashboard.Request{
		Ticker: q.Get("ticker"),
		Range:  q.Get("range"),
		View:   q.Get("view"),
	}
}

// formPage echoes the selection back into an empty page, keeping defaults for
// anything the user left empty or mistyped.
func (s *Server) formPage(req dashboard.Request) report.Page {
	rng, view := s.svc.Defaults()
	if resolved, err := s.svc.Resolve(dashboard.Request{Ticker: "X", Range: req.Range, View: req.View}); err == nil {
		rng, view = resolved.Range, resolved.View
	}
	return report.NewPage(report.Selection{Ticker: utils.NormalizeTicker(req.Ticker), Range: rng, View: view})
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, req dashboard.Request, err error) {
	status, msg := errorStatus(err)
	s.logError(r, status, err)
	page := s.formPage(req)
	page.Error = msg
	s.renderPage(w, r, status, page)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page report.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := report.RenderHTML(w, page); err != nil {
		s.logError(r, status, err)
	}
}

func (s *Server) logError(r *http.Request, status int, err error) {
	l := zerolog.Ctx(r.Context())
	ev := l.Warn()
	if status >= http.StatusInternalServerError {
		ev = l.Error()
	}
	ev.Err(err).Int("status", status).Msg("request failed")
}

// errorStatus maps an error to an HTTP status and a user-facing message.
func errorStatus(err error) (int, string) {
	var (
		noData  *metrics.NoDataError
		missing *provider.ErrMissingParam
		upErr   *provider.ErrHTTP
	)
	switch {
	case errors.As(err, &noData):
		return http.StatusNotFound, "no data available for this ticker"
	case errors.As(err, &missing):
		return http.StatusBadRequest, "please enter a ticker symbol"
	case errors.Is(err, dashboard.ErrInvalidTicker), errors.Is(err, dashboard.ErrInvalidSelection):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &upErr):
		return http.StatusBadGateway, "the market data provider is unavailable, please try again later"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "the market data provider took too long to respond"
	default:
		return http.StatusInternalServerError, "something went wrong while building the dashboard"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
