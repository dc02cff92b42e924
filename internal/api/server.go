package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/admin"
	"github.com/foxzi/mailpanel/internal/campaign"
	"github.com/foxzi/mailpanel/internal/config"
	"github.com/foxzi/mailpanel/internal/contacts"
	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/report"
	"github.com/foxzi/mailpanel/internal/session"
)

// Deps are the services behind the HTTP API
type Deps struct {
	Sessions  *session.Manager
	Contacts  *contacts.Store
	Campaigns *campaign.Repository
	ABTests   *abtest.Service
	Reports   *report.Aggregator
	Admin     *admin.Service
	Metrics   *metrics.Metrics // nil disables /metrics
	Upstream  interface{ BreakerState() string }
	Version   string
}

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	deps       Deps
	config     *config.Config
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		deps:      deps,
		config:    cfg,
		logger:    logger.With("component", "api"),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.HTTPMiddleware)

	s.router.Get("/health", s.handleHealth)
	if s.config.Metrics.Enabled && s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, s.config.Metrics.Path,
			metrics.NewEndpoint(s.deps.Metrics, s.config.Metrics.AllowedIPs, s.logger))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/auth/session", s.handleSession)

			r.Get("/contacts", s.handleContactsList)
			r.Post("/contacts", s.handleContactsCreate)
			r.Post("/contacts/import", s.handleContactsImport)
			r.Put("/contacts/{id}", s.handleContactsUpdate)
			r.Delete("/contacts/{id}", s.handleContactsDelete)

			r.Get("/groups", s.handleGroupsList)
			r.Post("/groups", s.handleGroupsCreate)
			r.Put("/groups/{name}", s.handleGroupsRename)
			r.Delete("/groups/{name}", s.handleGroupsDelete)
			r.Get("/groups/{name}/emails", s.handleGroupEmails)

			r.Get("/campaigns", s.handleCampaignsList)
			r.Post("/campaigns", s.handleCampaignsCreate)
			r.Get("/campaigns/{id}", s.handleCampaignsGet)
			r.Put("/campaigns/{id}", s.handleCampaignsUpdate)
			r.Delete("/campaigns/{id}", s.handleCampaignsDelete)

			r.Get("/abtests", s.handleABTestsList)
			r.Post("/abtests", s.handleABTestsCreate)
			r.Post("/abtests/simulate", s.handleABTestsSimulate)
			r.Get("/abtests/{id}", s.handleABTestsGet)
			r.Delete("/abtests/{id}", s.handleABTestsDelete)
			r.Post("/abtests/{id}/rerun", s.handleABTestsRerun)
			r.Get("/abtests/{id}/report.pdf", s.handleABTestsReport)

			r.Get("/reports/summary", s.handleReportSummary)
			r.Get("/reports/summary.pdf", s.handleReportSummaryPDF)

			r.Get("/admin/fleet", s.handleAdminFleet)
		})
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	cfg := s.config.Server
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.TLS.Enabled {
		s.logger.Info("starting HTTPS server", "addr", cfg.ListenAddr)
		return s.httpServer.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}

	s.logger.Info("starting HTTP server", "addr", cfg.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
