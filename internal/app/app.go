package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxzi/mailpanel/internal/abtest"
	"github.com/foxzi/mailpanel/internal/admin"
	"github.com/foxzi/mailpanel/internal/api"
	"github.com/foxzi/mailpanel/internal/campaign"
	"github.com/foxzi/mailpanel/internal/config"
	"github.com/foxzi/mailpanel/internal/contacts"
	"github.com/foxzi/mailpanel/internal/metrics"
	"github.com/foxzi/mailpanel/internal/report"
	"github.com/foxzi/mailpanel/internal/session"
	"github.com/foxzi/mailpanel/internal/store"
	"github.com/foxzi/mailpanel/internal/strapi"
)

// Version is set by the command at startup
var Version = "dev"

// App is the main application
type App struct {
	config    *config.Config
	db        *store.DB
	client    *strapi.Client
	metrics   *metrics.Metrics
	apiServer *api.Server
	logger    *slog.Logger

	Sessions  *session.Manager
	Contacts  *contacts.Store
	Campaigns *campaign.Repository
	ABTests   *abtest.Service
	Reports   *report.Aggregator
	Admin     *admin.Service
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.SetGlobal(m)
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client := strapi.NewClient(strapi.Options{
		BaseURL: cfg.ContentAPI.BaseURL,
		Token:   cfg.ContentAPI.APIToken,
		Timeout: cfg.ContentAPI.Timeout,
		RateRPS: cfg.ContentAPI.RateLimit.RequestsPerSecond,
		Burst:   cfg.ContentAPI.RateLimit.Burst,
		Breaker: strapi.BreakerConfig{
			FailureThreshold: cfg.ContentAPI.Breaker.FailureThreshold,
			Timeout:          cfg.ContentAPI.Breaker.Timeout,
			MaxRequests:      cfg.ContentAPI.Breaker.MaxRequests,
		},
	})

	a := &App{
		config:  cfg,
		db:      db,
		client:  client,
		metrics: m,
		logger:  logger,
	}

	a.Contacts = contacts.New(db)
	a.Sessions = session.NewManager(client, session.NewStoreRepository(db), db, logger)
	a.Campaigns = campaign.New(client, campaign.NewStoreCache(db), logger)
	a.ABTests = abtest.NewService(
		abtest.NewRepository(db),
		a.Contacts,
		rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		logger,
	)
	a.Reports = report.NewAggregator(client, logger)
	a.Admin = admin.New(client, logger)

	a.apiServer = api.NewServer(api.Deps{
		Sessions:  a.Sessions,
		Contacts:  a.Contacts,
		Campaigns: a.Campaigns,
		ABTests:   a.ABTests,
		Reports:   a.Reports,
		Admin:     a.Admin,
		Metrics:   m,
		Upstream:  client,
		Version:   Version,
	}, cfg, logger)

	return a, nil
}

// Logger returns the application logger
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Config returns the loaded configuration
func (a *App) Config() *config.Config {
	return a.config
}

// SessionContext returns ctx authenticated with the stored session token.
// It fails with session.ErrNoSession when nobody is logged in.
func (a *App) SessionContext(ctx context.Context) (context.Context, *session.Session, error) {
	sess, err := a.Sessions.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return strapi.ContextWithToken(ctx, sess.Token), sess, nil
}

// Run starts the HTTP server and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting mailpanel",
		"version", Version,
		"addr", a.config.Server.ListenAddr,
		"content_api", a.config.ContentAPI.BaseURL,
		"storage", a.db.Path(),
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("server error", "error", runErr)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		return err
	}
	return runErr
}

// Shutdown gracefully shuts down the server and closes storage
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	return a.Close()
}

// Close closes storage without touching the server
func (a *App) Close() error {
	if err := a.db.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
		return err
	}
	return nil
}

// setupLogger creates a logger based on configuration. Logs go to stderr so
// command output on stdout stays machine-readable.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
