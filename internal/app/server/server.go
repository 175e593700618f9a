package server

import (
	"context"
	"crypto/rand"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"designreport/internal/domain/delivery"
	"designreport/internal/domain/export"
	"designreport/internal/domain/report"
	"designreport/internal/domain/runs"
	"designreport/internal/integrations/kaiten"
	"designreport/internal/integrations/slack"
	"designreport/internal/platform/config"
	"designreport/internal/platform/crypto"
	"designreport/internal/platform/db"
	"designreport/internal/platform/jobs"
	"designreport/internal/platform/metrics"
	reportshandler "designreport/internal/transport/http/handlers/reports"
	runshandler "designreport/internal/transport/http/handlers/runs"
	"designreport/internal/transport/http/api"
	"designreport/internal/transport/http/middleware"
)

//go:embed web
var webFS embed.FS

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Sessions *export.SessionStore
	Jobs     *jobs.Service
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	workDir string
}

// New wires every component of the service. The returned App owns a fresh
// directory under cfg.WorkDir and, when configured, a database pool; Close
// releases both.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Metrics: metrics.New(), Logger: logger}

	journal, err := app.openJournal(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.WorkDir, 0o700); err != nil {
		app.Close()
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	app.workDir, err = os.MkdirTemp(cfg.WorkDir, "designreport-")
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create session root: %w", err)
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("artifact encryption: %w", err)
	}
	app.Sessions, err = export.NewSessionStore(export.StoreOptions{
		Root:   app.workDir,
		TTL:    cfg.SessionTTL,
		Crypto: sealer,
		PDF:    export.PDFOptions{FontPath: cfg.PDFFontPath},
		Logger: logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	secret, err := downloadSecret(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Jobs = jobs.New(journal, logger, 0)
	if cfg.SessionSweepSchedule != "" {
		err := app.Jobs.Schedule(cfg.SessionSweepSchedule, "session_sweep", func(context.Context) {
			app.Metrics.SessionsSwept(app.Sessions.Sweep(time.Now()))
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	opts := cfg.Report.Options()
	opts.Logger = logger
	reports := &reportshandler.Handler{
		Generator: report.NewGenerator(opts),
		Sessions:  app.Sessions,
		Secret:    secret,
		TokenTTL:  cfg.DownloadTokenTTL,
		Runs:      journal,
		Jobs:      app.Jobs,
		Delivery:  newDelivery(cfg, app.Sessions, app.Metrics, logger),
		Metrics:   app.Metrics,
		Logger:    logger,
	}

	app.Router = app.routes(reports, runshandler.NewHandler(journal))
	return app, nil
}

func (a *App) openJournal(ctx context.Context) (*runs.Service, error) {
	if a.Config.DatabaseURL == "" {
		a.Logger.Info("DATABASE_URL not set, keeping the run journal in memory")
		return runs.NewService(runs.NewMemoryStore(0), a.Logger), nil
	}
	pool, err := db.Connect(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	a.DB = pool
	if a.Config.RunMigrations {
		if err := db.Migrate(ctx, pool, db.Migrations(a.Config.MigrationsDir)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	return runs.NewService(runs.NewStore(pool), a.Logger), nil
}

func newDelivery(cfg config.Config, sessions *export.SessionStore, collector *metrics.Collector, logger *slog.Logger) *delivery.Service {
	opts := delivery.Options{Metrics: collector, Logger: logger}
	if cfg.Kaiten.Enabled() {
		opts.Tracker = kaiten.New(cfg.Kaiten.BaseURL, cfg.Kaiten.Token, cfg.ExternalHTTPTimeout)
		opts.CardID = cfg.Kaiten.CardID
	}
	if cfg.Slack.Enabled() {
		opts.Chat = slack.New(cfg.Slack.BotToken, cfg.Slack.ChannelID)
	}
	return delivery.New(sessions, opts)
}

// downloadSecret derives the token signing key. Outside production a missing
// secret is replaced by a random one, so links die with the process.
func downloadSecret(cfg config.Config) ([]byte, error) {
	raw := []byte(cfg.DownloadSecret)
	if len(raw) == 0 {
		if cfg.Environment == "production" {
			return nil, errors.New("DOWNLOAD_SECRET is required in production")
		}
		raw = make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, err
		}
	}
	return crypto.DeriveKey(raw, "download-token")
}

func (a *App) routes(reports *reportshandler.Handler, runsHandler *runshandler.Handler) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Logger, a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production", cfg.FrameAncestors...))
	router.Use(middleware.BodyLimit(cfg.MaxUploadBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.UploadRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireKey(cfg.AdminKeyHash)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := a.Metrics.Snapshot()
			snapshot["activeSessions"] = a.Sessions.Len()
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		reports.RegisterRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireKey(cfg.AdminKeyHash))
			runsHandler.RegisterRoutes(r)
		})
	})
	reports.RegisterLegacyRoutes(router)

	router.Mount("/", newSPAHandler(cfg.FrontendDir))
	return router
}

// Run starts the background jobs and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Jobs.Start(ctx)
	defer a.Jobs.Stop()

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("report server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil {
			a.Logger.Warn("session cleanup failed", "err", err)
		}
	}
	if a.workDir != "" {
		_ = os.RemoveAll(a.workDir)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// spaHandler serves the built frontend from disk when present and the
// embedded upload page otherwise.
type spaHandler struct {
	static    http.FileSystem
	indexPath string
	hasFile   func(name string) bool
}

func newSPAHandler(frontendDir string) spaHandler {
	if info, err := os.Stat(frontendDir); err == nil && info.IsDir() {
		return spaHandler{
			static:    http.Dir(frontendDir),
			indexPath: "index.html",
			hasFile: func(name string) bool {
				_, err := os.Stat(filepath.Join(frontendDir, filepath.FromSlash(name)))
				return err == nil
			},
		}
	}
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return spaHandler{
		static:    http.FS(sub),
		indexPath: "index.html",
		hasFile: func(name string) bool {
			_, err := fs.Stat(sub, strings.TrimPrefix(name, "/"))
			return err == nil
		},
	}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path != "/" && h.hasFile(r.URL.Path) {
		http.FileServer(h.static).ServeHTTP(w, r)
		return
	}
	index, err := h.static.Open(h.indexPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer index.Close()
	info, err := index.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, h.indexPath, info.ModTime(), index)
}
