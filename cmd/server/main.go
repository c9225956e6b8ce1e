package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"mailmetrics/internal/api"
	"mailmetrics/internal/athena"
	"mailmetrics/internal/config"
	"mailmetrics/internal/credentials"
	internaldb "mailmetrics/internal/db"
	"mailmetrics/internal/db/repository"
	"mailmetrics/internal/domain"
	"mailmetrics/internal/middleware"
	"mailmetrics/internal/report"
)

func main() {
	ctx := context.Background()

	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// Report definition — reference defaults unless a file overrides them.
	def := report.DefaultDefinition()
	if cfg.ReportFile != "" {
		def, err = report.LoadDefinition(cfg.ReportFile)
		if err != nil {
			logger.Error("load report definition", "error", err)
			os.Exit(1)
		}
	}
	query := &report.Query{
		Definition:     def,
		Database:       cfg.Database,
		OutputLocation: cfg.OutputLocation(),
		Workgroup:      cfg.Workgroup,
	}

	// Credential resolution halts the process before any remote call is
	// attempted.
	creds, err := credentials.FromConfig(cfg).Resolve(ctx)
	if err != nil {
		logger.Error("credential resolution failed", "error", err)
		os.Exit(1)
	}
	logger.Info("credentials resolved", "source", creds.Source, "region", creds.Region)

	engine, store, err := athena.NewClients(ctx, creds)
	if err != nil {
		logger.Error("create aws clients", "error", err)
		os.Exit(1)
	}

	// Job-history store.
	historyDB, err := internaldb.OpenSQLite(cfg.HistoryDBPath, "write", 0)
	if err != nil {
		logger.Error("open history store", "error", err)
		os.Exit(1)
	}
	defer historyDB.Close() //nolint:errcheck
	if err := internaldb.RunMigrations(historyDB); err != nil {
		logger.Error("migrate history store", "error", err)
		os.Exit(1)
	}
	var history domain.JobHistoryRepository = repository.NewJobHistoryRepo(historyDB)

	// Pipeline: submit → poll → materialize, fronted by the TTL cache.
	submitter := report.NewSubmitter(engine, query, logger)
	poller := report.NewPoller(engine, cfg.PollInterval, logger)
	materializer := report.NewMaterializer(store, def.UntaggedLabel, nil)
	loader := report.NewLoader(submitter, poller, materializer, history, query.Signature(), cfg.QueryTimeout, logger, nil)
	cache := report.NewCache(cfg.CacheTTL, nil)
	svc := report.NewService(query, cache, loader.Load, logger)
	session := report.NewSession()

	if cfg.WarmSchedule != "" {
		warmer, err := report.NewWarmer(cfg.WarmSchedule, svc, logger)
		if err != nil {
			logger.Error("invalid warm schedule", "schedule", cfg.WarmSchedule, "error", err)
			os.Exit(1)
		}
		warmer.Start()
		defer warmer.Stop()
		logger.Info("cache warmer scheduled", "schedule", cfg.WarmSchedule)
	}

	handler := api.NewHandler(svc, session, history, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.BearerAuth([]byte(cfg.JWTSecret)))
		handler.Routes(r)
	})

	logger.Info("reporting API listening", "addr", cfg.ListenAddr, "database", cfg.Database, "signature", query.Signature())
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON in production, text otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
