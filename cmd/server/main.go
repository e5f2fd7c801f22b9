package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"accueil/internal/analytics"
	analyticshandler "accueil/internal/analytics/handler"
	"accueil/internal/extraction"
	"accueil/internal/flow"
	flowhandler "accueil/internal/flow/handler"
	"accueil/internal/geocode"
	"accueil/internal/platform/config"
	"accueil/internal/platform/httpserver"
	"accueil/internal/platform/logger"
	"accueil/internal/platform/metrics"
	platformredis "accueil/internal/platform/redis"
	reghandler "accueil/internal/registration/handler"
	regmetrics "accueil/internal/registration/metrics"
	regservice "accueil/internal/registration/service"
	"accueil/internal/registration/store"
	httptransport "accueil/internal/transport/http"
	"accueil/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	configPath := flag.String("config", os.Getenv("ACCUEIL_CONFIG"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	checks := map[string]httptransport.HealthCheck{}

	recordStore, closeStore, err := openRecordStore(ctx, cfg.RecordStore, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
	}

	registrations := regservice.New(recordStore,
		regservice.WithLogger(log),
		regservice.WithMetrics(regmetrics.New()),
		regservice.WithAnalyticsWindow(cfg.Analytics.Window, cfg.Analytics.MaxRows),
		regservice.WithRecentMax(cfg.Analytics.RecentMax),
	)

	var extractor extraction.Extractor
	if cfg.ExtractionEnabled() {
		extractor = extraction.NewGemini(cfg.Extraction.APIKey,
			extraction.WithBaseURL(cfg.Extraction.BaseURL),
			extraction.WithModel(cfg.Extraction.Model),
			extraction.WithTimeout(cfg.Extraction.Timeout),
			extraction.WithLogger(log),
			extraction.WithMetrics(extraction.NewMetrics(prometheus.DefaultRegisterer)),
		)
	} else {
		log.Warn("GOOGLE_API_KEY not set, form extraction disabled")
	}

	var resolver geocode.Resolver
	if cfg.GeocodeEnabled() {
		resolver = geocode.NewRapidAPI(cfg.Geocode.APIKey,
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithHost(cfg.Geocode.Host),
			geocode.WithTimeout(cfg.Geocode.Timeout),
			geocode.WithLogger(log),
			geocode.WithMetrics(geocode.NewMetrics(prometheus.DefaultRegisterer)),
		)
	} else {
		log.Warn("RAPID_API_KEY not set, member locations disabled")
	}
	report := analytics.NewService(registrations,
		analytics.NewLocator(resolver, analytics.WithLocatorLogger(log)),
		analytics.WithLocation(loc),
		analytics.WithLogger(log),
	)

	var sessions flow.SessionStore = flow.NewInMemorySessions(cfg.Flow.SessionTTL)
	if cfg.Flow.Sessions == config.SessionsRedis {
		if redisClient == nil {
			return errors.New("redis flow sessions need REDIS_URL")
		}
		sessions = flow.NewRedisSessions(redisClient.Client, cfg.Flow.SessionTTL)
	}
	controller := flow.NewController(sessions, extractor, registrations,
		flow.WithLogger(log),
		flow.WithMetrics(flow.NewMetrics(prometheus.DefaultRegisterer)),
		flow.WithMaxDimension(cfg.Extraction.MaxDimension),
		flow.WithExtractionTimeout(cfg.Extraction.Timeout+cfg.Extraction.Timeout/2),
	)

	var verifier *auth.Verifier
	if cfg.Server.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Server.JWTSecret)
	} else {
		log.Warn("API_JWT_SECRET not set, API is unauthenticated")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Observer:       metrics.New(),
		MetricsHandler: metrics.Handler(),
		Verifier:       verifier,
		Checks:         checks,
		Handlers: []httptransport.Registrar{
			reghandler.New(registrations, log),
			analyticshandler.New(report, log),
			flowhandler.New(controller, log, cfg.Server.MaxUploadBytes),
		},
	})
	srv := httpserver.New(cfg.Server, router)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting accueil", "addr", cfg.Server.Addr, "record_store", cfg.RecordStore.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := controller.Shutdown(shutdownCtx); err != nil {
		log.Error("extractions did not stop in time", "error", err)
	}
	return nil
}

func openRecordStore(ctx context.Context, cfg config.RecordStore, checks map[string]httptransport.HealthCheck) (regservice.Store, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case config.DriverPostgREST:
		return store.NewPostgREST(cfg.URL, cfg.Key, cfg.Timeout), noop, nil
	case config.DriverMemory:
		return store.NewInMemory(), noop, nil
	case config.DriverPostgres, config.DriverSQLite:
		dialect := store.DialectPostgres
		if cfg.Driver == config.DriverSQLite {
			dialect = store.DialectSQLite
		}
		db, err := store.Open(ctx, dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open record store: %w", err)
		}
		checks["database"] = func(ctx context.Context) error { return db.PingContext(ctx) }
		return store.NewSQL(db, dialect), closer(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown record store driver %q", cfg.Driver)
	}
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
