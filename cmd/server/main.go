// Command server runs the property-maintenance workflow API.
//
// Startup order: load .env (best effort), read configuration, configure
// logging, open the database and migrate the schema, wire tracing and the
// service graph, then serve HTTP with graceful shutdown. A background ticker
// drives the completion sweeps (confirmation emails and silent-tenant
// auto-confirmation).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/umiddey/propertyflow-backend/internal/config"
	httpapi "github.com/umiddey/propertyflow-backend/internal/http"
	"github.com/umiddey/propertyflow-backend/internal/mail"
	"github.com/umiddey/propertyflow-backend/internal/observability"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// sweepInterval is how often the completion sweeps run. Frequent enough
// that a failed confirmation email retries the same day, cheap enough to
// run against SQLite without contention.
const sweepInterval = 15 * time.Minute

func main() {
	// Local development convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting propertyflow backend")

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("create upload directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	mailer := mail.NewSMTPMailer(cfg.SMTP)
	svc := httpapi.BuildServices(db, mailer, cfg)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go runSweeps(ctx, svc)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// runSweeps drives the completion service until ctx is cancelled. One sweep
// runs immediately at startup so emails stuck from a previous crash go out
// without waiting a full interval.
func runSweeps(ctx context.Context, svc *httpapi.Services) {
	svc.Completion.RunSweep(ctx)

	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			svc.Completion.RunSweep(ctx)
		}
	}
}
