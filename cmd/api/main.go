package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/bitharvest/recon-api/internal/config"
	"github.com/bitharvest/recon-api/internal/domain/balance"
	"github.com/bitharvest/recon-api/internal/domain/ledger"
	"github.com/bitharvest/recon-api/internal/middleware"
	"github.com/bitharvest/recon-api/internal/pkg/database"
	"github.com/bitharvest/recon-api/internal/pkg/lock"
	"github.com/bitharvest/recon-api/internal/pkg/logger"
	"github.com/bitharvest/recon-api/internal/pkg/report"
	pkgresponse "github.com/bitharvest/recon-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting recon API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db,
		ledger.WithRetry(cfg.ReadRetries, cfg.ReadRetryDelay),
		ledger.WithTimeout(cfg.ReadTimeout),
	)
	balanceRepo := balance.NewRepository(db, balance.WithTimeout(cfg.WriteTimeout))

	// ---------- Services ----------
	locker := lock.New(redis, cfg.LockTTL)
	reconSvc := balance.NewService(ledgerRepo, balanceRepo, locker, cfg.DriftEpsilon)
	runner := balance.NewBatchRunner(reconSvc, ledgerRepo)
	summaryCache := balance.NewSummaryCache(redis)

	var uploader *report.Uploader
	if cfg.ReportExportEnabled() {
		uploader, err = report.NewUploader(report.Config{
			AccountID:       cfg.ReportAccountID,
			AccessKeyID:     cfg.ReportAccessKeyID,
			AccessKeySecret: cfg.ReportAccessKeySecret,
			BucketName:      cfg.ReportBucketName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report uploader")
		}
	}

	// ---------- Handlers ----------
	balanceHandler := balance.NewHandler(reconSvc, runner, balanceRepo, ledgerRepo, summaryCache, uploader)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.AdminAPIKey))
		r.Mount("/", balanceHandler.Routes())
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Batch reconciliation runs synchronously inside a request.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
