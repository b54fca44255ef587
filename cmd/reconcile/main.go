package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bitharvest/recon-api/internal/config"
	"github.com/bitharvest/recon-api/internal/domain/balance"
	"github.com/bitharvest/recon-api/internal/domain/ledger"
	"github.com/bitharvest/recon-api/internal/pkg/database"
	"github.com/bitharvest/recon-api/internal/pkg/lock"
	"github.com/bitharvest/recon-api/internal/pkg/logger"
	"github.com/bitharvest/recon-api/internal/pkg/report"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: reconcile [flags] [user-id]

Recomputes user balances from the ledger and corrects cached rows that
drifted beyond tolerance. Without a user-id every user holding an active
investment is processed; with one, only that user.

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	jsonOut := flag.Bool("json", false, "print a machine-readable JSON summary to stdout")
	upload := flag.Bool("upload", false, "upload the batch report to object storage (requires export config)")
	flag.Usage = usage
	flag.Parse()

	// Argument validation happens before any I/O.
	if flag.NArg() > 1 {
		usage()
		os.Exit(2)
	}

	var userID uuid.UUID
	singleUser := flag.NArg() == 1
	if singleUser {
		var err error
		userID, err = uuid.Parse(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id %q: %v\n", flag.Arg(0), err)
			usage()
			os.Exit(2)
		}
	}

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

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

	ledgerRepo := ledger.NewRepository(db,
		ledger.WithRetry(cfg.ReadRetries, cfg.ReadRetryDelay),
		ledger.WithTimeout(cfg.ReadTimeout),
	)
	balanceRepo := balance.NewRepository(db, balance.WithTimeout(cfg.WriteTimeout))
	locker := lock.New(redis, cfg.LockTTL)
	reconSvc := balance.NewService(ledgerRepo, balanceRepo, locker, cfg.DriftEpsilon)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if singleUser {
		runSingle(ctx, reconSvc, userID, *jsonOut)
		return
	}

	runBatch(ctx, cfg, reconSvc, ledgerRepo, balance.NewSummaryCache(redis), *jsonOut, *upload)
}

func runSingle(ctx context.Context, svc *balance.Service, userID uuid.UUID, jsonOut bool) {
	result, err := svc.Reconcile(ctx, userID)
	if err != nil {
		// Single-user mode propagates failures to the exit code.
		log.Error().Err(err).Str("user_id", userID.String()).Msg("reconciliation failed")
		os.Exit(1)
	}

	if jsonOut {
		printJSON(result)
		return
	}

	if result.Corrected {
		fmt.Printf("user %s: corrected available %s -> %s, invested %s -> %s\n",
			result.UserID,
			result.AvailableBefore, result.AvailableAfter,
			result.InvestedBefore, result.InvestedAfter)
	} else {
		fmt.Printf("user %s: balance within tolerance (available %s, invested %s)\n",
			result.UserID, result.AvailableBefore, result.InvestedBefore)
	}
}

func runBatch(ctx context.Context, cfg *config.Config, svc *balance.Service, ledgerRepo *ledger.Repository, cache *balance.SummaryCache, jsonOut, upload bool) {
	runner := balance.NewBatchRunner(svc, ledgerRepo)

	summary, err := runner.ReconcileAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("batch reconciliation failed")
		os.Exit(1)
	}

	if err := cache.Store(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("failed to cache batch summary")
	}

	if upload {
		if !cfg.ReportExportEnabled() {
			log.Warn().Msg("report export not configured, skipping upload")
		} else {
			uploader, err := report.NewUploader(report.Config{
				AccountID:       cfg.ReportAccountID,
				AccessKeyID:     cfg.ReportAccessKeyID,
				AccessKeySecret: cfg.ReportAccessKeySecret,
				BucketName:      cfg.ReportBucketName,
			})
			if err != nil {
				log.Error().Err(err).Msg("failed to create report uploader")
			} else if key, err := uploader.Upload(ctx, "batch-"+uuid.New().String(), summary); err != nil {
				log.Error().Err(err).Msg("failed to upload batch report")
			} else {
				log.Info().Str("key", key).Msg("batch report uploaded")
			}
		}
	}

	if jsonOut {
		printJSON(summary)
		return
	}

	fmt.Printf("processed %d users: %d fixed, %d errors (took %s)\n",
		summary.Processed, summary.Fixed, summary.Errors,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON output")
		os.Exit(1)
	}
}
