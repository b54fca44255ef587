package balance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchRunner reconciles every user with financial activity, one at a
// time. Per-user failures are counted and logged, never fatal to the
// batch; re-running over an unchanged ledger converges (fixed = 0).
type BatchRunner struct {
	svc    *Service
	ledger LedgerReader
}

func NewBatchRunner(svc *Service, ledgerRepo LedgerReader) *BatchRunner {
	return &BatchRunner{svc: svc, ledger: ledgerRepo}
}

// ReconcileAll enumerates active investors and reconciles each.
// The enumeration error is the only fatal one; after that, every
// failure is isolated to its user.
func (b *BatchRunner) ReconcileAll(ctx context.Context) (*BatchSummary, error) {
	summary := &BatchSummary{StartedAt: time.Now().UTC()}

	ids, err := b.ledger.ActiveInvestorIDs(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().Int("users", len(ids)).Msg("starting balance reconciliation batch")

	for _, userID := range ids {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}

		result, err := b.svc.Reconcile(ctx, userID)
		summary.Processed++
		if err != nil {
			summary.Errors++
			log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Msg("reconciliation failed for user")
			continue
		}
		if result.Corrected {
			summary.Fixed++
		}
	}

	summary.FinishedAt = time.Now().UTC()

	log.Info().
		Int("processed", summary.Processed).
		Int("fixed", summary.Fixed).
		Int("errors", summary.Errors).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("balance reconciliation batch finished")

	return summary, nil
}
