package balance

import (
	"github.com/shopspring/decimal"

	"github.com/bitharvest/recon-api/internal/domain/ledger"
)

// Calculate derives {available, invested} from raw ledger rows.
//
//	available = Σ approved deposits − Σ completed wallet withdrawals
//	invested  = Σ active investment amounts
//
// Pure: no I/O, empty inputs yield zero, summation order is irrelevant.
// Rows in non-counting states are skipped here even though the repository
// already filters server-side, so callers may pass unfiltered rows.
func Calculate(deposits []ledger.Deposit, withdrawals []ledger.Withdrawal, investments []ledger.Investment) Totals {
	available := decimal.Zero
	for _, d := range deposits {
		if d.Status == ledger.DepositStatusApproved {
			available = available.Add(d.Amount)
		}
	}
	for _, w := range withdrawals {
		if w.Status == ledger.WithdrawalStatusCompleted && w.WithdrawalType == ledger.WithdrawalTypeWallet {
			available = available.Sub(w.Amount)
		}
	}

	invested := decimal.Zero
	for _, inv := range investments {
		if inv.Status == ledger.InvestmentStatusActive {
			invested = invested.Add(inv.InvestedAmount)
		}
	}

	return Totals{Available: available, Invested: invested}
}

// FromSnapshot is a convenience wrapper over Calculate.
func FromSnapshot(s *ledger.Snapshot) Totals {
	if s == nil {
		return Totals{Available: decimal.Zero, Invested: decimal.Zero}
	}
	return Calculate(s.Deposits, s.Withdrawals, s.Investments)
}

// exceedsTolerance reports whether |a − b| is strictly greater than eps.
// A drift of exactly eps does not trigger correction; this boundary was
// inconsistent in the legacy scripts and strictly-greater is the
// documented choice.
func exceedsTolerance(a, b, eps decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(eps)
}
