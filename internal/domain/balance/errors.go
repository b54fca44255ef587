package balance

import "errors"

var (
	// ErrPersistence marks a failed write (upsert or audit insert).
	ErrPersistence = errors.New("balance write failed")

	// ErrInsufficientBalance is a domain rejection: a debit would drive
	// the available balance negative. Never clamped to zero.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrInvalidAmount rejects zero or negative operation amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUserBusy means another reconciliation holds the per-user lock.
	ErrUserBusy = errors.New("user reconciliation already in progress")
)
