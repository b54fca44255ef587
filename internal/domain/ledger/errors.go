package ledger

import "errors"

var (
	// ErrDataAccess marks any read failure against the ledger store.
	// An empty result set is valid and never produces this error.
	ErrDataAccess = errors.New("ledger data access failed")
)
