package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Business-rule errors raised by the application layer. Storage-level
// conditions (account not found, insufficient balance) are the store
// package's sentinel errors and pass through unchanged.
var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrEmailRequired     = errors.New("sender and receiver emails are required")
	ErrSameAccount       = errors.New("sender and receiver must be different accounts")
	ErrAdminInactive     = errors.New("acting admin has been deactivated")
	ErrNameRequired      = errors.New("name is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrNoUpdateFields    = errors.New("at least one field to update is required")
	ErrRateLimited       = errors.New("too many movement requests")
)

// IsTransient reports whether an error is a storage timeout or unavailability
// that is safe to retry, as opposed to a business-rule failure or an
// unexpected internal fault.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return pgconn.Timeout(err)
}
