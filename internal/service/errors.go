package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Validation errors: rejected before any mutation, safe to retry with
// corrected input.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrBelowMinimum  = errors.New("amount below minimum purchase")
	ErrInvalidCode   = errors.New("invalid referral code")
	ErrSelfReferral  = errors.New("cannot use your own referral code")
)

// Conflict errors: the requested transition is not legal from the current
// state. A retry of the same request is a no-op, never a double credit.
var (
	ErrSessionActive    = errors.New("mining session already active")
	ErrNotClaimable     = errors.New("mining session not claimable")
	ErrCooldownActive   = errors.New("ad bonus cooldown active")
	ErrAlreadyReferred  = errors.New("user already referred")
	ErrAlreadyFinalized = errors.New("purchase already finalized")
	ErrTaskState        = errors.New("transition not allowed from current task state")
)

// Not-found errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrTaskNotFound     = errors.New("task not found")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
