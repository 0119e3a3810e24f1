// services/errors.go
package services

import "errors"

// Engine error taxonomy. Synchronous single-member operations surface these
// directly; batch ticks swallow them per member and report aggregates.
var (
	// Validation: rejected before any mutation.
	ErrBelowMinimum    = errors.New("stake amount below program minimum")
	ErrUnknownProgram  = errors.New("unknown program")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrSponsorRequired = errors.New("sponsor referral code required")

	// Not found.
	ErrMemberNotFound     = errors.New("member not found")
	ErrSponsorNotFound    = errors.New("sponsor has no tree node")
	ErrNodeNotFound       = errors.New("tree node not found")
	ErrStakeNotFound      = errors.New("stake not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrPoolNotFound       = errors.New("leadership pool not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// Balance guards: rejected before any mutation.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// State machine guards.
	ErrNotEligible       = errors.New("compounding eligibility not met")
	ErrPoolNotReady      = errors.New("pool distribution not calculated")
	ErrPoolNotCollecting = errors.New("pool is no longer collecting")
	ErrRootExists        = errors.New("tree root already exists")

	// Idempotency guard tripped: callers treat this as success-no-op.
	ErrAlreadyProcessed = errors.New("already processed")

	// Optimistic version mismatch after bounded retries.
	ErrVersionConflict = errors.New("tree node version conflict")

	// Traversal bound hit; a placement graph cycle fails closed here.
	ErrTreeBoundExceeded = errors.New("tree traversal bound exceeded")
)
