// errors.go defines the failure taxonomy of the sale contract. Every
// operation fails with exactly one of these sentinels (possibly wrapped
// with call-site context) and leaves no partial state mutation behind.
package core

import "errors"

// Principal and guard errors.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrReentrantCall = errors.New("reentrant call")
)

// Lifecycle and switch-state errors.
var (
	ErrAlreadyInitialized = errors.New("sale already initialized")
	ErrNotInitialized     = errors.New("sale not initialized")
	ErrAlreadyActive      = errors.New("sale already active")
	ErrSaleNotActive      = errors.New("sale not active")
	ErrContractStopped    = errors.New("contract stopped")
	ErrContractNotStopped = errors.New("contract not stopped")
	ErrAlreadyStopped     = errors.New("contract already stopped")
	ErrContractPaused     = errors.New("contract paused")
)

// Argument validation errors.
var (
	ErrInvalidRecipient   = errors.New("invalid recipient address")
	ErrInvalidCommitValue = errors.New("commit value must be positive")
	ErrZeroPayment        = errors.New("payment must be positive")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrInvalidDuration    = errors.New("duration must be positive")
)

// Funds errors.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientSupply    = errors.New("insufficient remaining supply")
	ErrInsufficientVault     = errors.New("insufficient vault balance")
)

// Commit-reveal errors.
var (
	ErrNoCommitFound           = errors.New("no commit found")
	ErrRevealTooEarly          = errors.New("reveal period has not elapsed")
	ErrInvalidCommitRevealPair = errors.New("commit-reveal pair mismatch")
)

// ErrPaymentFailed indicates the downstream payment transfer did not
// succeed; the vault debit is rolled back before the error is returned.
var ErrPaymentFailed = errors.New("payment failed")
