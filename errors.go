package bankero

import "errors"

// Validation errors reject an intent before an event is constructed.
// Nothing is appended when Submit returns one of these.
var (
	// ErrInvalidSplit is returned when split amounts do not sum to the total.
	ErrInvalidSplit = errors.New("split amounts do not sum to the total amount")
	// ErrNegativeAmount is returned when an amount must be strictly positive.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrMissingAccount is returned when a required account is absent.
	ErrMissingAccount = errors.New("missing account")
	// ErrUnknownCommodity is returned for commodities that are neither ISO
	// currencies nor plain asset symbols.
	ErrUnknownCommodity = errors.New("unknown commodity")
)

// Resolution errors mean the intent referenced data the local stores cannot
// provide. The caller may retry after populating the rate store, or
// substitute a manual override.
var (
	// ErrRateNotFound is returned when no stored rate exists for the
	// requested (provider, base, quote) pair at or before the as-of time.
	ErrRateNotFound = errors.New("rate not found")
	// ErrBasisUnresolved is returned when a provider-computed basis cannot
	// be resolved through the rate resolver.
	ErrBasisUnresolved = errors.New("basis provider unresolved")
)
