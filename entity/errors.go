package entity

import "errors"

// Saga failure kinds. Each one is terminal for a single CreateBooking
// invocation; callers match with errors.Is.
var (
	ErrUserValidationFailed  = errors.New("user validation failed")
	ErrNoStockAvailable      = errors.New("no stock available")
	ErrReservationFailed     = errors.New("seat reservation failed")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrPaymentOutcomeUnknown = errors.New("payment outcome unknown")
	ErrLedgerWriteFailed     = errors.New("ledger write failed")
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
