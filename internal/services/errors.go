package services

import "errors"

// Shared error taxonomy for the booking-to-settlement pipeline. Handlers map
// these to HTTP status codes; nothing in the services retries on them.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrMentorNotFound     = errors.New("mentor not found")
	ErrConflict           = errors.New("time conflict with an existing booking")
	ErrSlotClosed         = errors.New("mentor is not available for the requested window")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrAlreadyConfirmed   = errors.New("booking already confirmed")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrPaymentNotVerified = errors.New("payment not verified")
	ErrUpstream           = errors.New("payment gateway unavailable")
	ErrPayoutNotEligible  = errors.New("payout not eligible")
)
