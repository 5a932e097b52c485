package booking

import "errors"

// Booking ドメインのエラー定義
// ErrBookingNotFound の文言はAPIレスポンスにそのまま載る
var (
	ErrBookingNotFound         = errors.New("Booking not found")
	ErrEventIDRequired         = errors.New("event id is required")
	ErrUserNameRequired        = errors.New("user name is required")
	ErrUserEmailRequired       = errors.New("user email is required")
	ErrInvalidSeatCount        = errors.New("number of seats must be at least 1")
	ErrInvalidPaymentAmount    = errors.New("payment amount must not be negative")
	ErrPaymentAlreadyProcessed = errors.New("payment has already been processed")
)
