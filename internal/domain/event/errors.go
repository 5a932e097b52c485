package event

import "errors"

// Event ドメインのエラー定義
// ErrEventNotFound と ErrNotEnoughSeats の文言はAPIレスポンスにそのまま載る
var (
	ErrEventNotFound      = errors.New("Event not found")
	ErrNotEnoughSeats     = errors.New("Not enough seats available")
	ErrTitleRequired      = errors.New("event title is required")
	ErrSlugRequired       = errors.New("event slug is required")
	ErrSlugAlreadyExists  = errors.New("event slug already exists")
	ErrInvalidCapacity    = errors.New("capacity must be a positive integer")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrInvalidBookedSeats = errors.New("booked seats must be between 0 and capacity")
)
