package handler

import (
	"context"

	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking/internal/domain/event"
	"github.com/sanosuguru/go-event-booking/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetAvailableSeats(ctx context.Context, id string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	ListBookingsByEmail(ctx context.Context, email string) ([]*booking.WithEvent, error)
}

// PaymentServiceInterface は決済サービスのインターフェース
type PaymentServiceInterface interface {
	ProcessPayment(ctx context.Context, input application.ProcessPaymentInput) (*booking.Booking, error)
}

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Signup(ctx context.Context, input application.SignupInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (*application.LoginResult, error)
	Logout(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*redisinfra.Session, error)
}
