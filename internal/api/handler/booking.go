package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking/internal/api"
	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking/internal/domain/event"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	EventID       string `json:"eventId" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserName      string `json:"userName" validate:"required" example:"山田太郎"`
	UserEmail     string `json:"userEmail" validate:"required,email" example:"taro@example.com"`
	NumberOfSeats int    `json:"numberOfSeats" validate:"required,min=1" example:"2"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"eventId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	NumberOfSeats int       `json:"numberOfSeats"`
	BookingDate   time.Time `json:"bookingDate"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentAmount float64   `json:"paymentAmount"`
	PaymentMethod *string   `json:"paymentMethod,omitempty"`
	TransactionID *string   `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, EventID: b.EventID,
		UserName: b.UserName, UserEmail: b.UserEmail,
		NumberOfSeats: b.NumberOfSeats, BookingDate: b.BookingDate,
		Status: string(b.Status), PaymentStatus: string(b.PaymentStatus),
		PaymentAmount: b.PaymentAmount, PaymentMethod: b.PaymentMethod,
		TransactionID: b.TransactionID, CreatedAt: b.CreatedAt,
	}
}

// BookingWithEventResponse は予約にイベント情報を添えたレスポンス
type BookingWithEventResponse struct {
	BookingResponse
	Event EventResponse `json:"event"`
}

// Create godoc
// @Summary 予約を作成
// @Description 残席があれば予約を作成する。決済は未完了（pending）の状態で返す
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse "残席不足"
// @Failure 404 {object} api.ErrorResponse "イベントが存在しない"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		EventID:       req.EventID,
		UserName:      req.UserName,
		UserEmail:     req.UserEmail,
		NumberOfSeats: req.NumberOfSeats,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, event.ErrNotEnoughSeats),
			errors.Is(err, booking.ErrInvalidSeatCount),
			errors.Is(err, booking.ErrEventIDRequired),
			errors.Is(err, booking.ErrUserNameRequired),
			errors.Is(err, booking.ErrUserEmailRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, api.Success(toBookingResponse(b)))
}

// ListByEmail godoc
// @Summary メールアドレスで予約一覧を取得
// @Description 指定メールアドレスの予約をイベント情報付きで新しい順に返す
// @Tags bookings
// @Produce json
// @Param email query string true "メールアドレス"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse "email未指定"
// @Router /bookings [get]
func (h *BookingHandler) ListByEmail(c echo.Context) error {
	bookings, err := h.service.ListBookingsByEmail(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		if errors.Is(err, application.ErrEmailRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingWithEventResponse, len(bookings))
	for i, bw := range bookings {
		resp[i] = BookingWithEventResponse{
			BookingResponse: toBookingResponse(bw.Booking),
			Event:           toEventResponse(bw.Event),
		}
	}
	return c.JSON(http.StatusOK, api.Success(resp))
}

func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, api.Success(toBookingResponse(b)))
}
