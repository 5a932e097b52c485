package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking/internal/api"
	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/domain/booking"
)

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(s PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type ProcessPaymentRequest struct {
	BookingID     string `json:"bookingId" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	PaymentMethod string `json:"paymentMethod" validate:"required" example:"credit_card"`
	CardNumber    string `json:"cardNumber" validate:"required" example:"4242424242424242"`
}

type PaymentResponse struct {
	BookingID     string  `json:"bookingId"`
	PaymentStatus string  `json:"paymentStatus"`
	TransactionID *string `json:"transactionId,omitempty"`
}

// Process godoc
// @Summary 決済を実行
// @Description 予約の決済を実行し、completed または failed の終端状態へ遷移させる
// @Tags payments
// @Accept json
// @Produce json
// @Param request body ProcessPaymentRequest true "決済情報"
// @Success 200 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse "決済失敗"
// @Failure 404 {object} api.ErrorResponse "予約が存在しない"
// @Failure 409 {object} api.ErrorResponse "決済処理済み"
// @Router /payments/process [post]
func (h *PaymentHandler) Process(c echo.Context) error {
	var req ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.ProcessPayment(c.Request().Context(), application.ProcessPaymentInput{
		BookingID:     req.BookingID,
		PaymentMethod: req.PaymentMethod,
		CardNumber:    req.CardNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, application.ErrPaymentFailed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, booking.ErrPaymentAlreadyProcessed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, api.Success(PaymentResponse{
		BookingID:     b.ID,
		PaymentStatus: string(b.PaymentStatus),
		TransactionID: b.TransactionID,
	}))
}
