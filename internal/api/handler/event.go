package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking/internal/api"
	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/domain/event"
)

type EventHandler struct {
	service EventServiceInterface
}

func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required" example:"Tech Conference 2026"`
	Description string    `json:"description" example:"年次技術カンファレンス"`
	Image       string    `json:"image" example:"https://example.com/image.png"`
	Slug        string    `json:"slug" validate:"required" example:"tech-conference-2026"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" example:"10:00 - 18:00"`
	Venue       string    `json:"venue" example:"東京国際フォーラム"`
	Capacity    int       `json:"capacity" validate:"required,min=1" example:"100"`
	Price       float64   `json:"price" validate:"min=0" example:"5000"`
}

type UpdateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Slug        string    `json:"slug" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time"`
	Venue       string    `json:"venue"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
	Price       float64   `json:"price" validate:"min=0"`
}

type EventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Image          string    `json:"image,omitempty"`
	Slug           string    `json:"slug"`
	Date           time.Time `json:"date"`
	Time           string    `json:"time,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	Capacity       int       `json:"capacity"`
	BookedSeats    int       `json:"bookedSeats"`
	AvailableSeats int       `json:"availableSeats"`
	Price          float64   `json:"price"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Title: e.Title, Description: e.Description,
		Image: e.Image, Slug: e.Slug, Date: e.Date, Time: e.Time,
		Venue: e.Venue, Capacity: e.Capacity, BookedSeats: e.BookedSeats,
		AvailableSeats: e.AvailableSeats(), Price: e.Price, CreatedAt: e.CreatedAt,
	}
}

// AvailabilityResponse は残席照会のレスポンス
type AvailabilityResponse struct {
	EventID        string `json:"eventId"`
	AvailableSeats int    `json:"availableSeats"`
}

// Create godoc
// @Summary イベントを作成
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} api.SuccessResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "スラッグが重複"
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title: req.Title, Description: req.Description, Image: req.Image,
		Slug: req.Slug, Date: req.Date, Time: req.Time, Venue: req.Venue,
		Capacity: req.Capacity, Price: req.Price,
	})
	if err != nil {
		if errors.Is(err, event.ErrSlugAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, api.Success(toEventResponse(e)))
}

// List は開催日の昇順でイベント一覧を返す
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	events, err := h.service.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, api.Success(resp))
}

func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.service.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, api.Success(toEventResponse(e)))
}

func (h *EventHandler) GetBySlug(c echo.Context) error {
	e, err := h.service.GetEventBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, api.Success(toEventResponse(e)))
}

func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID: c.Param("id"), Title: req.Title, Description: req.Description,
		Image: req.Image, Slug: req.Slug, Date: req.Date, Time: req.Time,
		Venue: req.Venue, Capacity: req.Capacity, Price: req.Price,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, event.ErrSlugAlreadyExists):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, api.Success(toEventResponse(e)))
}

func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAvailability godoc
// @Summary 残席数を取得
// @Description キャッシュ優先で残席数を返す
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} api.SuccessResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/availability [get]
func (h *EventHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	available, err := h.service.GetAvailableSeats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, api.Success(AvailabilityResponse{
		EventID:        id,
		AvailableSeats: available,
	}))
}
