package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/domain/event"
)

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEventBySlug(ctx context.Context, slug string) (*event.Event, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventService) GetAvailableSeats(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func testEvent() *event.Event {
	now := time.Now()
	return &event.Event{
		ID:          "event-123",
		Title:       "テックカンファレンス2026",
		Slug:        "tech-conf-2026",
		Date:        now.Add(30 * 24 * time.Hour),
		Time:        "10:00 - 18:00",
		Venue:       "東京国際フォーラム",
		Capacity:    100,
		BookedSeats: 37,
		Price:       5000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestEventHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にイベントを作成できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(testEvent(), nil)

		handler := NewEventHandler(mockService)

		reqBody := fmt.Sprintf(`{
			"title": "テックカンファレンス2026",
			"slug": "tech-conf-2026",
			"date": %q,
			"capacity": 100,
			"price": 5000
		}`, time.Now().Add(30*24*time.Hour).Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool          `json:"success"`
			Data    EventResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "event-123", resp.Data.ID)
		assert.Equal(t, 63, resp.Data.AvailableSeats)

		mockService.AssertExpectations(t)
	})

	t.Run("スラッグ重複の場合409", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(nil, event.ErrSlugAlreadyExists)

		handler := NewEventHandler(mockService)

		reqBody := fmt.Sprintf(`{"title": "x", "slug": "tech-conf-2026", "date": %q, "capacity": 10}`,
			time.Now().Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("定員なしはバリデーションで弾かれる", func(t *testing.T) {
		mockService := new(MockEventService)
		handler := NewEventHandler(mockService)

		reqBody := fmt.Sprintf(`{"title": "x", "slug": "y", "date": %q}`, time.Now().Format(time.RFC3339))
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		mockService.AssertNotCalled(t, "CreateEvent")
	})
}

func TestEventHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にイベントを取得できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetEvent", mock.Anything, "event-123").Return(testEvent(), nil)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/event-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("イベントが見つからない場合404", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetEvent", mock.Anything, "missing").Return(nil, event.ErrEventNotFound)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := handler.GetByID(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
		assert.Equal(t, "Event not found", he.Message)
	})
}

func TestEventHandler_GetAvailability(t *testing.T) {
	e := NewTestEcho()

	t.Run("残席数を返す", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetAvailableSeats", mock.Anything, "event-123").Return(63, nil)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/event-123/availability", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := handler.GetAvailability(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool                 `json:"success"`
			Data    AvailabilityResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 63, resp.Data.AvailableSeats)
	})

	t.Run("イベントが見つからない場合404", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("GetAvailableSeats", mock.Anything, "missing").Return(0, event.ErrEventNotFound)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events/missing/availability", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := handler.GetAvailability(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestEventHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("一覧を返す", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("ListEvents", mock.Anything, 0, 0).Return([]*event.Event{testEvent()}, nil)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEventHandler_Delete(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に削除できる", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("DeleteEvent", mock.Anything, "event-123").Return(nil)

		handler := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/events/event-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := handler.Delete(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
