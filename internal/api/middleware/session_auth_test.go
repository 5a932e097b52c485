package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
)

// MockSessionReader はSessionReaderのモック
type MockSessionReader struct {
	mock.Mock
}

func (m *MockSessionReader) GetSession(ctx context.Context, token string) (*redisinfra.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redisinfra.Session), args.Error(1)
}

func adminSession() *redisinfra.Session {
	return &redisinfra.Session{
		UserID: "user-1",
		Name:   "管理者",
		Email:  "admin@example.com",
		Role:   "admin",
	}
}

func userSession() *redisinfra.Session {
	return &redisinfra.Session{
		UserID: "user-2",
		Name:   "山田太郎",
		Email:  "taro@example.com",
		Role:   "user",
	}
}

func TestSessionAuth(t *testing.T) {
	e := echo.New()

	t.Run("有効なトークンでセッションがコンテキストに積まれる", func(t *testing.T) {
		reader := new(MockSessionReader)
		reader.On("GetSession", mock.Anything, "token-abc").Return(userSession(), nil)

		var captured *redisinfra.Session
		handler := SessionAuth(reader)(func(c echo.Context) error {
			captured, _ = SessionFromContext(c)
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer token-abc")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		require.NoError(t, err)
		require.NotNil(t, captured)
		assert.Equal(t, "user-2", captured.UserID)
	})

	t.Run("トークンがない場合401", func(t *testing.T) {
		reader := new(MockSessionReader)
		handler := SessionAuth(reader)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
		reader.AssertNotCalled(t, "GetSession")
	})

	t.Run("失効したトークンは401", func(t *testing.T) {
		reader := new(MockSessionReader)
		reader.On("GetSession", mock.Anything, "expired").Return(nil, redisinfra.ErrSessionNotFound)

		handler := SessionAuth(reader)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer expired")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	t.Run("admin権限のセッションは通過する", func(t *testing.T) {
		reader := new(MockSessionReader)
		reader.On("GetSession", mock.Anything, "admin-token").Return(adminSession(), nil)

		handler := RequireAdmin(reader)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("一般ユーザーは403", func(t *testing.T) {
		reader := new(MockSessionReader)
		reader.On("GetSession", mock.Anything, "user-token").Return(userSession(), nil)

		handler := RequireAdmin(reader)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer user-token")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})
}
