package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
)

// SessionContextKey はEchoコンテキストに格納するセッションのキー
const SessionContextKey = "session"

// SessionReader はトークンからセッションを解決するインターフェース
type SessionReader interface {
	GetSession(ctx context.Context, token string) (*redisinfra.Session, error)
}

// SessionAuth はBearerトークンを検証し、セッションをコンテキストに積むミドルウェア
func SessionAuth(auth SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := resolveSession(c, auth)
			if err != nil {
				return err
			}
			c.Set(SessionContextKey, sess)
			return next(c)
		}
	}
}

// RequireAdmin はadmin権限のセッションのみを通すミドルウェア。
// 権限はクライアントの申告ではなくRedis上のセッションから判定する
func RequireAdmin(auth SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := resolveSession(c, auth)
			if err != nil {
				return err
			}
			if sess.Role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			c.Set(SessionContextKey, sess)
			return next(c)
		}
	}
}

// SessionFromContext はミドルウェアが積んだセッションを取り出す
func SessionFromContext(c echo.Context) (*redisinfra.Session, bool) {
	sess, ok := c.Get(SessionContextKey).(*redisinfra.Session)
	return sess, ok
}

func resolveSession(c echo.Context, auth SessionReader) (*redisinfra.Session, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	token := strings.TrimPrefix(authHeader, prefix)

	sess, err := auth.GetSession(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, redisinfra.ErrSessionNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return sess, nil
}
