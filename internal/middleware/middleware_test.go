package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/logger"
)

// newEcho mirrors the production error rendering.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		httpErr := apperrors.MapErrorToHTTP(err)
		_ = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type staticBlacklist struct {
	auth.TokenStoreInterface
	revoked map[string]bool
}

func (s staticBlacklist) IsAccessTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

func TestTimeout_ExpiredDeadlineReturns504(t *testing.T) {
	e := newEcho()
	e.Use(Timeout(20*time.Millisecond, nil, logger.Discard()))
	e.GET("/slow", func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	body := decodeError(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Gateway Timeout", body.Error)
}

func TestTimeout_HandlerIgnoringDeadlineKeepsItsResponse(t *testing.T) {
	e := newEcho()
	e.Use(Timeout(10*time.Millisecond, nil, logger.Discard()))
	e.GET("/stubborn", func(c echo.Context) error {
		<-c.Request().Context().Done()
		return c.String(http.StatusOK, "late")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stubborn", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "late", rec.Body.String())
}

func TestTimeout_FastHandlerUnaffected(t *testing.T) {
	e := newEcho()
	e.Use(Timeout(time.Second, nil, logger.Discard()))
	e.GET("/fast", func(c echo.Context) error {
		_, hasDeadline := c.Request().Context().Deadline()
		assert.True(t, hasDeadline)
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTimeout_SkippedAndDisabled(t *testing.T) {
	for name, mw := range map[string]echo.MiddlewareFunc{
		"skipped":  Timeout(time.Second, SkipPrefixes("/api/auth"), logger.Discard()),
		"disabled": Timeout(0, nil, logger.Discard()),
	} {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			e.Use(mw)
			e.POST("/api/auth", func(c echo.Context) error {
				_, hasDeadline := c.Request().Context().Deadline()
				assert.False(t, hasDeadline)
				return c.NoContent(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestJWT(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	access, err := jwtService.GenerateAccessToken("user-1", "alice")
	require.NoError(t, err)
	_, refresh, err := jwtService.GenerateRefreshToken("user-1", "alice")
	require.NoError(t, err)
	revoked, err := jwtService.GenerateAccessToken("user-1", "alice")
	require.NoError(t, err)
	revokedClaims, err := jwtService.ValidateToken(revoked)
	require.NoError(t, err)

	store := staticBlacklist{revoked: map[string]bool{revokedClaims.ID: true}}

	e := newEcho()
	e.GET("/me", func(c echo.Context) error {
		id, ok := auth.UserIDFromContext(c.Request().Context())
		require.True(t, ok)
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, map[string]string{"id": id, "username": claims.Username})
	}, JWT(jwtService, store))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid access token", header: "Bearer " + access, status: http.StatusOK},
		{name: "missing header", status: http.StatusUnauthorized, message: "Missing Authorization Header"},
		{name: "refresh token is not an access token", header: "Bearer " + refresh, status: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized, message: "Invalid or expired token"},
		{name: "blacklisted", header: "Bearer " + revoked, status: http.StatusUnauthorized, message: "Token has been revoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"user-1","username":"alice"}`, rec.Body.String())
				return
			}
			body := decodeError(t, rec)
			assert.Equal(t, "Unauthorized", body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestMetrics_RendersErrorsBeforeRecording(t *testing.T) {
	e := newEcho()
	e.Use(Metrics())
	e.GET("/tickets/:id", func(c echo.Context) error {
		return apperrors.NewNotFoundError("Ticket with ID x was not found.")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec).Error)
}

func TestLoginRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	e := newEcho()
	e.POST("/api/auth", func(c echo.Context) error {
		var body struct {
			Username string `json:"username"`
		}
		require.NoError(t, c.Bind(&body))
		return c.String(http.StatusOK, body.Username)
	}, LoginRateLimit(redis_rate.NewLimiter(rdb), 1, logger.Discard()))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(`{"username":"alice"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String(), "body is restored for the handler")
	}
}

func TestLoginRateLimit_DisabledWithoutLimiter(t *testing.T) {
	called := false
	h := LoginRateLimit(nil, 10, logger.Discard())(func(c echo.Context) error {
		called = true
		return nil
	})

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth", nil), httptest.NewRecorder())
	require.NoError(t, h(c))
	assert.True(t, called)
}

func TestLoginRateLimitKey_KeepsLargeBodyIntact(t *testing.T) {
	payload := `{"username":"alice","password":"` + strings.Repeat("x", maxLoginBody+1024) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(payload))
	req.RemoteAddr = "10.0.0.1:1234"
	c := echo.New().NewContext(req, httptest.NewRecorder())

	key := loginRateLimitKey(c)
	assert.Equal(t, "login::10.0.0.1", key, "username beyond the peek window is not parsed")

	body, err := io.ReadAll(c.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestLoginRateLimitKey_SmallBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(`{"username":" Alice "}`))
	req.RemoteAddr = "10.0.0.1:1234"
	c := echo.New().NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "login:alice:10.0.0.1", loginRateLimitKey(c))
	body, err := io.ReadAll(c.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, `{"username":" Alice "}`, string(body))
}
