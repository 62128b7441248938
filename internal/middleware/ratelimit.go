package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"

	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/metrics"
)

const maxLoginBody = 64 << 10

// LoginRateLimit throttles login attempts per username and client IP using a
// Redis-backed GCRA limiter. Redis failures let the request through.
// A nil limiter or non-positive limit disables the throttle.
func LoginRateLimit(limiter *redis_rate.Limiter, perMinute int, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil || perMinute <= 0 {
			return next
		}
		limit := redis_rate.PerMinute(perMinute)

		return func(c echo.Context) error {
			key := loginRateLimitKey(c)
			res, err := limiter.Allow(c.Request().Context(), key, limit)
			if err != nil {
				log.WarnContext(c.Request().Context(), "login rate limiter unavailable", "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if res.Allowed == 0 {
				metrics.LoginRateLimitedTotal.Inc()
				h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				return apperrors.NewTooManyRequestsError("Too many login attempts. Try again later.")
			}
			return next(c)
		}
	}
}

// loginRateLimitKey peeks at the first maxLoginBody bytes of the JSON body for
// the username. The handler still receives the complete body.
func loginRateLimitKey(c echo.Context) string {
	username := ""
	req := c.Request()
	if req.Body != nil {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxLoginBody))
		if err == nil {
			var payload struct {
				Username string `json:"username"`
			}
			if json.Unmarshal(body, &payload) == nil {
				username = strings.ToLower(strings.TrimSpace(payload.Username))
			}
		}
		req.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), req.Body), req.Body}
	}
	return "login:" + username + ":" + c.RealIP()
}
