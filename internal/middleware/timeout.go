package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	apperrors "ticketdesk/internal/errors"
	"ticketdesk/internal/metrics"
)

// Timeout gives every request a context deadline. Store calls honour the
// context, so an expired deadline cancels in-flight SQL and the returned
// deadline error becomes a 504 envelope. A handler that ignores the deadline
// and writes its own response keeps that response. A non-positive timeout
// disables the guard with a warning.
func Timeout(timeout time.Duration, skipper echomw.Skipper, log *slog.Logger) echo.MiddlewareFunc {
	if timeout <= 0 {
		log.Warn("request timeout is not positive, enforcement disabled", "timeout", timeout)
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if skipper == nil {
		skipper = echomw.DefaultSkipper
	}

	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Skipper: skipper,
		Timeout: timeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(c.Request().Context().Err(), context.DeadlineExceeded) {
				metrics.RequestTimeoutsTotal.WithLabelValues(routeLabel(c)).Inc()
				log.WarnContext(c.Request().Context(), "request timed out",
					"method", c.Request().Method, "path", c.Path(), "timeout", timeout)
				return apperrors.NewTimeoutError("The request timed out.", context.DeadlineExceeded)
			}
			return err
		},
	})
}

// SkipPrefixes returns a skipper matching any request path with one of the
// given prefixes.
func SkipPrefixes(prefixes ...string) echomw.Skipper {
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}
