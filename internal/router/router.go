package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"ticketdesk/internal/auth"
	"ticketdesk/internal/config"
	"ticketdesk/internal/handler"
	appmw "ticketdesk/internal/middleware"
)

// Routes without a request deadline.
var timeoutExempt = []string{
	"/api/users/register",
	"/api/auth",
	"/swagger/",
	"/healthz",
	"/metrics",
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *slog.Logger,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	limiter *redis_rate.Limiter,
	authHandler *handler.AuthHandler,
	ticketHandler *handler.TicketHandler,
	logHandler *handler.LogHandler,
	userHandler *handler.UserHandler,
) {
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(appmw.Metrics())
	e.Use(appmw.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(appmw.Timeout(cfg.RequestTimeout, appmw.SkipPrefixes(timeoutExempt...), log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/users/register", authHandler.Register)
	api.POST("/auth", authHandler.Login, appmw.LoginRateLimit(limiter, cfg.LoginRateLimit, log))
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication)
	jwt := appmw.JWT(jwtService, tokenStore)

	api.POST("/tickets", ticketHandler.Create, jwt)
	api.GET("/tickets/list", ticketHandler.List, jwt)
	api.GET("/tickets/:id", ticketHandler.Get, jwt)
	api.DELETE("/tickets/:id", ticketHandler.Delete, jwt)

	api.GET("/logs", logHandler.List, jwt)
	api.GET("/users/me", userHandler.Me, jwt)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
