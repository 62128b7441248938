package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"

	"ticketdesk/docs"
	"ticketdesk/internal/auth"
	"ticketdesk/internal/cache"
	"ticketdesk/internal/config"
	"ticketdesk/internal/db"
	"ticketdesk/internal/handler"
	"ticketdesk/internal/logger"
	"ticketdesk/internal/repository"
	"ticketdesk/internal/router"
	"ticketdesk/internal/service"
)

// @title Ticketdesk API
// @version 1.0
// @description Ticket tracking API with JWT authentication and an audit log.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath, log)
	if err != nil {
		log.Error("database init", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		log.Error("auto-migrate", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, running without cache, refresh tokens and login rate limiting",
			"addr", cfg.RedisAddr, "error", err)
	}
	cancelPing()

	var limiter *redis_rate.Limiter
	if rdb := cacheClient.Redis(); rdb != nil {
		limiter = redis_rate.NewLimiter(rdb)
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	ticketRepo := repository.NewTicketRepository(gormDB)
	logRepo := repository.NewLogRepository(gormDB)
	txManager := repository.NewTxManager(gormDB)

	// Auth components
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	auditService := service.NewAuditService(logRepo, log)
	authService := service.NewAuthService(userRepo, hasher, jwtService, tokenStore, auditService, log)
	ticketService := service.NewTicketService(txManager, ticketRepo, userRepo, auditService, cacheClient, log)
	userService := service.NewUserService(userRepo, ticketRepo, cacheClient)

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		cfg,
		log,
		jwtService,
		tokenStore,
		limiter,
		handler.NewAuthHandler(authService),
		handler.NewTicketHandler(ticketService),
		handler.NewLogHandler(auditService),
		handler.NewUserHandler(userService),
	)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	log.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server starting", "addr", addr, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
