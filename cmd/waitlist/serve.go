package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/erwaitlist/waitlist/internal/config"
	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
	"github.com/erwaitlist/waitlist/internal/platform/db"
	"github.com/erwaitlist/waitlist/internal/platform/middleware"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the waitlist API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// loadServerConfig reads the config and builds the logger for its ENV, so
// defaults and .env decide the log format just as they decide everything else.
func loadServerConfig(out io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(out, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func runServer() error {
	cfg, logger, err := loadServerConfig(os.Stdout)
	if err != nil {
		return err
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	svc := waitlist.NewService(
		waitlist.NewPatientRepoPG(pool, logger),
		waitlist.NewAuthenticator(waitlist.NewAdminRepoPG(pool, logger)),
	)

	e := newRouter(cfg, logger, routerDeps{
		service: svc,
		pinger:  pool,
		health:  db.HealthHandler(pool),
		conn:    db.ConnMiddleware(pool),
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

type routerDeps struct {
	service *waitlist.Service
	pinger  db.Pinger
	// health serves the detailed probe; nil leaves /health unregistered.
	health echo.HandlerFunc
	// conn scopes a pooled connection to each API request when set.
	conn echo.MiddlewareFunc
}

// probePaths are never rate limited and never hold a pooled connection.
var probePaths = map[string]bool{"/api": true, "/health": true}

func newRouter(cfg *config.Config, logger zerolog.Logger, deps routerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	rateLimitCfg.Skipper = func(c echo.Context) bool {
		return probePaths[c.Path()]
	}
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Probes
	e.GET("/api", db.StatusHandler(deps.pinger, logger))
	if deps.health != nil {
		e.GET("/health", deps.health)
	}

	// Waitlist API
	var apiMiddleware []echo.MiddlewareFunc
	if deps.conn != nil {
		apiMiddleware = append(apiMiddleware, deps.conn)
	}
	waitlist.NewHandler(deps.service).RegisterRoutes(e, apiMiddleware...)

	return e
}
