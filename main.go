package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	appLogger "github.com/FACorreiaa/go-day-planner/app/logger"
	"github.com/FACorreiaa/go-day-planner/app/tracer"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/container"
	"github.com/FACorreiaa/go-day-planner/internal/router"
)

const defaultRequestTimeout = 60 * time.Second

func main() {
	// slog is not configured yet, so failures here go through the standard logger
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTelemetry, err := tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port, logger)
	if err != nil {
		logger.Error("Failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}

	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to build application container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}
	if err := c.RunMigrations(); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	requestTimeout := cfg.Server.Timeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	apiRouter := router.SetupRouter(&router.Config{
		ItineraryHandler: c.ItineraryHandler,
		CityHandler:      c.CityHandler,
		PlanRequests:     cfg.RateLimit.PlanRequests,
		PlanWindow:       cfg.RateLimit.Window,
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(requestTimeout))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", apiRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:              serverAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
	}

	logger.Info("Application shut down complete.")
}

// setupLogger uses tint in development and JSON everywhere else.
func setupLogger() *slog.Logger {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
