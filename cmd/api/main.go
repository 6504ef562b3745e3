package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luluspa/spa-booking-backend/internal/adapters/cache"
	"github.com/luluspa/spa-booking-backend/internal/adapters/clock"
	"github.com/luluspa/spa-booking-backend/internal/adapters/database"
	"github.com/luluspa/spa-booking-backend/internal/adapters/events"
	"github.com/luluspa/spa-booking-backend/internal/api/handlers"
	"github.com/luluspa/spa-booking-backend/internal/api/routes"
	"github.com/luluspa/spa-booking-backend/internal/application/services"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/clients/postgres"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/clients/redis"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/notifications"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/observability"
	"github.com/luluspa/spa-booking-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	// Initialize adapters
	bookingAdapter := database.NewBookingAdapter(pgClient)
	voucherAdapter := database.NewVoucherAdapter(pgClient)

	cacheProvider := cache.NewRedisAdapter(redisClient)
	var serviceAdapter repositories.ServiceRepository = database.NewServiceAdapter(pgClient)
	serviceAdapter = database.NewCachedServiceAdapter(serviceAdapter, cacheProvider)

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	systemClock := clock.NewSystemClock()

	// Initialize mail
	var mailer providers.Mailer
	if cfg.SMTP.Enabled {
		smtpSender, err := notifications.NewSMTPSender(&cfg.SMTP)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize SMTP sender")
		}
		mailer = smtpSender
	} else {
		mailer = notifications.NewNoopSender()
		logger.Warn().Msg("SMTP disabled, booking mail will be dropped")
	}

	// Initialize services
	notificationService := services.NewNotificationService(mailer)
	bookingService := services.NewBookingService(
		bookingAdapter,
		serviceAdapter,
		voucherAdapter,
		eventBus,
		notificationService,
		systemClock,
		metrics,
	)
	checkoutService := services.NewCheckoutTimerService(
		bookingAdapter,
		eventBus,
		systemClock,
		cfg.Checkout.Window,
		cfg.Checkout.SweepInterval,
		metrics,
	)

	// Start the checkout sweeper
	go checkoutService.Run(ctx)

	// Initialize handlers and routes
	bookingHandler := handlers.NewBookingHandler(bookingService, checkoutService)
	sseHandler := handlers.NewSSEHandler(eventBus)

	router := routes.NewRouter(bookingHandler, sseHandler, cfg.Auth.JWTSecret, metrics)
	handler := router.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
}
