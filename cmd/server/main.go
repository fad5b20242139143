package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/application"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/cache"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/config"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/directions"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/events"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/geocoding"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/mapview"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/provider/googlemaps"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/provider/mapbox"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/internal/stream"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/health"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/kafka"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/logger"
	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "service-ride-booking"

type mapProvider interface {
	booking.GeocodingProvider
	booking.DirectionsProvider
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("provider", cfg.Provider.Name),
	)
	if cfg.Map.AccessToken == "" {
		log.Warn("MAPBOX_ACCESS_TOKEN is not set; maps will not render")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize map provider
	provider, err := newProvider(cfg, log)
	if err != nil {
		log.Fatal("failed to create map provider", zap.Error(err))
	}

	// Connect to Redis if configured; lookups work uncached without it
	checks := map[string]health.Check{}
	var (
		geocodeCache geocoding.Cache
		routeCache   directions.Cache
	)
	if cfg.Redis.Enabled() {
		redisCache, err := cache.Connect(ctx, cfg.Redis, cfg.CacheTTL, log)
		if err != nil {
			log.Error("redis unavailable, continuing without cache", zap.Error(err))
		} else {
			defer func() { _ = redisCache.Close() }()
			geocodeCache = redisCache
			routeCache = redisCache
			checks["redis"] = redisCache.Health
		}
	}

	// Initialize event publisher
	var publisher application.EventPublisher = events.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = events.NewKafkaPublisher(kafkaProducer, cfg.Kafka.BookingTopic, log)
	}

	// Initialize application services
	resolver := geocoding.NewResolver(provider, geocodeCache, log)
	routes := directions.NewService(provider, routeCache, log)
	hub := stream.NewHub(log)

	settings := application.FlowSettings{
		Container: "map",
		Center:    booking.Coordinate{Longitude: cfg.Map.CenterLon, Latitude: cfg.Map.CenterLat},
		Zoom:      cfg.Map.Zoom,
		FocusZoom: cfg.Map.FocusZoom,
	}
	deps := application.FlowDeps{
		Resolver:  resolver,
		Routes:    routes,
		Pricing:   booking.NewStandardPricingStrategy(),
		Publisher: publisher,
		Notifier:  stream.NewSessionNotifier(hub),
		Settings:  settings,
		Logger:    log,
	}
	viewOpts := mapview.Options{AccessToken: cfg.Map.AccessToken, Style: cfg.Map.Style}
	sessions := application.NewSessionManager(func(id uuid.UUID) booking.MapView {
		return mapview.New(viewOpts, hub.CommandEmitter(id), log)
	}, deps, log)
	sessions.OnClosed(hub.CloseTopic)

	go sessions.RunJanitor(ctx, time.Minute, cfg.SessionIdle)

	// Initialize HTTP handlers
	sessionHandler := handler.NewSessionHandler(sessions, hub)
	lookupLimiter := middleware.NewIPRateLimiter(rate.Limit(5), 10, log)
	go lookupLimiter.RunSweeper(ctx, time.Minute, 10*time.Minute)
	lookupHandler := handler.NewLookupHandler(resolver, lookupLimiter)
	pageHandler := handler.NewPageHandler(handler.PageData{
		AccessToken: cfg.Map.AccessToken,
		Container:   settings.Container,
	})

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(serviceName, checks)
	healthHandler.RegisterRoutes(router)

	// Register routes
	pageHandler.RegisterRoutes(&router.RouterGroup)
	sessionHandler.RegisterRoutes(&router.RouterGroup)
	lookupHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server. WriteTimeout stays zero so event streams are not cut off.
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop the janitor and end open event streams before draining HTTP
	cancel()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	sessions.Shutdown()

	log.Info(serviceName + " stopped")
}

func newProvider(cfg *config.ServiceConfig, log *zap.Logger) (mapProvider, error) {
	switch cfg.Provider.Name {
	case config.ProviderGoogle:
		return googlemaps.NewClient(googlemaps.Config{
			APIKey:        cfg.Provider.GoogleAPIKey,
			Timeout:       cfg.Provider.Timeout,
			RatePerSecond: cfg.Provider.RatePerSecond,
		}, log)
	default:
		return mapbox.NewClient(mapbox.Config{
			AccessToken:   cfg.Map.AccessToken,
			BaseURL:       cfg.Provider.MapboxBaseURL,
			Timeout:       cfg.Provider.Timeout,
			RatePerSecond: cfg.Provider.RatePerSecond,
		}, log), nil
	}
}
