// README: Entry point; loads config, wires services explicitly, starts HTTP server and background workers.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rideflow/internal/ai"
	"rideflow/internal/config"
	httptransport "rideflow/internal/http"
	"rideflow/internal/infra"
	"rideflow/internal/maps"
	"rideflow/internal/modules/location"
	"rideflow/internal/modules/matching"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/modules/ride"
	"rideflow/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	// The event stream is a best-effort side channel; run without it rather
	// than refuse to start.
	var bus notify.EventPublisher
	amqpConn, err := infra.NewAMQP(cfg.AMQP.URL)
	if err != nil {
		log.Warn("amqp unavailable, event stream disabled", "err", err)
	} else {
		defer amqpConn.Close()
		bus = notify.NewAMQPPublisher(amqpConn)
	}

	var predictor pricing.Predictor
	if cfg.AI.GeminiKey != "" {
		gp, err := ai.NewGeminiPredictor(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Warn("fare predictor unavailable, formula only", "err", err)
		} else {
			defer gp.Close()
			predictor = gp
		}
	}

	var routes pricing.RouteEstimator
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Warn("maps client unavailable, using haversine", "err", err)
		} else {
			routes = rs
		}
	}

	locationCache := location.NewRedisStore(redisClient, cfg.Location.TTL)

	demand := pricing.NewRedisDemandSource(redisClient, locationCache)
	pricingSvc := pricing.NewService(cfg.Pricing, demand, predictor, routes, log.With("component", "pricing"))

	matchingStore := matching.NewRedisStore(redisClient)
	matchingSvc := matching.NewService(locationCache, matchingStore, cfg.Matching, log.With("component", "matching"))

	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(hub, bus, log.With("component", "notify"))

	locationSvc := location.NewService(locationCache, dispatcher, log.With("component", "location"))

	rideStore := ride.NewPGStore(dbPool)
	rideSvc := ride.NewService(rideStore, pricingSvc, matchingSvc, dispatcher, demand, log.With("component", "ride"))

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:     rideSvc,
		Locations: locationSvc,
		Pricing:   pricingSvc,
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.With("component", "http"),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go dispatcher.Run(ctx)
	go rideSvc.RunRequestExpiry(ctx, 30*time.Second, 10*time.Minute)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
