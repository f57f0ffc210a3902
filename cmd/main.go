package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"julianmorley.ca/con-plar/storefront/internal/router"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/session"
	"julianmorley.ca/con-plar/storefront/pkg/storefront"
)

func main() {
	if err := godotenv.Load(); err != nil && global.ParseEnvironment(os.Getenv("ENV")) == global.Production {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := global.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := global.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.String("store", cfg.SessionStore), zap.Error(err))
	}

	opts := []gateway.Option{
		gateway.WithCache(gateway.NewCache(cfg.CacheTTL)),
		gateway.WithLogger(logger),
	}
	if cfg.GatewayRPS > 0 {
		opts = append(opts, gateway.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.GatewayRPS), cfg.GatewayBurst)))
	}
	gw := gateway.New(cfg.APIURL, nil, opts...)

	registry := storefront.NewRegistry(gw, backend, storefront.Settings{
		TokenTTL:    cfg.SessionTTL,
		IdleTimeout: cfg.SessionIdle,
		TaxRate:     cfg.TaxRate,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.Run(ctx, time.Minute)

	handler := router.NewHandler(gw, registry, backend, cfg.QueryRetries, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewEngine(cfg, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// closing the stores ends open /cart/events streams
	server.RegisterOnShutdown(registry.Close)

	go func() {
		logger.Info("Server is running",
			zap.String("port", cfg.Port),
			zap.String("env", string(cfg.Environment)),
			zap.String("api", cfg.APIURL),
			zap.String("sessionStore", cfg.SessionStore),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := global.GetDefaultTimer()
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown", zap.Error(err))
	}
	if err := backend.Close(shutdownCtx); err != nil {
		logger.Warn("Session store close", zap.Error(err))
	}
}

func openBackend(cfg *global.Config) (session.Backend, error) {
	switch cfg.SessionStore {
	case "redis":
		backend := session.NewRedisBackend(session.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword))
		ctx, cancel := global.GetDefaultTimer()
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	case "mongo":
		client, err := session.GetMongoClient(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		ctx, cancel := global.GetDefaultTimer()
		defer cancel()
		return session.NewMongoBackend(ctx, client, cfg.MongoDatabase)
	default:
		return session.NewMemoryBackend(), nil
	}
}
