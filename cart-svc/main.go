package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-eats/backend"
	httpapi "campus-eats/cart-svc/internal/api/http"
	"campus-eats/cart-svc/internal/service"
	"campus-eats/cart-svc/internal/storage"
	"campus-eats/config"

	"go.uber.org/zap"
)

func main() {
	logger := config.MustInitLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv := mustInitStore(ctx, logger)

	api := backend.NewClient(
		config.GetEnv("BACKEND_URL", "http://localhost:5000/api"),
		"",
		&http.Client{Timeout: 10 * time.Second},
	)

	sessions := service.NewSessionRegistry(kv, logger)
	venues := service.NewVenueSelector(api, kv, config.GetEnvPositiveDuration("VENUE_CACHE_TTL", time.Minute), logger)
	handler := httpapi.NewHandler(sessions, venues, api, api, logger)

	go sweepSessions(ctx, sessions, config.GetEnvPositiveDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour))

	addr := ":" + config.GetEnv("PORT", "8084")
	server := &http.Server{Addr: addr, Handler: httpapi.NewRouter(handler)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("cart service shutdown error", zap.Error(err))
		}
	}()

	logger.Info("cart service starting", zap.String("addr", addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("cart service error", zap.Error(err))
	}
}

func mustInitStore(ctx context.Context, logger *zap.Logger) service.KVStore {
	switch backendName := config.GetEnv("CART_STORE", "redis"); backendName {
	case "postgres":
		store := storage.NewPostgresStore(config.MustInitPostgres(logger))
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate kv table", zap.Error(err))
		}
		return store
	case "redis":
		return storage.NewRedisStore(config.MustInitRedis(logger), config.GetEnvDuration("CART_TTL", 30*24*time.Hour))
	default:
		logger.Fatal("unknown CART_STORE", zap.String("store", backendName))
		return nil
	}
}

func sweepSessions(ctx context.Context, sessions *service.SessionRegistry, idle time.Duration) {
	period := idle / 4
	if period <= 0 {
		period = idle
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep(idle)
		}
	}
}
