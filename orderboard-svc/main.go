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
	"campus-eats/config"
	httpapi "campus-eats/orderboard-svc/internal/api/http"
	"campus-eats/orderboard-svc/internal/service"
	"campus-eats/orderboard-svc/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	logger := config.MustInitLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollingCfg, err := config.LoadPollingConfig(config.GetEnv("POLLING_CONFIG", "polling.yaml"))
	if err != nil {
		logger.Fatal("failed to load polling config", zap.Error(err))
	}
	cadence, err := service.NewCadence(pollingCfg)
	if err != nil {
		logger.Fatal("invalid polling config", zap.Error(err))
	}

	api := backend.NewClient(
		config.GetEnv("BACKEND_URL", "http://localhost:5000/api"),
		config.GetEnv("BACKEND_SERVICE_TOKEN", ""),
		&http.Client{Timeout: 10 * time.Second},
	)

	var publisher service.StatusPublisher
	if writer := config.NewKafkaWriter(config.GetEnv("KAFKA_TOPIC", "order-status")); writer != nil {
		defer writer.Close()
		publisher = storage.NewKafkaPublisher(writer)
	} else {
		logger.Info("KAFKA_BROKER not set, status events are not published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	boards := service.NewBoardRegistry(service.BoardDeps{
		Backend:   api,
		Publisher: publisher,
		QR: service.DefaultQRGenerator{
			BaseURL: config.GetEnv("PUBLIC_URL", "http://localhost:3000"),
			Size:    config.GetEnvInt("QR_SIZE", 256),
		},
		Cadence:   cadence,
		Clock:     service.RealClock(),
		Metrics:   service.NewMetrics(registry),
	}, logger)
	handler := httpapi.NewHandler(boards, api, logger)
	go sweepBoards(ctx, boards, config.GetEnvPositiveDuration("BOARD_IDLE_TIMEOUT", 2*time.Minute))

	addr := ":" + config.GetEnv("PORT", "8085")
	server := &http.Server{Addr: addr, Handler: httpapi.NewRouter(handler, registry)}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("orderboard service shutdown error", zap.Error(err))
		}
		boards.StopAll()
	}()

	logger.Info("orderboard service starting", zap.String("addr", addr), zap.Duration("default_interval", pollingCfg.Interval))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("orderboard service error", zap.Error(err))
	}
	<-stopped
}

// sweepBoards stops boards whose admin view has gone away without unmounting.
func sweepBoards(ctx context.Context, boards *service.BoardRegistry, idle time.Duration) {
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
			boards.Sweep(idle)
		}
	}
}
