package main

import (
	"net/http"

	"campus-eats/api-gateway/internal/gateway"
	"campus-eats/config"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	logger := config.MustInitLogger()
	defer logger.Sync()

	cfg := gateway.Config{
		CartSvcURL:       config.GetEnv("CART_SVC_URL", "http://localhost:8084"),
		OrderBoardSvcURL: config.GetEnv("ORDERBOARD_SVC_URL", "http://localhost:8085"),
		BackendURL:       config.GetEnv("BACKEND_URL", "http://localhost:5000/api"),
	}

	gw := gateway.NewGateway(cfg, &http.Client{}, logger)

	r := gw.SetupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(r)

	addr := ":" + config.GetEnv("PORT", "8080")
	logger.Info("API Gateway starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("API Gateway stopped", zap.Error(err))
	}
}
