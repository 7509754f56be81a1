package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chat-relay/internal/config"
	apihttp "chat-relay/internal/http"
	"chat-relay/internal/llm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	backend := llm.NewBackendClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout, logger)

	relayHandler := apihttp.NewRelayHandler(logger, backend)
	router := apihttp.NewRouter(logger, relayHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting relay",
		zap.String("port", cfg.HTTPPort),
		zap.String("backend", backend.BaseURL()),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
