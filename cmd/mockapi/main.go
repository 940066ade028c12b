package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fooddonation/internal/infra"
	mw "fooddonation/internal/middleware"
	"fooddonation/internal/mockapi"
)

const loginAttemptsPerMinute = 20

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadMockConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, nil).With().Str("cmd", "mockapi").Logger()

	backend := mockapi.New(mockapi.Options{
		Tokens:         mw.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Logger:         &logger,
		LoginRateLimit: loginAttemptsPerMinute,
	})
	server := infra.NewHTTPServer(cfg, backend.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msgf("mock API listening on %s", server.Addr())
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		stop()
		os.Exit(1)
	}
	logger.Info().Int64("requests", backend.Hits()).Msg("server stopped")
}
