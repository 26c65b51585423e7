package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup"
	applog "github.com/povarna/generative-ai-agents/bandcheck/internal/setup/logger"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/stream"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/stream/redis"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load env
	envErr := godotenv.Load()

	cfg := setup.LoadConfig()

	// Setup logging
	log.Logger = applog.New(cfg.LogLevel, false)
	logger := log.Logger
	if envErr != nil {
		logger.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := setup.Wire(ctx, cfg, setup.Options{}, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}
	defer deps.Close(context.WithoutCancel(ctx))

	streamCfg := stream.NewStreamConfig(
		os.Getenv("STREAM_PROVIDER"),
		redis.NewRedisStreamConfig(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RequestStream,
			cfg.ConsumerGroup,
			cfg.ConsumerName,
		),
	)

	consumer, err := stream.NewStreamConsumer(ctx, streamCfg, deps.Executor, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create stream consumer")
		return
	}

	// Setup consumer
	if err := consumer.Setup(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to setup consumer")
		return
	}

	// Start consumer
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	// Wait for context to be done
	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	if err := consumer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop consumer")
	}
	logger.Info().Msg("Band name worker stopped")
}
