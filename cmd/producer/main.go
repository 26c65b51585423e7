package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	red "github.com/povarna/generative-ai-agents/bandcheck/internal/redis"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup"
	applog "github.com/povarna/generative-ai-agents/bandcheck/internal/setup/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

func main() {
	_ = godotenv.Load()
	cfg := setup.LoadConfig()

	data := flag.String("d", "", "Inline JSON CheckRequest")
	names := flag.String("names", "", "Comma separated band names (alternative to -d)")
	stream := flag.String("stream", cfg.RequestStream, "Stream name")
	flag.Parse()

	if *data == "" && *names == "" {
		fmt.Fprintln(os.Stderr, "Usage: producer -d '<json>' | -names 'Angry Puppies,Metal Kittens'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := applog.New(cfg.LogLevel, true)

	req, err := buildRequest(*data, *names)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid request")
		os.Exit(1)
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = defaultRedisAddr
	}

	ctx := context.Background()
	client, err := red.ConnectRedis(ctx, addr, cfg.RedisPassword, 3, &logger)
	if err != nil {
		logger.Error().Err(err).Str("addr", addr).Msg("Redis unreachable")
		os.Exit(1)
	}
	defer client.Close()

	id, err := publish(ctx, client, *stream, req)
	if err != nil {
		logger.Error().Err(err).Str("stream", *stream).Msg("Publish failed")
		os.Exit(1)
	}

	logger.Info().
		Str("stream", *stream).
		Str("id", id).
		Str("request_id", req.RequestID).
		Int("names", len(req.Names)).
		Msg("Request published")
}

func publish(ctx context.Context, client *redis.Client, stream string, req models.CheckRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"payload": string(payload)},
	}).Result()
}

func buildRequest(data, names string) (models.CheckRequest, error) {
	var req models.CheckRequest
	if data != "" {
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return req, fmt.Errorf("invalid request JSON: %w", err)
		}
	} else {
		for _, name := range strings.Split(names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Names = append(req.Names, name)
			}
		}
	}

	if len(req.Names) == 0 {
		return req, fmt.Errorf("at least one band name is required")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req, nil
}
