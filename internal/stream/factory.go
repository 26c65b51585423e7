package stream

import (
	"context"
	"errors"
	"fmt"

	red "github.com/povarna/generative-ai-agents/bandcheck/internal/redis"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/stream/redis"
	"github.com/rs/zerolog"
)

const redisConnectAttempts = 5

var ErrMissingRedisConfig = errors.New("redis stream config required")

// StreamConsumer reads check requests from a queue until its context ends.
type StreamConsumer interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() error
}

// NewStreamConsumer builds the consumer for cfg.Provider. An empty provider
// means redis.
func NewStreamConsumer(ctx context.Context, cfg *StreamConfig, checker redis.Checker, logger *zerolog.Logger) (StreamConsumer, error) {
	switch cfg.Provider {
	case "", ProviderRedis:
		return newRedisConsumer(ctx, cfg.RedisConfig, checker, logger)
	default:
		return nil, fmt.Errorf("unsupported stream provider: %q", cfg.Provider)
	}
}

func newRedisConsumer(ctx context.Context, rc *redis.RedisStreamConfig, checker redis.Checker, logger *zerolog.Logger) (*redis.Consumer, error) {
	if rc == nil {
		return nil, ErrMissingRedisConfig
	}

	client, err := red.ConnectRedis(ctx, rc.RedisAddr, rc.RedisPassword, redisConnectAttempts, logger)
	if err != nil {
		return nil, fmt.Errorf("connect stream redis: %w", err)
	}

	return redis.NewConsumer(client, rc.Stream, rc.Group, rc.ConsumerName, checker, logger), nil
}
