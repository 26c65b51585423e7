package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultResultsStream = "band-name-results"

// StreamAdder is the slice of the redis client the stream sink needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamSink publishes each record as JSON to a Redis stream under the
// "payload" field.
type StreamSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

func NewStreamSink(client StreamAdder, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = DefaultResultsStream
	}
	return &StreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (s *StreamSink) Name() string {
	return "redis_stream"
}

func (s *StreamSink) Write(ctx context.Context, record models.BatchRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{"payload": string(payload)},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
