package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeStreamClient struct {
	mu        sync.Mutex
	groupErr  error
	batches   [][]redis.XMessage
	acked     []string
	onDrained func()
}

func (f *fakeStreamClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	return redis.NewStatusResult("OK", f.groupErr)
}

func (f *fakeStreamClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.batches) == 0 {
		if f.onDrained != nil {
			f.onDrained()
		}
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}

	batch := f.batches[0]
	f.batches = f.batches[1:]
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: batch}}, nil)
}

func (f *fakeStreamClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

type fakeChecker struct {
	mu       sync.Mutex
	requests []models.CheckRequest
	err      error
}

func (f *fakeChecker) Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return models.CheckResponse{RequestID: req.RequestID}, f.err
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestConsumer_Setup(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"created", nil, false},
		{"group exists", errors.New("BUSYGROUP Consumer Group name already exists"), false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConsumer(&fakeStreamClient{groupErr: tt.err}, "requests", "checkers", "c1", &fakeChecker{}, newTestLogger())
			if err := c.Setup(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Setup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsumer_Start_ProcessesAndAcks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := &fakeStreamClient{
		batches: [][]redis.XMessage{
			{{ID: "1-0", Values: map[string]interface{}{"payload": `{"request_id":"r1","names":["Angry Puppies"]}`}}},
			{{ID: "2-0", Values: map[string]interface{}{"payload": `{"names":["Metal Kittens"],"threshold":4}`}}},
			{{ID: "3-0", Values: map[string]interface{}{"payload": `not json`}}},
			{{ID: "4-0", Values: map[string]interface{}{"other": "x"}}},
		},
		onDrained: cancel,
	}
	checker := &fakeChecker{}

	c := NewConsumer(client, "requests", "checkers", "c1", checker, newTestLogger())
	if err := c.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if len(checker.requests) != 2 {
		t.Fatalf("expected 2 executed requests, got %d", len(checker.requests))
	}
	if checker.requests[0].RequestID != "r1" {
		t.Errorf("expected request id r1, got %q", checker.requests[0].RequestID)
	}
	// Missing request ids fall back to the stream message id
	if checker.requests[1].RequestID != "2-0" {
		t.Errorf("expected request id 2-0, got %q", checker.requests[1].RequestID)
	}
	if checker.requests[1].Threshold == nil || *checker.requests[1].Threshold != 4 {
		t.Errorf("expected threshold 4, got %v", checker.requests[1].Threshold)
	}

	if len(client.acked) != 4 {
		t.Errorf("expected every message to be acked, got %v", client.acked)
	}
}

func TestConsumer_RejectedRequestIsAcked(t *testing.T) {
	client := &fakeStreamClient{}
	checker := &fakeChecker{err: errors.New("invalid check request")}

	c := NewConsumer(client, "requests", "checkers", "c1", checker, newTestLogger())
	c.process(context.Background(), redis.XMessage{ID: "9-0", Values: map[string]interface{}{"payload": `{"names":[]}`}})

	if len(client.acked) != 1 || client.acked[0] != "9-0" {
		t.Errorf("expected 9-0 to be acked, got %v", client.acked)
	}
}

func TestNewRedisStreamConfig_Defaults(t *testing.T) {
	cfg := NewRedisStreamConfig("localhost:6379", "", "", "", "worker-1")
	if cfg.Stream != DefaultRequestStream || cfg.Group != DefaultGroup {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		wantID  string
		wantErr bool
	}{
		{"explicit id", map[string]interface{}{"payload": `{"request_id":"r1","names":["A"]}`}, "r1", false},
		{"falls back to message id", map[string]interface{}{"payload": `{"names":["A"]}`}, "5-0", false},
		{"missing payload", map[string]interface{}{"data": "x"}, "", true},
		{"payload not a string", map[string]interface{}{"payload": 42}, "", true},
		{"bad json", map[string]interface{}{"payload": "{"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeRequest(redis.XMessage{ID: "5-0", Values: tt.values})
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && req.RequestID != tt.wantID {
				t.Errorf("expected request id %q, got %q", tt.wantID, req.RequestID)
			}
		})
	}
}
