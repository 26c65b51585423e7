package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const payloadField = "payload"

var errMissingPayload = errors.New("message has no payload field")

// Checker runs one check request.
type Checker interface {
	Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error)
}

// StreamClient is the subset of *redis.Client the consumer uses.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

type Consumer struct {
	client       StreamClient
	stream       string
	groupID      string
	consumerName string
	checker      Checker
	block        time.Duration
	logger       *zerolog.Logger
}

func NewConsumer(client StreamClient, stream string, groupID string, consumerName string, checker Checker, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		client:       client,
		stream:       stream,
		groupID:      groupID,
		consumerName: consumerName,
		checker:      checker,
		block:        2 * time.Second,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Dur("block", c.block).
		Msg("Consumer started")

	for ctx.Err() == nil {
		messages, err := c.read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Failed to read from stream")
			}
			continue
		}
		for _, msg := range messages {
			c.process(ctx, msg)
		}
	}
	return ctx.Err()
}

// read blocks for the next batch of undelivered messages. An empty block
// returns no messages and no error.
func (c *Consumer) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.groupID,
		Consumer: c.consumerName,
		Streams:  []string{c.stream, ">"},
		Count:    1,
		Block:    c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []redis.XMessage
	for _, s := range streams {
		messages = append(messages, s.Messages...)
	}
	return messages, nil
}

func (c *Consumer) Stop() error {
	return nil
}

func decodeRequest(msg redis.XMessage) (models.CheckRequest, error) {
	var req models.CheckRequest
	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		return req, errMissingPayload
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, err
	}
	if req.RequestID == "" {
		req.RequestID = msg.ID
	}
	return req, nil
}

// process runs the check carried by msg. Every message is ACKed, including
// undecodable and rejected ones, so nothing blocks the group.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	defer c.ack(ctx, msg.ID)

	log := c.logger.With().Str("id", msg.ID).Logger()

	req, err := decodeRequest(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode message")
		return
	}

	result, err := c.checker.Execute(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("Check rejected")
		return
	}

	log.Info().
		Str("request_id", result.RequestID).
		Int("allowed", result.Summary.Allowed).
		Int("blocked", result.Summary.Blocked).
		Int("failed", result.Summary.Failed).
		Msg("Check complete")
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
