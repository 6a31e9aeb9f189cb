package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"janus/internal/common/logger"
	"janus/internal/events"
)

// ErrBusClosed is returned by Publish after the bus has been closed.
var ErrBusClosed = errors.New("event bus is closed")

// RedisPublisher publishes events as JSON on a per-stream Redis channel.
type RedisPublisher struct {
	client     *redis.Client
	channelFmt string
	logger     logger.Logger
}

// NewRedisPublisher builds a publisher. channelFmt must contain one %s verb
// that receives the stream identifier.
func NewRedisPublisher(client *redis.Client, channelFmt string, log logger.Logger) *RedisPublisher {
	if channelFmt == "" {
		channelFmt = "janus:events:%s"
	}
	return &RedisPublisher{
		client:     client,
		channelFmt: channelFmt,
		logger:     log,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event *events.JanusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	channel := fmt.Sprintf(p.channelFmt, event.StreamID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing event %s to %s: %w", event.EventID, channel, err)
	}

	p.logger.Debug("event published", map[string]interface{}{
		"eventId": event.EventID,
		"channel": channel,
		"bytes":   len(payload),
	})
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
