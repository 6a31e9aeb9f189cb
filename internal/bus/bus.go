// Package bus delivers built events to downstream consumers, either
// in-process or over Redis pub/sub.
package bus

import (
	"context"
	"sync"

	"janus/internal/common/logger"
	"janus/internal/events"
)

// Publisher delivers events onto their stream.
type Publisher interface {
	Publish(ctx context.Context, event *events.JanusEvent) error
	Close() error
}

// MemoryBus is an in-process publisher with per-stream subscriber channels.
// Delivery is best-effort: a subscriber whose buffer is full misses the
// event rather than blocking the pipeline.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *events.JanusEvent
	bufferSize  int
	closed      bool
	logger      logger.Logger
}

func NewMemoryBus(bufferSize int, log logger.Logger) *MemoryBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &MemoryBus{
		subscribers: make(map[string][]chan *events.JanusEvent),
		bufferSize:  bufferSize,
		logger:      log,
	}
}

// Subscribe returns a buffered channel receiving events for the stream. The
// channel closes when the bus closes.
func (b *MemoryBus) Subscribe(streamID string) <-chan *events.JanusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *events.JanusEvent, b.bufferSize)
	b.subscribers[streamID] = append(b.subscribers[streamID], ch)
	return ch
}

func (b *MemoryBus) Publish(_ context.Context, event *events.JanusEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subscribers[event.StreamID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber buffer full, dropping event", map[string]interface{}{
				"streamId": event.StreamID,
				"eventId":  event.EventID,
			})
		}
	}
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, chans := range b.subscribers {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subscribers = make(map[string][]chan *events.JanusEvent)
	return nil
}
