package realtime

import (
	"context"
	"sync"
	"time"
)

// Event is one push delivered to channel subscribers.
type Event struct {
	Channel string         `json:"channel"`
	Kind    string         `json:"kind"`
	Payload any            `json:"payload,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// Registry fans dispatch events out to interested parties. Publishing is a
// post-commit side effect; implementations must never block the caller on a
// slow subscriber.
type Registry interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// Channel names follow <audience>:<id>.
func DriverChannel(driverID string) string         { return "driver:" + driverID }
func ChefChannel(chefID string) string             { return "chef:" + chefID }
func AssignmentChannel(assignmentID string) string { return "assignment:" + assignmentID }

const defaultBufferSize = 16

// MemoryRegistry is an in-process fan-out for single-node deployments and
// tests. Subscriber buffers are bounded; when one is full the oldest event
// is dropped so a stalled consumer cannot wedge publishers.
type MemoryRegistry struct {
	mu       sync.RWMutex
	channels map[string][]chan Event
	buffer   int
}

// NewMemoryRegistry builds a registry with the given per-subscriber buffer.
func NewMemoryRegistry(buffer int) *MemoryRegistry {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	return &MemoryRegistry{
		channels: make(map[string][]chan Event),
		buffer:   buffer,
	}
}

// Subscribe returns a receive channel for the named channel plus a cancel
// function that detaches and closes it.
func (r *MemoryRegistry) Subscribe(channel string) (<-chan Event, func()) {
	ch := make(chan Event, r.buffer)

	r.mu.Lock()
	r.channels[channel] = append(r.channels[channel], ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		subs := r.channels[channel]
		for i, sub := range subs {
			if sub == ch {
				r.channels[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(r.channels[channel]) == 0 {
			delete(r.channels, channel)
		}
		r.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the channel. Full
// buffers shed their oldest event to make room.
func (r *MemoryRegistry) Publish(ctx context.Context, channel string, event Event) error {
	if event.Channel == "" {
		event.Channel = channel
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	// Sends stay under the read lock so Subscribe's cancel cannot close a
	// channel mid-send. Every send path is non-blocking.
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.channels[channel] {
		select {
		case sub <- event:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- event:
			default:
			}
		}
	}
	return nil
}

// SubscriberCount reports how many listeners a channel has.
func (r *MemoryRegistry) SubscriberCount(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}
