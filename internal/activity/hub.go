// Package activity fans live dashboard events out to stream subscribers.
package activity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mantaflow/mantaflow/internal/domain"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Gauge tracks the number of live subscribers.
type Gauge interface {
	Inc()
	Dec()
}

// Hub broadcasts activities to every subscriber. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	buffer int
	gauge  Gauge
}

type subscriber struct {
	ch chan domain.Activity
}

// Option configures a Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithGauge reports subscriber counts to g.
func WithGauge(g Gauge) Option {
	return func(h *Hub) { h.gauge = g }
}

// NewHub creates an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[*subscriber]struct{}),
		buffer: DefaultBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers a to every current subscriber.
func (h *Hub) Publish(a domain.Activity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.ch <- a:
		default:
			slog.Warn("activity subscriber lagging, event dropped", "kind", a.Kind, "activity_id", a.ID)
		}
	}
}

// Subscribe registers a subscriber until ctx is done, at which point the
// returned channel is closed.
func (h *Hub) Subscribe(ctx context.Context) <-chan domain.Activity {
	s := &subscriber{ch: make(chan domain.Activity, h.buffer)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.Inc()
	}

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, s)
		close(s.ch)
		h.mu.Unlock()
		if h.gauge != nil {
			h.gauge.Dec()
		}
	}()

	return s.ch
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
