// Package stream fans tick notifications out to live feed subscribers.
package stream

import (
	"context"
	"sync"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/pkg/metrics"
)

const defaultBuffer = 16

// Subscription is one live feed reader of a session.
type Subscription struct {
	C <-chan model.Notification

	hub     *Hub
	session string
	ch      chan model.Notification
	once    sync.Once
}

// Close detaches the subscription. Safe to call more than once and after
// the hub closed it.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub routes notifications to the subscribers of their session. Slow
// subscribers lose notifications instead of blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	count  int
}

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: defaultBuffer}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a reader for sessionID.
func (h *Hub) Subscribe(sessionID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	ch := make(chan model.Notification, h.buffer)
	sub := &Subscription{C: ch, hub: h, session: sessionID, ch: ch}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.count++
	metrics.UpdateStreamSubscribers(h.count)
	return sub, nil
}

// Publish delivers n to every subscriber of its session without blocking.
func (h *Hub) Publish(_ context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}
	for sub := range h.subs[n.SessionID] {
		select {
		case sub.ch <- n:
			metrics.RecordStreamPublished()
		default:
			metrics.RecordStreamDropped()
		}
	}
	return nil
}

// CloseSession ends every subscription of sessionID.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[sessionID] {
		h.detachLocked(sub)
	}
	metrics.UpdateStreamSubscribers(h.count)
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Close ends all subscriptions. Later publishes fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			h.detachLocked(sub)
		}
	}
	metrics.UpdateStreamSubscribers(0)
	return nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(sub)
	metrics.UpdateStreamSubscribers(h.count)
}

func (h *Hub) detachLocked(sub *Subscription) {
	sub.once.Do(func() {
		set := h.subs[sub.session]
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.session)
		}
		h.count--
		close(sub.ch)
	})
}
