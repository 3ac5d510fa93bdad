// Package queue carries tick notifications from simulators to the live feed
// dispatcher.
//
// Enqueue never blocks: simulator timer callbacks must not stall on a slow
// consumer, so a full queue drops the notification.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Notification is the payload type flowing through the queue.
type Notification = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification. Returns ErrFull or ErrClosed when it was
	// not accepted.
	Enqueue(ctx context.Context, n Notification) error

	// Dequeue returns a channel that receives notifications in enqueue order.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Notification

	// Len returns the current number of queued notifications.
	Len(ctx context.Context) int

	// Close stops accepting notifications. Already queued ones are still
	// delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

type item struct {
	n  Notification
	at time.Time
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a notification to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.items <- item{n: n, at: time.Now()}:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		return ErrFull
	}
}

// Dequeue returns a channel that will receive notifications as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for it := range q.items {
			select {
			case out <- it.n:
				metrics.RecordQueueDequeue()
				metrics.RecordQueueProcessingLatency(float64(time.Since(it.at).Microseconds()) / 1000)
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued notifications.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
