package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/pkg/logger"
	"github.com/okian/telematics/pkg/metrics"
)

// Notification abstracts what the worker reads off the queue.
type Notification = model.Notification

// Queue defines how the worker receives notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Sink receives every dequeued notification.
type Sink interface {
	Publish(ctx context.Context, n Notification) error
}

// Worker forwards notifications from a queue to a sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed.
	Run(ctx context.Context)

	// Shutdown waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. A single instance preserves queue order,
// which keeps every live feed in tick order.
type InMemoryWorker struct {
	queue Queue
	sink  Sink
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sink:     sink,
		name:     "dispatcher",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, n); err != nil {
				w.logger.Warn(ctx, "dispatch failed", logger.Error(err))
			}
		}
	}
}

// Shutdown signals the loop to stop and waits for it, bounded by ctx.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.sink.Publish(ctx, n); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("publish feedback %s for session %s: %w", n.Feedback.ID, n.SessionID, err)
	}
	return nil
}
