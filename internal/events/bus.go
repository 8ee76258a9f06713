package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrBusClosed = errors.New("event bus closed")
)

// Bus is an in-process publisher. Publish enqueues without blocking and a
// single Run goroutine delivers events to subscribers in publish order.
type Bus struct {
	queue chan Event

	mu     sync.RWMutex
	closed bool
	subs   map[Type][]Handler
	all    []Handler

	started atomic.Bool
	done    chan struct{}
	dropped atomic.Int64
}

var _ Publisher = (*Bus)(nil)

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}

	return &Bus{
		queue: make(chan Event, size),
		subs:  make(map[Type][]Handler),
		done:  make(chan struct{}),
	}
}

// Subscribe registers h for events of type t. With no types h receives
// every event. Subscribe before Run.
func (b *Bus) Subscribe(h Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(types) == 0 {
		b.all = append(b.all, h)
		return
	}

	for _, t := range types {
		b.subs[t] = append(b.subs[t], h)
	}
}

func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.queue <- e:
		return nil
	default:
		b.dropped.Add(1)
		return fmt.Errorf("drop %s %s: %w", e.Type, e.ID, ErrQueueFull)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Run delivers events until the bus is closed and drained, or ctx ends.
func (b *Bus) Run(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-b.queue:
			if !ok {
				return
			}

			b.dispatch(ctx, e)
		}
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}

	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	// Run never claimed the bus, so drain here.
	if b.started.CompareAndSwap(false, true) {
		return b.drain(ctx)
	}

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event bus: %w", ctx.Err())
	}
}

func (b *Bus) drain(ctx context.Context) error {
	defer close(b.done)

	for e := range b.queue {
		if ctx.Err() != nil {
			return fmt.Errorf("drain event bus: %w", ctx.Err())
		}

		b.dispatch(ctx, e)
	}

	return nil
}

func (b *Bus) dispatch(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Type])+len(b.all))
	handlers = append(handlers, b.subs[e.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(ctx, h, e)
	}
}

func deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		r := recover()
		if r != nil {
			slog.Error("event handler panicked", "event_type", e.Type, "event_id", e.ID, "panic", r)
		}
	}()

	err := h(ctx, e)
	if err != nil {
		slog.Warn("event handler failed", "event_type", e.Type, "event_id", e.ID, "error", err)
	}
}
