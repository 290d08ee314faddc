package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultPoolSize = 1000
	defaultTimeout  = 10 * time.Second
)

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

type Option func(*subscription)

// WithPoolSize bounds how many events a single handler processes concurrently.
func WithPoolSize(n int) Option {
	return func(s *subscription) {
		if n > 0 {
			s.pool = NewPool(n)
		}
	}
}

// Pool bounds how many events its subscriptions handle at once. Subscriptions sharing a pool of
// size one handle their events one at a time, in publish order.
type Pool chan struct{}

func NewPool(n int) Pool {
	return make(Pool, max(n, 1))
}

// WithPool runs the subscription on p instead of a pool of its own.
func WithPool(p Pool) Option {
	return func(s *subscription) {
		if p != nil {
			s.pool = p
		}
	}
}

type subscription struct {
	h    Handler
	pool Pool
}

// Bus is an in-memory event bus. Every subscription has its own worker pool unless it is given
// a shared one, so a slow handler only delays the events of its pool.
type Bus struct {
	wg   sync.WaitGroup
	mu   sync.RWMutex
	subs map[string][]*subscription
}

// NewBus create a new event bus. Caller should call Stop for graceful shutdown the bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
	}
}

// Subscribe to an event
func (b *Bus) Subscribe(name string, h Handler, opts ...Option) {
	s := &subscription{
		h:    h,
		pool: NewPool(defaultPoolSize),
	}
	for _, opt := range opts {
		opt(s)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[name] = append(b.subs[name], s)
}

// Publish an event to every subscriber of its name.
func (b *Bus) Publish(ctx context.Context, events ...Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range events {
		for _, s := range b.subs[e.Name()] {
			b.dispatch(ctx, s, e)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, s *subscription, e Event) {
	b.wg.Add(1)

	s.pool <- struct{}{}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "event: handler panic",
					"event", e.Name(),
					"error", fmt.Errorf("%v, stack: %s", r, debug.Stack()),
				)
			}

			cancel()
			<-s.pool
			b.wg.Done()
		}()

		if err := s.h(ctx, e); err != nil {
			slog.ErrorContext(ctx, "event: handle event failed",
				"event", e.Name(),
				"error", err,
			)
		}
	}()
}

// Stop waits for all handlers to finish
func (b *Bus) Stop() {
	b.wg.Wait()
}
