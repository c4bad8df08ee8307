// Package repository holds the pieces shared by the storage backends.
package repository

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Subscription is a standing feed of full snapshots. Each value replaces the
// previous one; when the consumer falls behind only the newest snapshot is
// kept. The channel is closed once the feed stops.
type Subscription[T any] struct {
	ch     chan T
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Publisher hands a snapshot to the subscriber. It returns false once the
// subscription has been released.
type Publisher[T any] func(T) bool

// Subscribe starts run in its own goroutine and returns the feed it publishes
// into. run should block until ctx is cancelled or the source fails.
func Subscribe[T any](parent context.Context, name string, logger *zap.Logger, run func(ctx context.Context, publish Publisher[T]) error) *Subscription[T] {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Subscription[T]{
		ch:     make(chan T, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.ch)

		err := run(ctx, s.publisher(ctx))
		if err != nil && !errors.Is(err, context.Canceled) {
			// No automatic retry: the consumer keeps the last snapshot it saw.
			logger.Error("subscription stopped", zap.String("subscription", name), zap.Error(err))
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

func (s *Subscription[T]) publisher(ctx context.Context) Publisher[T] {
	return func(v T) bool {
		for {
			select {
			case <-ctx.Done():
				return false
			case s.ch <- v:
				return true
			default:
				select {
				case <-s.ch:
				default:
				}
			}
		}
	}
}

// C returns the snapshot channel.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Err returns the failure that ended the feed, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Release stops the feed and waits for its goroutine to exit.
func (s *Subscription[T]) Release() {
	s.cancel()
	<-s.done
}
