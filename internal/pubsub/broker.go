// Package pubsub fans values out to any number of channel subscribers.
package pubsub

import (
	"context"
	"sync"
)

// Broker delivers published values to every current subscriber. Subscriber
// channels are never closed; a subscription ends when its cancel func runs.
type Broker[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber[T]
}

type subscriber[T any] struct {
	ch   chan T
	done chan struct{}
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[int]*subscriber[T])}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func is idempotent.
func (b *Broker[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 0 {
		buffer = 0
	}
	sub := &subscriber[T]{ch: make(chan T, buffer), done: make(chan struct{})}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.done)
		})
	}
	return sub.ch, cancel
}

// Publish offers v to every subscriber without blocking. Subscribers whose
// buffer is full miss the value. It returns how many subscribers received it.
func (b *Broker[T]) Publish(v T) int {
	delivered := 0
	for _, sub := range b.snapshot() {
		select {
		case sub.ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Deliver hands v to every subscriber, waiting for buffer space. It gives up
// on a subscriber that cancels and returns ctx.Err() if ctx ends first.
func (b *Broker[T]) Deliver(ctx context.Context, v T) error {
	for _, sub := range b.snapshot() {
		select {
		case sub.ch <- v:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Len returns the number of live subscribers.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker[T]) snapshot() []*subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*subscriber[T], 0, len(b.subs))
	for _, s := range b.subs {
		out = append(out, s)
	}
	return out
}
