package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/devnotmax/studify/internal/pubsub"
)

// EventKind distinguishes engine events.
type EventKind int

const (
	EventTick EventKind = iota
	EventComplete
)

func (k EventKind) String() string {
	if k == EventComplete {
		return "complete"
	}
	return "tick"
}

// Event is published on every evaluation. Gen identifies the Prime call that
// produced it so consumers can drop events from a superseded session.
type Event struct {
	Kind    EventKind
	Reading Reading
	Gen     uint64
}

// Engine ticks once per interval for the most recently primed input.
type Engine struct {
	clock    Clock
	interval time.Duration
	broker   *pubsub.Broker[Event]

	mu      sync.Mutex
	gen     uint64
	input   Input
	primed  bool
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewEngine creates an engine ticking once per second.
func NewEngine(clock Clock) *Engine {
	return NewEngineWithInterval(clock, time.Second)
}

// NewEngineWithInterval creates an engine with a custom tick interval.
func NewEngineWithInterval(clock Clock, interval time.Duration) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Engine{
		clock:    clock,
		interval: interval,
		broker:   pubsub.NewBroker[Event](),
	}
}

// Subscribe registers an event consumer. Ticks are dropped for a consumer
// whose buffer is full; completion events are not.
func (e *Engine) Subscribe(buffer int) (<-chan Event, func()) {
	return e.broker.Subscribe(buffer)
}

// Prime replaces the input, cancelling any previous tick loop. A paused input
// is evaluated once and not ticked. It returns the new generation.
func (e *Engine) Prime(in Input) uint64 {
	e.mu.Lock()
	e.stopLocked()
	e.gen++
	gen := e.gen
	e.input = in
	e.primed = true

	if in.Paused {
		e.mu.Unlock()
		e.broker.Publish(Event{Kind: EventTick, Reading: Compute(in, e.clock.Now()), Gen: gen})
		return gen
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running.Add(1)
	e.mu.Unlock()

	go e.run(ctx, gen, in)
	return gen
}

// Stop cancels the tick loop and forgets the input.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.gen++
	e.primed = false
	e.input = Input{}
}

// Close stops the engine and waits for the tick loop to exit.
func (e *Engine) Close() {
	e.Stop()
	e.running.Wait()
}

// Read evaluates the current input now. ok is false when nothing is primed.
func (e *Engine) Read() (Reading, bool) {
	e.mu.Lock()
	in, primed := e.input, e.primed
	e.mu.Unlock()
	if !primed {
		return Reading{}, false
	}
	return Compute(in, e.clock.Now()), true
}

// Generation returns the generation of the current input.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Engine) stopLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) run(ctx context.Context, gen uint64, in Input) {
	defer e.running.Done()

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		r := Compute(in, e.clock.Now())
		if ctx.Err() != nil {
			return
		}
		e.broker.Publish(Event{Kind: EventTick, Reading: r, Gen: gen})
		if r.Done() {
			_ = e.broker.Deliver(ctx, Event{Kind: EventComplete, Reading: r, Gen: gen})
			e.finish(gen)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

// finish drops the cancel func once a loop ends on its own.
func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen && e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
