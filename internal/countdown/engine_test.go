package countdown

import (
	"testing"
	"time"
)

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for engine event")
	}
	return Event{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngineTicksToCompletion(t *testing.T) {
	clock := NewManualClock(t0)
	e := NewEngine(clock)
	defer e.Close()

	events, cancel := e.Subscribe(8)
	defer cancel()

	gen := e.Prime(Input{Baseline: t0, Duration: 3})

	ev := nextEvent(t, events)
	if ev.Kind != EventTick || ev.Reading.Remaining != 3 || ev.Gen != gen {
		t.Fatalf("first event = %+v", ev)
	}

	for want := 2; want >= 1; want-- {
		clock.Advance(time.Second)
		ev = nextEvent(t, events)
		if ev.Reading.Remaining != want {
			t.Fatalf("Remaining = %d, want %d", ev.Reading.Remaining, want)
		}
	}

	clock.Advance(time.Second)
	ev = nextEvent(t, events)
	if ev.Kind != EventTick || ev.Reading.Remaining != 0 {
		t.Fatalf("final tick = %+v", ev)
	}
	ev = nextEvent(t, events)
	if ev.Kind != EventComplete {
		t.Fatalf("expected completion, got %+v", ev)
	}

	waitFor(t, func() bool { return clock.Tickers() == 0 })

	clock.Advance(5 * time.Second)
	select {
	case ev := <-events:
		t.Fatalf("event after completion: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestEngineRecomputesFromAbsoluteTime(t *testing.T) {
	clock := NewManualClock(t0)
	e := NewEngine(clock)
	defer e.Close()

	events, cancel := e.Subscribe(8)
	defer cancel()

	e.Prime(Input{Baseline: t0, Duration: 600})
	nextEvent(t, events)

	// one delivered tick standing in for many missed ones
	clock.Advance(90 * time.Second)
	ev := nextEvent(t, events)
	if ev.Reading.Remaining != 510 {
		t.Errorf("Remaining = %d, want 510", ev.Reading.Remaining)
	}
}

func TestEnginePausedDoesNotTick(t *testing.T) {
	clock := NewManualClock(t0)
	e := NewEngine(clock)
	defer e.Close()

	events, cancel := e.Subscribe(8)
	defer cancel()

	e.Prime(Input{Baseline: t0, Duration: 1500, Accumulated: 100, Paused: true})
	ev := nextEvent(t, events)
	if !ev.Reading.Paused || ev.Reading.Remaining != 1400 {
		t.Fatalf("paused event = %+v", ev)
	}
	if clock.Tickers() != 0 {
		t.Errorf("Tickers() = %d for paused input", clock.Tickers())
	}

	clock.Advance(time.Minute)
	r, ok := e.Read()
	if !ok || r.Remaining != 1400 {
		t.Errorf("Read() = %+v, %v", r, ok)
	}
}

func TestEnginePrimeCancelsPreviousLoop(t *testing.T) {
	clock := NewManualClock(t0)
	e := NewEngine(clock)
	defer e.Close()

	events, cancel := e.Subscribe(8)
	defer cancel()

	first := e.Prime(Input{Baseline: t0, Duration: 60})
	nextEvent(t, events)

	second := e.Prime(Input{Baseline: t0, Duration: 30})
	if second <= first {
		t.Fatalf("generation did not advance: %d then %d", first, second)
	}
	ev := nextEvent(t, events)
	if ev.Gen != second {
		t.Fatalf("event gen = %d, want %d", ev.Gen, second)
	}
	waitFor(t, func() bool { return clock.Tickers() == 1 })

	e.Stop()
	waitFor(t, func() bool { return clock.Tickers() == 0 })
	if _, ok := e.Read(); ok {
		t.Error("Read() reports primed after Stop")
	}
}
