package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devnotmax/studify/internal/countdown"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/methodology"
	"github.com/devnotmax/studify/internal/metrics"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/devnotmax/studify/internal/pubsub"
	"github.com/rs/zerolog"
)

// ErrIdentityChanged is returned by an operation whose response arrived after
// the signed-in identity changed. The response is discarded.
var ErrIdentityChanged = fmt.Errorf("%w: identity changed during request", domain.ErrConflict)

const cancelPrompt = "Cancel the current session? Progress will not be saved."

// Controller owns the active session. It mirrors the backend session,
// drives the countdown engine and commits state only after the backend
// confirms each change.
type Controller struct {
	factory  ports.GatewayFactory
	settings ports.SettingsProvider
	engine   *countdown.Engine
	clock    countdown.Clock
	events   *pubsub.Broker[Event]
	logger   zerolog.Logger
	autoEnd  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	gw          ports.SessionGateway
	identity    domain.Identity
	epoch       uint64
	state       domain.LifecycleState
	session     *domain.Session
	mode        domain.Mode
	skew        time.Duration
	engineGen   uint64
	busy        string
	results     *domain.SessionResults
	showResults bool
	lastErr     error
	cycle       *methodology.Cycle
}

// Ensure Controller implements ports.SessionControl.
var _ ports.SessionControl = (*Controller)(nil)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock sets the clock used by the countdown engine.
func WithClock(clock countdown.Clock) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithAutoEnd controls whether the controller ends a session by itself
// when the countdown reaches zero. Short-lived callers disable it so that
// an overdue session is left for an explicit end.
func WithAutoEnd(enabled bool) ControllerOption {
	return func(c *Controller) { c.autoEnd = enabled }
}

// NewController creates a controller with no identity bound. Call
// SwitchIdentity to attach a gateway and recover any active session.
func NewController(factory ports.GatewayFactory, settings ports.SettingsProvider, opts ...ControllerOption) *Controller {
	c := &Controller{
		factory:  factory,
		settings: settings,
		clock:    countdown.RealClock{},
		events:   pubsub.NewBroker[Event](),
		logger:   zerolog.Nop(),
		autoEnd:  true,
		state:    domain.StateIdle,
		cycle:    methodology.NewCycle(methodology.ForIDOrDefault(methodology.DefaultID)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "controller").Logger()
	c.mode = c.cycle.Current()
	c.engine = countdown.NewEngine(c.clock)
	c.ctx, c.cancel = context.WithCancel(context.Background())

	ticks, unsubscribe := c.engine.Subscribe(4)
	c.wg.Add(1)
	go c.loop(ticks, unsubscribe)
	return c
}

// Subscribe registers an event consumer. Events are dropped for a consumer
// whose buffer is full.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.Subscribe(buffer)
}

// Close stops local ticking. The remote session is left untouched.
func (c *Controller) Close() {
	c.cancel()
	c.engine.Close()
	c.wg.Wait()
}

// Identity returns the bound identity.
func (c *Controller) Identity() domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// SwitchIdentity discards all local session state, binds a gateway for id and
// recovers that identity's active session.
func (c *Controller) SwitchIdentity(ctx context.Context, id domain.Identity) error {
	gw, ferr := c.factory(id)

	c.mu.Lock()
	c.epoch++
	c.clearLocked()
	c.results = nil
	c.showResults = false
	c.identity = id
	c.gw = nil
	if ferr == nil {
		c.gw = gw
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info().Str("owner", id.UserID).Msg("identity switched")
	c.publish(Event{Kind: EventIdentityChanged, Snapshot: snap})

	if ferr != nil {
		return fmt.Errorf("failed to create gateway: %w", ferr)
	}
	return c.Refresh(ctx)
}

// Reset discards local state without touching the backend.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.clearLocked()
	c.results = nil
	c.showResults = false
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(Event{Kind: EventStateChanged, Snapshot: snap})
}

// Snapshot returns the current state with a fresh countdown reading.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// DismissResults hides the post-completion summary.
func (c *Controller) DismissResults() {
	c.mu.Lock()
	c.showResults = false
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(Event{Kind: EventStateChanged, Snapshot: snap})
}

// Refresh adopts the backend's active session. From Idle this is recovery
// after a restart; otherwise it resynchronises with the backend.
func (c *Controller) Refresh(ctx context.Context) error {
	op, err := c.begin("refresh", domain.StateIdle, domain.StateRunning, domain.StatePaused)
	if err != nil {
		return err
	}

	session, err := op.gw.Active(ctx)
	if err == nil && session != nil {
		session, err = accept("refresh", session, nil)
	}
	return c.commit(op, err, func() []Event {
		if session == nil {
			if c.state != domain.StateIdle {
				c.logger.Info().Msg("active session no longer exists on the backend")
			}
			c.clearLocked()
			return []Event{{Kind: EventStateChanged}}
		}
		c.adoptLocked(session)
		return []Event{{Kind: EventStateChanged}}
	})
}

// Start creates a session for mode. An empty mode starts the next mode in
// the technique cycle.
func (c *Controller) Start(ctx context.Context, mode domain.Mode) error {
	return c.start(ctx, mode, false)
}

// start creates the session. keepResults leaves the previous session's
// summary visible, which auto-start relies on.
func (c *Controller) start(ctx context.Context, mode domain.Mode, keepResults bool) error {
	op, err := c.begin("start", domain.StateIdle)
	if err != nil {
		return err
	}
	kind, duration, err := c.resolve(ctx, mode)
	if err != nil {
		return c.commit(op, err, nil)
	}

	session, err := op.gw.Start(ctx, kind, duration)
	session, err = accept("start", session, err)
	return c.commit(op, err, func() []Event {
		if !keepResults {
			c.results = nil
			c.showResults = false
		}
		c.adoptLocked(session)
		return []Event{{Kind: EventStateChanged}}
	})
}

// Pause freezes the running session once the backend confirms.
func (c *Controller) Pause(ctx context.Context) error {
	op, err := c.begin("pause", domain.StateRunning)
	if err != nil {
		return err
	}
	session, err := op.gw.Pause(ctx, op.session.ID)
	session, err = accept("pause", session, err)
	return c.commit(op, err, func() []Event {
		c.adoptLocked(session)
		return []Event{{Kind: EventStateChanged}}
	})
}

// Resume unfreezes the paused session once the backend confirms.
func (c *Controller) Resume(ctx context.Context) error {
	op, err := c.begin("resume", domain.StatePaused)
	if err != nil {
		return err
	}
	session, err := op.gw.Resume(ctx, op.session.ID)
	session, err = accept("resume", session, err)
	return c.commit(op, err, func() []Event {
		c.adoptLocked(session)
		return []Event{{Kind: EventStateChanged}}
	})
}

// Complete ends the session. Unless force is set the backend must report no
// time remaining; otherwise the call fails with domain.ErrTimeRemaining and
// nothing changes.
func (c *Controller) Complete(ctx context.Context, force bool) error {
	return c.finish(ctx, force, false)
}

// Cancel abandons the session after confirm agrees. Without confirmation no
// backend call is made.
func (c *Controller) Cancel(ctx context.Context, confirm ports.Confirmer) error {
	if err := c.check(domain.StateRunning, domain.StatePaused); err != nil {
		return err
	}
	if confirm == nil {
		return domain.ErrCancelNotConfirmed
	}
	ok, err := confirm.Confirm(ctx, cancelPrompt)
	if err != nil {
		return fmt.Errorf("failed to confirm cancel: %w", err)
	}
	if !ok {
		return domain.ErrCancelNotConfirmed
	}

	op, err := c.begin("cancel", domain.StateRunning, domain.StatePaused)
	if err != nil {
		return err
	}
	c.transition(op, domain.StateCancelling)

	err = op.gw.Cancel(ctx, op.session.ID)
	return c.commit(op, err, func() []Event {
		c.clearLocked()
		return []Event{{Kind: EventCancelled}, {Kind: EventStateChanged}}
	})
}

// finish runs the guarded end. auto is set when the local countdown reached
// zero on its own.
func (c *Controller) finish(ctx context.Context, force, auto bool) error {
	op, err := c.begin("end", domain.StateRunning, domain.StatePaused)
	if err != nil {
		return err
	}
	c.transition(op, domain.StateEnding)

	remaining, err := op.gw.Remaining(ctx, op.session.ID)
	if err != nil {
		return c.commit(op, err, nil)
	}
	if remaining > 0 && !force {
		if auto {
			c.realign(op, remaining)
		}
		return c.commit(op, domain.ErrTimeRemaining, nil)
	}

	completed := op.session.Duration
	if force && remaining > 0 {
		completed = op.session.Duration - remaining
		if completed < 0 {
			completed = 0
		}
	}

	results, err := op.gw.End(ctx, op.session.ID, completed)
	if err != nil {
		if isUserStatsNotFound(err) {
			err = fmt.Errorf("%w: %w", domain.ErrUserStatsNotFound, err)
		}
		return c.commit(op, err, nil)
	}
	if results == nil || results.Session == nil {
		return c.commit(op, domain.NewGatewayError("end", domain.ErrServer, 0, "malformed response: missing session"), nil)
	}

	var next domain.Mode
	var autoStart bool
	err = c.commit(op, nil, func() []Event {
		metrics.SessionsCompleted.WithLabelValues(string(op.session.Kind)).Inc()
		finished := c.mode
		c.clearLocked()
		c.results = results
		c.showResults = true
		next = c.cycle.Advance(finished)
		c.mode = next
		return []Event{{Kind: EventCompleted, Results: results}, {Kind: EventStateChanged}}
	})
	if err != nil {
		return err
	}

	if settings, serr := c.settings.Current(ctx); serr == nil {
		autoStart = settings.AutoStart
	}
	if autoStart {
		if err := c.start(ctx, next, true); err != nil {
			c.logger.Warn().Err(err).Str("mode", string(next)).Msg("auto-start failed")
		}
	}
	return nil
}

// realign shifts the local clock so it agrees with the backend's remaining
// time, then restarts ticking so completion can fire again.
func (c *Controller) realign(op *operation, serverRemaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if op.epoch != c.epoch || c.session == nil {
		return
	}
	reading := countdown.Compute(c.inputLocked(), c.clock.Now())
	drift := reading.RawElapsed - (c.session.Duration - serverRemaining)
	c.skew += time.Duration(drift) * time.Second
	c.engineGen = c.engine.Prime(c.inputLocked())
	c.logger.Info().Int("server_remaining", serverRemaining).Dur("skew", c.skew).Msg("local countdown realigned")
}

// accept rejects a missing or inconsistent session in a successful response.
func accept(op string, s *domain.Session, err error) (*domain.Session, error) {
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NewGatewayError(op, domain.ErrServer, 0, "response has no session")
	}
	if err := s.Validate(); err != nil {
		return nil, domain.NewGatewayError(op, domain.ErrServer, 0, err.Error())
	}
	return s, nil
}

func isUserStatsNotFound(err error) bool {
	var ge *domain.GatewayError
	if errors.As(err, &ge) {
		return strings.Contains(strings.ToLower(ge.Message), "user stats not found")
	}
	return false
}

// resolve maps a mode to its wire kind and configured duration. An empty
// mode takes the cycle's suggestion after syncing the cycle with the selected
// technique.
func (c *Controller) resolve(ctx context.Context, mode domain.Mode) (domain.SessionKind, int, error) {
	settings, err := c.settings.Current(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("using default timer settings")
		settings = domain.DefaultTimerSettings()
	}

	c.mu.Lock()
	if c.cycle.Technique().ID != settings.SelectedTechnique {
		c.cycle.Reset(methodology.ForIDOrDefault(settings.SelectedTechnique))
		c.mode = c.cycle.Current()
	}
	if mode == "" {
		mode = c.mode
	}
	c.mu.Unlock()

	kind, err := mode.Kind()
	if err != nil {
		return "", 0, err
	}
	duration, err := settings.DurationFor(mode)
	if err != nil {
		return "", 0, err
	}
	return kind, duration, nil
}

// operation is an in-flight backend call captured by begin.
type operation struct {
	name    string
	gw      ports.SessionGateway
	session *domain.Session
	epoch   uint64
	prev    domain.LifecycleState
}

func (c *Controller) check(allowed ...domain.LifecycleState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkLocked(allowed...)
}

func (c *Controller) checkLocked(allowed ...domain.LifecycleState) error {
	if c.gw == nil {
		return domain.ErrNotAuthenticated
	}
	if c.busy != "" {
		return domain.ErrRequestInFlight
	}
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	if c.state == domain.StateIdle {
		return domain.ErrNoActiveSession
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, c.state)
}

// begin claims the in-flight slot for op when the state allows it.
func (c *Controller) begin(name string, allowed ...domain.LifecycleState) (*operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(allowed...); err != nil {
		return nil, err
	}
	c.busy = name
	return &operation{
		name:    name,
		gw:      c.gw,
		session: c.session.Clone(),
		epoch:   c.epoch,
		prev:    c.state,
	}, nil
}

// transition moves to a transitional state while op is in flight.
func (c *Controller) transition(op *operation, to domain.LifecycleState) {
	c.mu.Lock()
	if op.epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(to)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(Event{Kind: EventStateChanged, Snapshot: snap})
}

// commit releases the in-flight slot. On success apply runs under the lock
// and its events are published; on failure the pre-call state is restored.
// Responses for a superseded identity are dropped.
func (c *Controller) commit(op *operation, err error, apply func() []Event) error {
	c.mu.Lock()
	if op.epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug().Str("op", op.name).Msg("discarding response for previous identity")
		if err != nil {
			return err
		}
		return ErrIdentityChanged
	}
	c.busy = ""

	var events []Event
	if err != nil {
		reverted := c.state != op.prev
		c.setStateLocked(op.prev)
		c.lastErr = err
		events = []Event{{Kind: EventError, Err: err}}
		if reverted {
			events = append(events, Event{Kind: EventStateChanged})
		}
	} else {
		c.lastErr = nil
		if apply != nil {
			events = apply()
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Str("op", op.name).Str("category", domain.Category(err)).Msg("session operation failed")
	}
	for _, ev := range events {
		ev.Snapshot = snap
		c.publish(ev)
	}
	if err != nil {
		return fmt.Errorf("failed to %s session: %w", op.name, err)
	}
	return nil
}

// adoptLocked takes the backend session verbatim and restarts the countdown.
func (c *Controller) adoptLocked(s *domain.Session) {
	c.session = s.Clone()
	c.skew = 0
	if m, err := s.Kind.Mode(); err == nil {
		c.mode = m
	}
	c.setStateLocked(domain.StateFor(c.session))
	c.engineGen = c.engine.Prime(c.inputLocked())
	c.logger.Info().
		Str("session_id", s.ID).
		Str("kind", string(s.Kind)).
		Bool("paused", s.IsPaused).
		Int("completed", s.Completed).
		Msg("session adopted")
}

// clearLocked drops the session and stops ticking.
func (c *Controller) clearLocked() {
	c.session = nil
	c.skew = 0
	c.busy = ""
	c.lastErr = nil
	c.setStateLocked(domain.StateIdle)
	c.engine.Stop()
	c.engineGen = c.engine.Generation()
}

func (c *Controller) setStateLocked(to domain.LifecycleState) {
	if c.state == to {
		return
	}
	metrics.SessionTransitions.WithLabelValues(c.state.String(), to.String()).Inc()
	c.logger.Info().Str("from", c.state.String()).Str("to", to.String()).Msg("state transition")
	c.state = to
}

func (c *Controller) inputLocked() countdown.Input {
	s := c.session
	return countdown.Input{
		Baseline:    s.Baseline(),
		Duration:    s.Duration,
		Accumulated: s.Completed,
		Paused:      s.IsPaused,
		Skew:        c.skew,
	}
}

func (c *Controller) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		State:       c.state,
		Session:     c.session.Clone(),
		Mode:        c.mode,
		Results:     c.results,
		ShowResults: c.showResults,
		Busy:        c.busy,
		Owner:       c.identity.UserID,
		LastError:   c.lastErr,
		At:          c.clock.Now(),
	}
	if c.session != nil {
		r := countdown.Compute(c.inputLocked(), snap.At)
		snap.Remaining = r.Remaining
		snap.Elapsed = r.Elapsed
		snap.Progress = r.Progress
	}
	return snap
}

func (c *Controller) publish(ev Event) {
	c.events.Publish(ev)
}

// loop consumes engine events until Close.
func (c *Controller) loop(ticks <-chan countdown.Event, unsubscribe func()) {
	defer c.wg.Done()
	defer unsubscribe()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-ticks:
			c.onEngineEvent(ev)
		}
	}
}

func (c *Controller) onEngineEvent(ev countdown.Event) {
	c.mu.Lock()
	if ev.Gen != c.engineGen || c.session == nil {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if ev.Kind == countdown.EventTick {
		c.publish(Event{Kind: EventTick, Snapshot: snap})
		return
	}

	if !c.autoEnd {
		c.publish(Event{Kind: EventTick, Snapshot: snap})
		return
	}

	c.logger.Info().Str("session_id", snap.Session.ID).Msg("countdown reached zero")
	if err := c.finish(c.ctx, false, true); err != nil {
		c.logger.Warn().Err(err).Msg("automatic end failed")
	}
}
