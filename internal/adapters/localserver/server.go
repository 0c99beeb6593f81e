// Package localserver is an offline backend. It enforces the same session
// contract as the remote API against the local SQLite store, so the client
// behaves identically without a network.
package localserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devnotmax/studify/internal/countdown"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/rs/zerolog"
)

// DefaultOwner is used when nobody is signed in.
const DefaultOwner = "local"

// DefaultTolerance is how far completedTime may exceed the measured elapsed
// time before End rejects it.
const DefaultTolerance = 2 * time.Second

// Server implements ports.SessionGateway for a single owner.
type Server struct {
	sessions     ports.SessionRepository
	achievements ports.AchievementRepository
	owner        string
	now          func() time.Time
	loc          *time.Location
	tolerance    time.Duration
	dailyGoal    int
	logger       zerolog.Logger

	// serializes check-then-write sequences
	mu *sync.Mutex
}

// Ensure Server implements ports.SessionGateway.
var _ ports.SessionGateway = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.loc = loc }
}

// WithTolerance sets the allowed completedTime overshoot.
func WithTolerance(d time.Duration) Option {
	return func(s *Server) { s.tolerance = d }
}

// WithDailyGoal sets the goal used by the daily-goal achievement.
func WithDailyGoal(goal int) Option {
	return func(s *Server) { s.dailyGoal = goal }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithLock shares a lock between servers bound to the same store.
func WithLock(mu *sync.Mutex) Option {
	return func(s *Server) { s.mu = mu }
}

// New creates a local backend for owner over store.
func New(store ports.Storage, owner string, opts ...Option) *Server {
	if owner == "" {
		owner = DefaultOwner
	}
	s := &Server{
		sessions:     store.Sessions(),
		achievements: store.Achievements(),
		owner:        owner,
		now:          time.Now,
		loc:          time.Local,
		tolerance:    DefaultTolerance,
		dailyGoal:    domain.DefaultDailyGoal,
		logger:       zerolog.Nop(),
		mu:           &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "localserver").Str("owner", s.owner).Logger()
	return s
}

// Factory returns a ports.GatewayFactory producing servers that share store
// and one lock.
func Factory(store ports.Storage, opts ...Option) ports.GatewayFactory {
	mu := &sync.Mutex{}
	return func(id domain.Identity) (ports.SessionGateway, error) {
		all := append([]Option{WithLock(mu)}, opts...)
		return New(store, id.UserID, all...), nil
	}
}

// Owner returns the owner this server acts for.
func (s *Server) Owner() string {
	return s.owner
}

// Start creates a running session.
func (s *Server) Start(ctx context.Context, kind domain.SessionKind, durationSeconds int) (*domain.Session, error) {
	const op = "start"
	if !kind.Valid() {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400, fmt.Sprintf("invalid sessionType %q", kind))
	}
	if durationSeconds <= 0 {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400, "duration must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.sessions.FindActive(ctx, s.owner)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if active != nil {
		return nil, domain.NewGatewayError(op, domain.ErrConflict, 409, "an active session already exists")
	}

	session := &domain.Session{
		ID:        domain.NewID(),
		UserID:    s.owner,
		Kind:      kind,
		Duration:  durationSeconds,
		StartTime: s.now().UTC(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Debug().Str("session_id", session.ID).Str("kind", string(kind)).Int("duration", durationSeconds).Msg("session started")
	return session, nil
}

// Active returns the active session or nil.
func (s *Server) Active(ctx context.Context) (*domain.Session, error) {
	session, err := s.sessions.FindActive(ctx, s.owner)
	if err != nil {
		return nil, s.fail("active", err)
	}
	return session, nil
}

// Pause accumulates the running segment and freezes the session.
func (s *Server) Pause(ctx context.Context, id string) (*domain.Session, error) {
	const op = "pause"
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.activeByID(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if session.IsPaused {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400, "session is already paused")
	}

	session.Completed = s.elapsed(session)
	session.IsPaused = true
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, s.fail(op, err)
	}
	return session, nil
}

// Resume starts a new running segment.
func (s *Server) Resume(ctx context.Context, id string) (*domain.Session, error) {
	const op = "resume"
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.activeByID(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !session.IsPaused {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400, "session is not paused")
	}

	now := s.now().UTC()
	session.IsPaused = false
	session.ResumedAt = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, s.fail(op, err)
	}
	return session, nil
}

// Remaining returns the seconds left on the session.
func (s *Server) Remaining(ctx context.Context, id string) (int, error) {
	session, err := s.activeByID(ctx, "remaining", id)
	if err != nil {
		return 0, err
	}
	return session.Duration - s.elapsed(session), nil
}

// End completes the session and recomputes streak and achievements.
func (s *Server) End(ctx context.Context, id string, completedSeconds int) (*domain.SessionResults, error) {
	const op = "end"
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.activeByID(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if completedSeconds < 0 || completedSeconds > session.Duration {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400,
			fmt.Sprintf("completedTime must be between 0 and %d", session.Duration))
	}
	measured := s.rawElapsed(session)
	if time.Duration(completedSeconds)*time.Second > time.Duration(measured)*time.Second+s.tolerance {
		return nil, domain.NewGatewayError(op, domain.ErrValidation, 400, "completedTime exceeds elapsed time")
	}

	now := s.now().UTC()
	session.Completed = completedSeconds
	session.IsCompleted = true
	session.IsPaused = false
	session.EndTime = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, s.fail(op, err)
	}

	report, err := s.streak(ctx)
	if err != nil {
		return nil, s.fail(op, err)
	}
	unlocked, err := s.unlock(ctx, session, report)
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.logger.Debug().Str("session_id", id).Int("completed", completedSeconds).Int("achievements", len(unlocked)).Msg("session ended")
	return &domain.SessionResults{Session: session, Streak: report.Info, NewAchievements: unlocked}, nil
}

// Cancel abandons the session.
func (s *Server) Cancel(ctx context.Context, id string) error {
	const op = "cancel"
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.activeByID(ctx, op, id)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	session.Completed = s.elapsed(session)
	session.IsCancelled = true
	session.IsPaused = false
	session.EndTime = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return s.fail(op, err)
	}
	return nil
}

// History returns a page of finished sessions.
func (s *Server) History(ctx context.Context, page, limit int) (*domain.HistoryPage, error) {
	const op = "history"
	page, limit = domain.NormalizePaging(page, limit)

	total, err := s.sessions.CountTerminal(ctx, s.owner)
	if err != nil {
		return nil, s.fail(op, err)
	}
	sessions, err := s.sessions.FindTerminal(ctx, s.owner, (page-1)*limit, limit)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	return &domain.HistoryPage{Sessions: sessions, Total: total, Page: page, Limit: limit}, nil
}

// Streak returns the streak record, or the no-streak report.
func (s *Server) Streak(ctx context.Context) (domain.StreakReport, error) {
	report, err := s.streak(ctx)
	if err != nil {
		return domain.StreakReport{}, s.fail("streak", err)
	}
	return report, nil
}

// Stats counts completed focus sessions today, this week and overall.
func (s *Server) Stats(ctx context.Context) (domain.SessionCounts, error) {
	ends, err := s.sessions.CompletedSince(ctx, s.owner, domain.KindFocus, time.Time{})
	if err != nil {
		return domain.SessionCounts{}, s.fail("stats", err)
	}
	return countSessions(ends, s.now().In(s.loc)), nil
}

// activeByID loads a session that can still change. Finished sessions are
// reported as not found.
func (s *Server) activeByID(ctx context.Context, op, id string) (*domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, s.owner, id)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !session.Active() {
		return nil, domain.NewGatewayError(op, domain.ErrNotFound, 404, "session has already finished")
	}
	return session, nil
}

func (s *Server) input(session *domain.Session) countdown.Input {
	return countdown.Input{
		Baseline:    session.Baseline(),
		Duration:    session.Duration,
		Accumulated: session.Completed,
		Paused:      session.IsPaused,
	}
}

func (s *Server) elapsed(session *domain.Session) int {
	return countdown.Compute(s.input(session), s.now()).Elapsed
}

func (s *Server) rawElapsed(session *domain.Session) int {
	return countdown.Compute(s.input(session), s.now()).RawElapsed
}

// fail converts a repository error into a GatewayError.
func (s *Server) fail(op string, err error) error {
	var ge *domain.GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewGatewayError(op, domain.ErrNotFound, 404, "session not found")
	case errors.Is(err, domain.ErrConflict):
		return domain.NewGatewayError(op, domain.ErrConflict, 409, "an active session already exists")
	}
	s.logger.Error().Err(err).Str("op", op).Msg("local backend failure")
	return domain.NewGatewayError(op, domain.ErrServer, 500, err.Error())
}
