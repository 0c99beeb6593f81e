package localserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/devnotmax/studify/internal/adapters/storage"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newServer(t *testing.T, owner string) (*Server, *fakeNow) {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeNow{t: t0}
	return New(store, owner, WithClock(clock.now), WithLocation(time.UTC)), clock
}

func TestServer_PauseResumeScenario(t *testing.T) {
	srv, clock := newServer(t, "u1")
	ctx := context.Background()

	s, err := srv.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, s.StartTime.Equal(t0))

	clock.advance(100 * time.Second)
	paused, err := srv.Pause(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)
	assert.Equal(t, 100, paused.Completed)

	clock.advance(100 * time.Second)
	resumed, err := srv.Resume(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	assert.True(t, resumed.StartTime.Equal(t0), "start time must never move")

	clock.advance(60 * time.Second)
	remaining, err := srv.Remaining(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1340, remaining)
}

func TestServer_OneActiveSession(t *testing.T) {
	srv, _ := newServer(t, "u1")
	ctx := context.Background()

	_, err := srv.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)

	_, err = srv.Start(ctx, domain.KindShortBreak, 300)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestServer_StartValidation(t *testing.T) {
	srv, _ := newServer(t, "u1")
	ctx := context.Background()

	_, err := srv.Start(ctx, "nap", 1500)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = srv.Start(ctx, domain.KindFocus, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestServer_EndRoundTrip(t *testing.T) {
	srv, clock := newServer(t, "u1")
	ctx := context.Background()

	s, err := srv.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)
	clock.advance(100 * time.Second)
	_, err = srv.Pause(ctx, s.ID)
	require.NoError(t, err)
	clock.advance(100 * time.Second)
	_, err = srv.Resume(ctx, s.ID)
	require.NoError(t, err)
	clock.advance(1400 * time.Second)

	remaining, err := srv.Remaining(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	results, err := srv.End(ctx, s.ID, 1500)
	require.NoError(t, err)
	assert.True(t, results.Session.IsCompleted)
	assert.Equal(t, 1500, results.Session.Completed)
	require.NotNil(t, results.Streak)
	assert.Equal(t, 1, results.Streak.Current)
	assert.GreaterOrEqual(t, results.Streak.Longest, results.Streak.Current)
	require.Len(t, results.NewAchievements, 1)
	assert.Equal(t, "First Step", results.NewAchievements[0].Name)

	page, err := srv.History(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, s.ID, page.Sessions[0].ID)

	active, err := srv.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestServer_EndRejectsOvershoot(t *testing.T) {
	srv, clock := newServer(t, "u1")
	ctx := context.Background()

	s, err := srv.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)
	clock.advance(60 * time.Second)

	_, err = srv.End(ctx, s.ID, 1500)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = srv.End(ctx, s.ID, 1501)
	assert.ErrorIs(t, err, domain.ErrValidation)

	results, err := srv.End(ctx, s.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, results.Session.Completed)
}

func TestServer_CancelAndTerminalState(t *testing.T) {
	srv, clock := newServer(t, "u1")
	ctx := context.Background()

	s, err := srv.Start(ctx, domain.KindShortBreak, 300)
	require.NoError(t, err)
	clock.advance(30 * time.Second)
	require.NoError(t, srv.Cancel(ctx, s.ID))

	_, err = srv.Pause(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 404, ge.Status)
	_, err = srv.Resume(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = srv.Remaining(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = srv.End(ctx, s.ID, 30)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, srv.Cancel(ctx, s.ID), domain.ErrNotFound)

	_, err = srv.Pause(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	page, err := srv.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Sessions, 1)
	assert.True(t, page.Sessions[0].IsCancelled)
	assert.Equal(t, 30, page.Sessions[0].Completed)

	report, err := srv.Streak(ctx)
	require.NoError(t, err)
	assert.True(t, report.NoStreak(), "a cancelled break is not study activity")
}

func TestServer_DoublePauseRejected(t *testing.T) {
	srv, _ := newServer(t, "u1")
	ctx := context.Background()

	s, err := srv.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)
	_, err = srv.Pause(ctx, s.ID)
	require.NoError(t, err)
	_, err = srv.Pause(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = srv.Resume(ctx, s.ID)
	require.NoError(t, err)
	_, err = srv.Resume(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestServer_OwnersAreIsolated(t *testing.T) {
	store, err := storage.NewMemory()
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	factory := Factory(store, WithClock(func() time.Time { return t0 }))
	a, err := factory(domain.Identity{UserID: "alice"})
	require.NoError(t, err)
	b, err := factory(domain.Identity{UserID: "bob"})
	require.NoError(t, err)

	ctx := context.Background()
	s, err := a.Start(ctx, domain.KindFocus, 1500)
	require.NoError(t, err)

	active, err := b.Active(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = b.Pause(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_Stats(t *testing.T) {
	srv, clock := newServer(t, "u1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := srv.Start(ctx, domain.KindFocus, 60)
		require.NoError(t, err)
		clock.advance(time.Minute)
		_, err = srv.End(ctx, s.ID, 60)
		require.NoError(t, err)
	}
	b, err := srv.Start(ctx, domain.KindShortBreak, 60)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = srv.End(ctx, b.ID, 60)
	require.NoError(t, err)

	counts, err := srv.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCounts{Today: 3, Week: 3, Total: 3}, counts)

	clock.advance(24 * time.Hour)
	counts, err = srv.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCounts{Today: 0, Week: 3, Total: 3}, counts)
}
