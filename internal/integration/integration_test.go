package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/devnotmax/studify/internal/adapters/localserver"
	"github.com/devnotmax/studify/internal/adapters/storage"
	"github.com/devnotmax/studify/internal/countdown"
	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/devnotmax/studify/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// app wires the services the way the CLI does, over a database file.
type app struct {
	store      ports.Storage
	controller *services.Controller
	insights   *services.InsightsService
	identity   *services.IdentityService
}

func openApp(t *testing.T, dbPath string, clock *countdown.ManualClock) *app {
	t.Helper()

	store, err := storage.New(dbPath)
	require.NoError(t, err)

	factory := localserver.Factory(store,
		localserver.WithClock(clock.Now),
		localserver.WithLocation(time.UTC),
		localserver.WithDailyGoal(2),
	)
	settings := services.NewSettingsService(store.Settings(), zerolog.Nop())
	controller := services.NewController(factory, settings, services.WithClock(clock))
	insights, err := services.NewInsightsService(factory, 2, 8, zerolog.Nop())
	require.NoError(t, err)

	a := &app{
		store:      store,
		controller: controller,
		insights:   insights,
		identity:   services.NewIdentityService(store.Identity(), controller, insights, zerolog.Nop()),
	}
	_, err = a.identity.Restore(context.Background())
	require.NoError(t, err)
	return a
}

func (a *app) close(t *testing.T) {
	t.Helper()
	a.controller.Close()
	require.NoError(t, a.store.Close())
}

func waitForCompletion(t *testing.T, events <-chan services.Event) services.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == services.EventCompleted {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for completion")
			return services.Event{}
		}
	}
}

// TestSessionSurvivesRestart pauses a session, reopens the database and
// finishes the recovered session naturally.
func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "studify.db")
	clock := countdown.NewManualClock(t0)

	first := openApp(t, dbPath, clock)
	require.NoError(t, first.identity.Login(ctx, domain.Identity{UserID: "ana", Name: "Ana"}))
	require.NoError(t, first.controller.Start(ctx, domain.ModeFocus))
	clock.Advance(10 * time.Minute)
	require.NoError(t, first.controller.Pause(ctx))
	first.close(t)

	// Time spent closed while paused does not count.
	clock.Advance(2 * time.Hour)

	second := openApp(t, dbPath, clock)
	defer second.close(t)

	id, err := second.identity.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", id.UserID)

	snap := second.controller.Snapshot()
	require.Equal(t, domain.StatePaused, snap.State)
	assert.Equal(t, "15:00", snap.Clock())

	events, unsubscribe := second.controller.Subscribe(64)
	defer unsubscribe()

	require.NoError(t, second.controller.Resume(ctx))
	clock.Advance(15 * time.Minute)

	ev := waitForCompletion(t, events)
	require.NotNil(t, ev.Results)
	assert.Equal(t, 1500, ev.Results.Session.Completed)
	assert.True(t, ev.Results.Session.IsCompleted)

	stats, err := second.insights.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Counts.Today)
	assert.Equal(t, 1, stats.Counts.Total)
	assert.Equal(t, 50.0, stats.Progress)

	streak, err := second.insights.Streak(ctx)
	require.NoError(t, err)
	assert.False(t, streak.Empty)
	assert.Equal(t, 1, streak.Current)

	page, err := second.insights.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "Completed", page.Sessions[0].StatusLabel())
}

// TestStreakAcrossDays completes a focus session on consecutive days and
// checks that breaks and cancelled sessions do not count.
func TestStreakAcrossDays(t *testing.T) {
	ctx := context.Background()
	clock := countdown.NewManualClock(t0)
	a := openApp(t, filepath.Join(t.TempDir(), "studify.db"), clock)
	defer a.close(t)

	require.NoError(t, a.identity.Login(ctx, domain.Identity{UserID: "ana"}))

	for day := 0; day < 3; day++ {
		clock.Set(t0.Add(time.Duration(day) * 24 * time.Hour))
		require.NoError(t, a.controller.Start(ctx, domain.ModeFocus))
		clock.Advance(5 * time.Minute)
		require.NoError(t, a.controller.Complete(ctx, true))
		a.controller.DismissResults()
	}

	require.NoError(t, a.controller.Start(ctx, domain.ModeShortBreak))
	require.NoError(t, a.controller.Complete(ctx, true))
	require.NoError(t, a.controller.Start(ctx, domain.ModeFocus))
	require.NoError(t, a.controller.Cancel(ctx, ports.Confirmed))

	streak, err := a.insights.Streak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, streak.Current)
	assert.Equal(t, 3, streak.Longest)

	stats, err := a.insights.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Counts.Today)
	assert.Equal(t, 3, stats.Counts.Total)

	all, err := a.insights.AllHistory(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// TestUsersAreIsolated checks that one user's session and history are not
// visible to another user sharing the database.
func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	clock := countdown.NewManualClock(t0)
	a := openApp(t, filepath.Join(t.TempDir(), "studify.db"), clock)
	defer a.close(t)

	require.NoError(t, a.identity.Login(ctx, domain.Identity{UserID: "ana"}))
	require.NoError(t, a.controller.Start(ctx, domain.ModeFocus))

	require.NoError(t, a.identity.Login(ctx, domain.Identity{UserID: "ben"}))
	assert.Equal(t, domain.StateIdle, a.controller.Snapshot().State)
	page, err := a.insights.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	require.NoError(t, a.identity.Login(ctx, domain.Identity{UserID: "ana"}))
	snap := a.controller.Snapshot()
	assert.Equal(t, domain.StateRunning, snap.State)
	assert.Equal(t, "ana", snap.Owner)
}
