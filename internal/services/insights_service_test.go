package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readGateway serves canned reads and counts history calls.
type readGateway struct {
	ports.SessionGateway

	mu        sync.Mutex
	total     int
	historyN  int
	report    domain.StreakReport
	counts    domain.SessionCounts
	streakErr error
	statsErr  error
}

func (g *readGateway) History(_ context.Context, page, limit int) (*domain.HistoryPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.historyN++
	result := &domain.HistoryPage{Total: g.total, Page: page, Limit: limit}
	for i := (page - 1) * limit; i < g.total && i < page*limit; i++ {
		result.Sessions = append(result.Sessions, &domain.Session{ID: fmt.Sprintf("s%d", i)})
	}
	return result, nil
}

func (g *readGateway) Streak(context.Context) (domain.StreakReport, error) {
	return g.report, g.streakErr
}

func (g *readGateway) Stats(context.Context) (domain.SessionCounts, error) {
	return g.counts, g.statsErr
}

func (g *readGateway) historyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.historyN
}

func newInsights(t *testing.T, gw *readGateway) *InsightsService {
	t.Helper()
	factory := func(domain.Identity) (ports.SessionGateway, error) { return gw, nil }
	s, err := NewInsightsService(factory, 6, 8, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Bind(domain.Identity{UserID: "u1"}))
	return s
}

func TestInsights_Unbound(t *testing.T) {
	s, err := NewInsightsService(nil, 0, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDailyGoal, s.Goal())

	view, err := s.Streak(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.True(t, view.Empty)
}

func TestInsights_StreakViews(t *testing.T) {
	gw := &readGateway{report: domain.StreakReport{Message: "No streak found"}}
	s := newInsights(t, gw)
	ctx := context.Background()

	view, err := s.Streak(ctx)
	require.NoError(t, err)
	assert.True(t, view.Empty)

	gw.report = domain.StreakReport{Info: &domain.StreakInfo{Current: 7, Longest: 10}}
	view, err = s.Streak(ctx)
	require.NoError(t, err)
	assert.False(t, view.Empty)
	assert.Equal(t, domain.TierImpressive, view.Tier)

	gw.streakErr = domain.NewGatewayError("streak", domain.ErrNetwork, 0, "connection refused")
	view, err = s.Streak(ctx)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.True(t, view.Empty, "failed read degrades to the empty view")
}

func TestInsights_Stats(t *testing.T) {
	gw := &readGateway{counts: domain.SessionCounts{Today: 3, Week: 10, Total: 42}}
	s := newInsights(t, gw)

	view, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, view.Goal)
	assert.InDelta(t, 50.0, view.Progress, 1e-9)
	assert.False(t, view.Empty)

	gw.statsErr = domain.NewGatewayError("stats", domain.ErrServer, 500, "")
	view, err = s.Stats(context.Background())
	assert.ErrorIs(t, err, domain.ErrServer)
	assert.Equal(t, 0, view.Counts.Total)
}

func TestInsights_HistoryCache(t *testing.T) {
	gw := &readGateway{total: 25}
	s := newInsights(t, gw)
	ctx := context.Background()

	first, err := s.History(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 10, first.Limit)
	assert.Len(t, first.Sessions, 10)

	_, err = s.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.historyCalls(), "second read should hit the cache")

	s.Invalidate()
	_, err = s.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.historyCalls())
}

func TestInsights_FollowInvalidates(t *testing.T) {
	gw := &readGateway{total: 3}
	s := newInsights(t, gw)
	ctx := context.Background()

	_, err := s.History(ctx, 1, 10)
	require.NoError(t, err)

	events := make(chan Event)
	go s.Follow(ctx, events)
	events <- Event{Kind: EventTick}
	events <- Event{Kind: EventCancelled}
	// unbuffered send returns once Follow received it; a second send
	// guarantees the first was fully handled
	events <- Event{Kind: EventTick}
	close(events)

	_, err = s.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.historyCalls())
}

func TestInsights_AllHistory(t *testing.T) {
	gw := &readGateway{total: 23}
	s := newInsights(t, gw)

	all, err := s.AllHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, all, 23)
	assert.Equal(t, "s0", all[0].ID)
	assert.Equal(t, "s22", all[22].ID)
}

func TestInsights_BindPurgesCache(t *testing.T) {
	gw := &readGateway{total: 5}
	s := newInsights(t, gw)
	ctx := context.Background()

	_, err := s.History(ctx, 1, 10)
	require.NoError(t, err)
	require.NoError(t, s.Bind(domain.Identity{UserID: "u2"}))
	_, err = s.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.historyCalls())
}

func TestInsights_FollowStopsOnContext(t *testing.T) {
	s := newInsights(t, &readGateway{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Follow(ctx, make(chan Event))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestInsights_FailedBindUnbinds(t *testing.T) {
	gw := &readGateway{}
	factory := func(id domain.Identity) (ports.SessionGateway, error) {
		if id.Anonymous() {
			return nil, domain.ErrNotAuthenticated
		}
		return gw, nil
	}
	s, err := NewInsightsService(factory, 6, 8, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Bind(domain.Identity{UserID: "u1"}))

	assert.ErrorIs(t, s.Bind(domain.Identity{}), domain.ErrNotAuthenticated)
	_, err = s.Stats(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
