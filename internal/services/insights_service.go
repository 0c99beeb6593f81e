package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/metrics"
	"github.com/devnotmax/studify/internal/ports"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// DefaultHistoryCacheSize is the number of history pages kept in memory.
const DefaultHistoryCacheSize = 32

type pageKey struct {
	owner string
	page  int
	limit int
}

// InsightsService serves streak, stats and history reads for the bound
// identity. Reads never change session state; on failure they return the
// neutral view alongside the error.
type InsightsService struct {
	factory ports.GatewayFactory
	goal    int
	logger  zerolog.Logger
	pages   *lru.Cache[pageKey, *domain.HistoryPage]

	mu    sync.RWMutex
	gw    ports.SessionGateway
	owner string
}

// Ensure InsightsService implements ports.InsightsProvider.
var _ ports.InsightsProvider = (*InsightsService)(nil)

// NewInsightsService creates an insights service. goal is the daily session
// goal; a non-positive value uses domain.DefaultDailyGoal.
func NewInsightsService(factory ports.GatewayFactory, goal, cacheSize int, logger zerolog.Logger) (*InsightsService, error) {
	if goal <= 0 {
		goal = domain.DefaultDailyGoal
	}
	if cacheSize <= 0 {
		cacheSize = DefaultHistoryCacheSize
	}
	pages, err := lru.New[pageKey, *domain.HistoryPage](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create history cache: %w", err)
	}
	return &InsightsService{
		factory: factory,
		goal:    goal,
		logger:  logger.With().Str("component", "insights").Logger(),
		pages:   pages,
	}, nil
}

// Bind switches the service to id, dropping every cached page. When no
// gateway can be built for id the service is left unbound.
func (s *InsightsService) Bind(id domain.Identity) error {
	gw, err := s.factory(id)
	s.mu.Lock()
	s.gw = nil
	if err == nil {
		s.gw = gw
	}
	s.owner = id.UserID
	s.mu.Unlock()
	s.pages.Purge()
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}
	return nil
}

// Goal returns the daily goal in use.
func (s *InsightsService) Goal() int {
	return s.goal
}

func (s *InsightsService) gateway() (ports.SessionGateway, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gw == nil {
		return nil, "", domain.ErrNotAuthenticated
	}
	return s.gw, s.owner, nil
}

// Streak returns the streak view. A user with no record gets the empty view
// and no error.
func (s *InsightsService) Streak(ctx context.Context) (domain.StreakView, error) {
	empty := domain.NewStreakView(domain.StreakReport{})
	gw, _, err := s.gateway()
	if err != nil {
		return empty, err
	}
	report, err := gw.Streak(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("streak unavailable")
		return empty, fmt.Errorf("failed to get streak: %w", err)
	}
	return domain.NewStreakView(report), nil
}

// Stats returns today/week/total counts with goal progress.
func (s *InsightsService) Stats(ctx context.Context) (domain.StatsView, error) {
	empty := domain.NewStatsView(domain.SessionCounts{}, s.goal)
	gw, _, err := s.gateway()
	if err != nil {
		return empty, err
	}
	counts, err := gw.Stats(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats unavailable")
		return empty, fmt.Errorf("failed to get stats: %w", err)
	}
	return domain.NewStatsView(counts, s.goal), nil
}

// History returns one page of finished sessions. Pages are cached until the
// next completion, cancellation or identity change.
func (s *InsightsService) History(ctx context.Context, page, limit int) (*domain.HistoryPage, error) {
	page, limit = domain.NormalizePaging(page, limit)
	gw, owner, err := s.gateway()
	if err != nil {
		return &domain.HistoryPage{Page: page, Limit: limit}, err
	}

	key := pageKey{owner: owner, page: page, limit: limit}
	if cached, ok := s.pages.Get(key); ok {
		metrics.HistoryCacheHits.Inc()
		return cached, nil
	}
	metrics.HistoryCacheMisses.Inc()

	result, err := gw.History(ctx, page, limit)
	if err != nil {
		s.logger.Warn().Err(err).Int("page", page).Msg("history unavailable")
		return &domain.HistoryPage{Page: page, Limit: limit}, fmt.Errorf("failed to get history: %w", err)
	}
	s.pages.Add(key, result)
	return result, nil
}

// AllHistory walks every history page, most recent first.
func (s *InsightsService) AllHistory(ctx context.Context, limit int) ([]*domain.Session, error) {
	var out []*domain.Session
	for page := 1; ; page++ {
		result, err := s.History(ctx, page, limit)
		if err != nil {
			return out, err
		}
		out = append(out, result.Sessions...)
		if page >= result.Pages() || len(result.Sessions) == 0 {
			return out, nil
		}
	}
}

// Invalidate drops every cached history page.
func (s *InsightsService) Invalidate() {
	s.pages.Purge()
}

// Follow invalidates the cache on controller events until ctx is done or the
// channel closes.
func (s *InsightsService) Follow(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventCompleted, EventCancelled, EventIdentityChanged:
				s.logger.Debug().Str("event", ev.Kind.String()).Msg("history cache invalidated")
				s.Invalidate()
			}
		}
	}
}
