package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/rs/zerolog"
)

// IdentityBinder is notified whenever the signed-in identity changes.
type IdentityBinder interface {
	SwitchIdentity(ctx context.Context, id domain.Identity) error
}

// IdentityService persists the signed-in identity and rebinds the controller
// and insights whenever it changes.
type IdentityService struct {
	store    ports.IdentityStore
	session  IdentityBinder
	insights *InsightsService
	logger   zerolog.Logger
}

// NewIdentityService creates an identity service.
func NewIdentityService(store ports.IdentityStore, session IdentityBinder, insights *InsightsService, logger zerolog.Logger) *IdentityService {
	return &IdentityService{
		store:    store,
		session:  session,
		insights: insights,
		logger:   logger.With().Str("component", "identity").Logger(),
	}
}

// Current returns the stored identity.
func (s *IdentityService) Current(ctx context.Context) (domain.Identity, error) {
	id, err := s.store.LoadIdentity(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to load identity: %w", err)
	}
	return id, nil
}

// Restore binds the stored identity and recovers its active session. A
// recovery failure is returned but leaves the binding in place.
func (s *IdentityService) Restore(ctx context.Context) (domain.Identity, error) {
	id, err := s.Current(ctx)
	if err != nil {
		return id, err
	}
	return id, s.bind(ctx, id)
}

// Login stores id and switches to it. Any local state of the previous
// identity is discarded.
func (s *IdentityService) Login(ctx context.Context, id domain.Identity) error {
	id.UserID = strings.TrimSpace(id.UserID)
	if id.Anonymous() {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	s.logger.Info().Str("user", id.UserID).Msg("signed in")
	return s.bind(ctx, id)
}

// Logout clears the stored identity and switches to the anonymous one.
func (s *IdentityService) Logout(ctx context.Context) error {
	if err := s.store.ClearIdentity(ctx); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	s.logger.Info().Msg("signed out")
	return s.bind(ctx, domain.Identity{})
}

// bind rebinds both consumers even when the first fails, so neither keeps
// serving the previous identity.
func (s *IdentityService) bind(ctx context.Context, id domain.Identity) error {
	var insightsErr error
	if s.insights != nil {
		insightsErr = s.insights.Bind(id)
	}
	if s.session != nil {
		if err := s.session.SwitchIdentity(ctx, id); err != nil {
			return err
		}
	}
	return insightsErr
}
