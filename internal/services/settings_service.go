// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/methodology"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/rs/zerolog"
)

// SettingsService loads and updates TimerSettings in client-local storage.
type SettingsService struct {
	store  ports.KeyValueStore
	logger zerolog.Logger
}

// Ensure SettingsService implements ports.SettingsProvider.
var _ ports.SettingsProvider = (*SettingsService)(nil)

// NewSettingsService creates a new settings service.
func NewSettingsService(store ports.KeyValueStore, logger zerolog.Logger) *SettingsService {
	return &SettingsService{store: store, logger: logger.With().Str("component", "settings").Logger()}
}

// Current returns the stored settings, or the defaults when the document is
// absent or malformed.
func (s *SettingsService) Current(ctx context.Context) (domain.TimerSettings, error) {
	raw, err := s.store.Get(ctx, domain.SettingsKey)
	if err != nil {
		return domain.DefaultTimerSettings(), fmt.Errorf("failed to load settings: %w", err)
	}
	settings, ok := domain.DecodeTimerSettings(raw)
	if !ok && raw != nil {
		s.logger.Warn().Msg("stored timer settings are invalid, using defaults")
	}
	if _, err := methodology.ForID(settings.SelectedTechnique); err != nil {
		settings.SelectedTechnique = methodology.DefaultID
	}
	return settings, nil
}

// Save validates and persists settings.
func (s *SettingsService) Save(ctx context.Context, settings domain.TimerSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if _, err := methodology.ForID(settings.SelectedTechnique); err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Put(ctx, domain.SettingsKey, raw); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SetMinutes updates one duration, clamped to [1, 999].
func (s *SettingsService) SetMinutes(ctx context.Context, mode domain.Mode, minutes int) (domain.TimerSettings, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return settings, err
	}
	minutes = domain.ClampMinutes(minutes)
	switch mode {
	case domain.ModeFocus:
		settings.Focus = minutes
	case domain.ModeShortBreak:
		settings.ShortBreak = minutes
	case domain.ModeLongBreak:
		settings.LongBreak = minutes
	default:
		return settings, fmt.Errorf("%w: unknown mode %q", domain.ErrValidation, string(mode))
	}
	return settings, s.Save(ctx, settings)
}

// SetAutoStart toggles automatic start of the next mode.
func (s *SettingsService) SetAutoStart(ctx context.Context, on bool) (domain.TimerSettings, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return settings, err
	}
	settings.AutoStart = on
	return settings, s.Save(ctx, settings)
}

// SelectTechnique applies a technique, overwriting the three durations.
func (s *SettingsService) SelectTechnique(ctx context.Context, query string) (domain.TimerSettings, domain.StudyTechnique, error) {
	tech, err := methodology.Find(query)
	if err != nil {
		return domain.TimerSettings{}, tech, err
	}
	settings, err := s.Current(ctx)
	if err != nil {
		return settings, tech, err
	}
	settings = settings.ApplyTechnique(tech)
	return settings, tech, s.Save(ctx, settings)
}

// Reset removes stored settings so the defaults apply.
func (s *SettingsService) Reset(ctx context.Context) error {
	if err := s.store.Delete(ctx, domain.SettingsKey); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	return nil
}
