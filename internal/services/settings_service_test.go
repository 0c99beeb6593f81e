package services

import (
	"context"
	"errors"
	"testing"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/rs/zerolog"
)

func TestSettingsService_DefaultsWhenAbsent(t *testing.T) {
	svc := NewSettingsService(newMemoryKV(), zerolog.Nop())

	got, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != domain.DefaultTimerSettings() {
		t.Errorf("Current() = %+v, want defaults", got)
	}
}

func TestSettingsService_MalformedFallsBack(t *testing.T) {
	kv := newMemoryKV()
	_ = kv.Put(context.Background(), domain.SettingsKey, []byte(`{"focus":`))
	svc := NewSettingsService(kv, zerolog.Nop())

	got, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.Focus != 25 {
		t.Errorf("Focus = %d, want 25", got.Focus)
	}
}

func TestSettingsService_UnknownTechniqueFallsBack(t *testing.T) {
	kv := newMemoryKV()
	_ = kv.Put(context.Background(), domain.SettingsKey,
		[]byte(`{"focus":30,"shortBreak":5,"longBreak":15,"autoStart":false,"selectedTechnique":"flowtime"}`))
	svc := NewSettingsService(kv, zerolog.Nop())

	got, _ := svc.Current(context.Background())
	if got.SelectedTechnique != "classic" || got.Focus != 30 {
		t.Errorf("Current() = %+v, want classic with focus 30", got)
	}
}

func TestSettingsService_SetMinutesClamps(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(newMemoryKV(), zerolog.Nop())

	tests := []struct {
		mode    domain.Mode
		minutes int
		want    int
	}{
		{domain.ModeFocus, 0, 1},
		{domain.ModeShortBreak, 1200, 999},
		{domain.ModeLongBreak, 20, 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if _, err := svc.SetMinutes(ctx, tt.mode, tt.minutes); err != nil {
				t.Fatalf("SetMinutes() error = %v", err)
			}
			got, _ := svc.Current(ctx)
			minutes, _ := got.Minutes(tt.mode)
			if minutes != tt.want {
				t.Errorf("Minutes(%s) = %d, want %d", tt.mode, minutes, tt.want)
			}
		})
	}

	if _, err := svc.SetMinutes(ctx, "nap", 10); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SetMinutes(nap) error = %v, want ErrValidation", err)
	}
}

func TestSettingsService_SelectTechnique(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(newMemoryKV(), zerolog.Nop())

	settings, tech, err := svc.SelectTechnique(ctx, "ultra")
	if err != nil {
		t.Fatalf("SelectTechnique() error = %v", err)
	}
	if tech.ID != "ultradian" || settings.Focus != 90 || settings.ShortBreak != 20 || settings.LongBreak != 30 {
		t.Errorf("SelectTechnique() = %+v, %s", settings, tech.ID)
	}

	stored, _ := svc.Current(ctx)
	if stored.SelectedTechnique != "ultradian" {
		t.Errorf("stored technique = %q", stored.SelectedTechnique)
	}

	if _, _, err := svc.SelectTechnique(ctx, "zzzz"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("SelectTechnique(zzzz) error = %v, want ErrValidation", err)
	}
}

func TestSettingsService_SaveRejectsInvalid(t *testing.T) {
	svc := NewSettingsService(newMemoryKV(), zerolog.Nop())
	bad := domain.DefaultTimerSettings()
	bad.LongBreak = 1000

	if err := svc.Save(context.Background(), bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Save() error = %v, want ErrValidation", err)
	}

	bad = domain.DefaultTimerSettings()
	bad.SelectedTechnique = "flowtime"
	if err := svc.Save(context.Background(), bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Save() error = %v, want ErrValidation", err)
	}
}

func TestSettingsService_AutoStartAndReset(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(newMemoryKV(), zerolog.Nop())

	if _, err := svc.SetAutoStart(ctx, true); err != nil {
		t.Fatalf("SetAutoStart() error = %v", err)
	}
	got, _ := svc.Current(ctx)
	if !got.AutoStart {
		t.Error("AutoStart not persisted")
	}

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	got, _ = svc.Current(ctx)
	if got != domain.DefaultTimerSettings() {
		t.Errorf("Current() after Reset = %+v", got)
	}
}
