package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devnotmax/studify/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendLocal {
		t.Errorf("Backend = %q, want local", cfg.Backend)
	}
	if cfg.Goals.Daily != 6 {
		t.Errorf("Goals.Daily = %d, want 6", cfg.Goals.Daily)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("Server.Timeout = %v, want 10s", cfg.Server.Timeout)
	}
	if cfg.History.PageSize != 10 || cfg.History.CacheSize != 32 {
		t.Errorf("History = %+v", cfg.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout)
	}
	if strings.HasPrefix(cfg.Storage.DataDir, "~") {
		t.Errorf("DataDir not expanded: %q", cfg.Storage.DataDir)
	}
}

func TestLoadFrom_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `backend = "remote"

[server]
url = "https://api.example.com"
timeout = "3s"

[goals]
daily = 8

[storage]
data_dir = "` + filepath.ToSlash(dir) + `"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend != BackendRemote || cfg.Server.URL != "https://api.example.com" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Server.Timeout != 3*time.Second {
		t.Errorf("Server.Timeout = %v, want 3s", cfg.Server.Timeout)
	}
	if cfg.Goals.Daily != 8 {
		t.Errorf("Goals.Daily = %d, want 8", cfg.Goals.Daily)
	}
	if cfg.History.PageSize != 10 {
		t.Errorf("History.PageSize = %d, want default 10", cfg.History.PageSize)
	}
	if GetDBPath(cfg) != filepath.Join(filepath.ToSlash(dir), "studify.db") {
		t.Errorf("GetDBPath() = %q", GetDBPath(cfg))
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("STUDIFY_BACKEND", "remote")
	t.Setenv("STUDIFY_SERVER_URL", "http://localhost:4000")
	t.Setenv("STUDIFY_GOALS_DAILY", "4")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Backend != BackendRemote || cfg.Server.URL != "http://localhost:4000" || cfg.Goals.Daily != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantKey string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "cloud" }, "backend"},
		{"remote without url", func(c *Config) { c.Backend = BackendRemote }, "server.url"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "server.timeout"},
		{"zero goal", func(c *Config) { c.Goals.Daily = 0 }, "goals.daily"},
		{"zero page size", func(c *Config) { c.History.PageSize = 0 }, "history.page_size"},
		{"zero cache", func(c *Config) { c.History.CacheSize = -1 }, "history.cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantKey)
			}
		})
	}
}

func TestGetLogPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/data"

	if got := GetLogPath(cfg); got != filepath.Join("/data", "studify.log") {
		t.Errorf("GetLogPath() = %q", got)
	}
	cfg.Log.File = "/var/log/studify.log"
	if got := GetLogPath(cfg); got != "/var/log/studify.log" {
		t.Errorf("GetLogPath() = %q", got)
	}
	cfg.Log.File = ""
	if got := GetLogPath(cfg); got != "" {
		t.Errorf("GetLogPath() = %q, want empty", got)
	}
}
