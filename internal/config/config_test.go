package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v4"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("HABITS_CONFIG", configFile)
	return configFile
}

func TestLoad_MissingConfig(t *testing.T) {
	t.Setenv("HABITS_CONFIG", filepath.Join(t.TempDir(), "nonexistent.yaml"))
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadOptional_MissingConfigUsesDefaults(t *testing.T) {
	t.Setenv("HABITS_CONFIG", filepath.Join(t.TempDir(), "nonexistent.yaml"))
	t.Setenv("HABITS_API_BASE", "https://habits.example.com")

	cfg, err := LoadOptional()
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.APIBaseURL != "https://habits.example.com" {
		t.Fatalf("env override not applied: %q", cfg.APIBaseURL)
	}
	if cfg.Storage.Type != StorageBolt {
		t.Fatalf("expected bolt default, got %q", cfg.Storage.Type)
	}
}

func TestLoad_CustomConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("HABITS_CONFIG", configFile)

	c := Default()
	d, err := yaml.Marshal(c)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(configFile, d, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err = Load()
	if err != nil {
		t.Fatal("error opening config:", err)
	}
}

func TestLoad_Fields(t *testing.T) {
	writeConfig(t, `
listen_addr: ":9090"
week_starts_on: monday
timezone: Europe/Dublin
storage:
  type: sqlite
  path: /var/lib/habits/habits.sqlite
stats:
  thresholds:
    consistent_rate: 0.9
cors:
  allowed_origins: ["https://app.example.com"]
nudge:
  schedule: "0 20 * * *"
`)
	t.Setenv("HABITS_DB_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr: %q", cfg.ListenAddr)
	}
	if cfg.WeekStart() != time.Monday {
		t.Errorf("week start: %v", cfg.WeekStart())
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Dublin" {
		t.Errorf("location: %v %v", loc, err)
	}
	if cfg.Storage.Type != StorageSQLite || cfg.Storage.Path != "/var/lib/habits/habits.sqlite" {
		t.Errorf("storage: %+v", cfg.Storage)
	}
	if cfg.Stats.Thresholds.ConsistentRate != 0.9 {
		t.Errorf("consistent rate: %v", cfg.Stats.Thresholds.ConsistentRate)
	}
	// unset thresholds keep their defaults
	if cfg.Stats.Thresholds.DipPoints != 15 {
		t.Errorf("dip points: %v", cfg.Stats.Thresholds.DipPoints)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("cors: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Nudge.Schedule != "0 20 * * *" || cfg.Nudge.Hours != 4 {
		t.Errorf("nudge: %+v", cfg.Nudge)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	writeConfig(t, "api_base_url: http://file\n")
	t.Setenv("HABITS_API_BASE", "http://env")
	t.Setenv("HABITS_DB_PATH", "/tmp/env.db")
	t.Setenv("HABITS_AUTH_TOKEN", "hab_live_abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://env" || cfg.Storage.Path != "/tmp/env.db" || cfg.AuthToken != "hab_live_abc" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad storage", func(c *Config) { c.Storage.Type = "mongo" }},
		{"bad week start", func(c *Config) { c.WeekStartsOn = "friday" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"auth without providers", func(c *Config) { c.AuthEnabled = true }},
		{"provider missing issuer", func(c *Config) {
			c.OIDCProviders = []OIDCProviderConfig{{Id: "google", ClientID: "x"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	writeConfig(t, "storage: [unclosed\n")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
