package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Surya5599/habittracker/internal/stats"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

const (
	defaultConfigPath = "config.yaml"

	StorageBolt   = "bolt"
	StorageSQLite = "sqlite"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	ListenAddr string `yaml:"listen_addr"`
	AuthToken  string `yaml:"auth_token,omitempty"`

	AuthEnabled   bool                 `yaml:"auth_enabled"`
	OIDCProviders []OIDCProviderConfig `yaml:"oidc_providers,omitempty"`

	Storage     StorageConfig `yaml:"storage"`
	GuestDBPath string        `yaml:"guest_db_path"`

	WeekStartsOn string `yaml:"week_starts_on"`
	Timezone     string `yaml:"timezone,omitempty"`

	Log   LogConfig   `yaml:"log"`
	Stats StatsConfig `yaml:"stats"`
	Nudge NudgeConfig `yaml:"nudge"`
	CORS  CORSConfig  `yaml:"cors"`
}

type OIDCProviderConfig struct {
	Id           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	IssuerURL    string   `yaml:"issuer_url"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// StorageConfig selects the server's store. Type decides which of the other
// fields apply; both backends take a file path.
type StorageConfig struct {
	Type string `yaml:"type"` // "bolt" (default) or "sqlite"
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file,omitempty"`
}

type StatsConfig struct {
	Thresholds stats.Thresholds `yaml:"thresholds"`
}

type NudgeConfig struct {
	Email    string `yaml:"email,omitempty"`
	From     string `yaml:"from,omitempty"`
	Schedule string `yaml:"schedule,omitempty"`
	// Hours is how close to the end of the day a reminder is still worth
	// sending.
	Hours int `yaml:"hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

func Default() *Config {
	return &Config{
		APIBaseURL:   "http://localhost:8080",
		ListenAddr:   ":8080",
		Storage:      StorageConfig{Type: StorageBolt, Path: "habits.db"},
		GuestDBPath:  "guest.db",
		WeekStartsOn: "sunday",
		Log:          LogConfig{Level: "info", Format: "text"},
		Stats:        StatsConfig{Thresholds: stats.DefaultThresholds()},
		Nudge:        NudgeConfig{Hours: 4},
	}
}

// Load reads the YAML file named by HABITS_CONFIG (default config.yaml) on
// top of the defaults, then applies environment overrides. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := getenv("HABITS_CONFIG", defaultConfigPath)
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing config file yields the defaults.
func LoadOptional() (*Config, error) {
	cfg, err := Load()
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	cfg = Default()
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Stats.Thresholds = cfg.Stats.Thresholds.WithDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getenv("HABITS_API_BASE", c.APIBaseURL)
	c.Storage.Path = getenv("HABITS_DB_PATH", c.Storage.Path)
	c.AuthToken = getenv("HABITS_AUTH_TOKEN", c.AuthToken)
	c.ListenAddr = getenv("HABITS_LISTEN_ADDR", c.ListenAddr)
	c.Nudge.Email = getenv("HABITS_NOTIFY_EMAIL", c.Nudge.Email)
	if v := os.Getenv("HABITS_AUTH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AuthEnabled = b
		}
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "", StorageBolt, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage type %q (want bolt or sqlite)", c.Storage.Type)
	}
	if _, err := parseWeekday(c.WeekStartsOn); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.AuthEnabled && len(c.OIDCProviders) == 0 {
		return errors.New("auth_enabled requires at least one oidc provider")
	}
	for _, p := range c.OIDCProviders {
		if p.Id == "" || p.IssuerURL == "" || p.ClientID == "" {
			return fmt.Errorf("oidc provider %q: id, issuer_url and client_id are required", p.Name)
		}
	}
	return nil
}

// WeekStart returns the configured first day of the week, Sunday or Monday.
func (c *Config) WeekStart() time.Weekday {
	d, _ := parseWeekday(c.WeekStartsOn)
	return d
}

// Location returns the timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Today is the current calendar day in the configured timezone.
func (c *Config) Today() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	}
	return time.Sunday, fmt.Errorf("week_starts_on must be sunday or monday, got %q", s)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
