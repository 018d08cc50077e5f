package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	UserAgent   string            `toml:"user_agent"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Retry       RetryConfig       `toml:"retry"`
	Seed        SeedConfig        `toml:"seed"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Dedupe      DedupeConfig      `toml:"dedupe"`
	Sources     SourcesConfig     `toml:"sources"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify client-credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RetryConfig controls backoff for connection-level failures.
type RetryConfig struct {
	Attempts  int      `toml:"attempts"`
	BaseDelay Duration `toml:"base_delay"`
}

// SeedConfig holds ingestion defaults used when flags are omitted.
type SeedConfig struct {
	Count int `toml:"count"`
	Batch int `toml:"batch"`
}

// SchedulerConfig configures the priority scheduler.
type SchedulerConfig struct {
	PriorityFile string   `toml:"priority_file"`
	LockFile     string   `toml:"lock_file"`
	MergeTimeout Duration `toml:"merge_timeout"`
}

// DedupeConfig selects the canonical policy used by merge passes.
type DedupeConfig struct {
	Prefer string `toml:"prefer"`
}

// SourceConfig is the endpoint and pacing of a single external source.
type SourceConfig struct {
	BaseURL     string   `toml:"base_url"`
	TokenURL    string   `toml:"token_url"`
	MinInterval Duration `toml:"min_interval"`
}

type SourcesConfig struct {
	MusicBrainz SourceConfig `toml:"musicbrainz"`
	CoverArt    SourceConfig `toml:"coverart"`
	ITunes      SourceConfig `toml:"itunes"`
	Wikipedia   SourceConfig `toml:"wikipedia"`
	Artwork     SourceConfig `toml:"artwork"`
	Spotify     SourceConfig `toml:"spotify"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "1.1s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their embedded defaults, and Spotify credentials
// in the environment override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault behaves like [LoadConfig] but falls back to [DefaultConfig] when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		config = DefaultConfig()
		config.ApplyEnv()
		return config, nil
	}
	return config, err
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays credentials from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvSpotifyClientID); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv(EnvSpotifyClientSecret); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
}

// Validate reports the first setting that would make the pipeline unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("%w: user_agent is required", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("%w: retry.attempts must be at least 1", ErrInvalidConfig)
	}

	sources := map[string]SourceConfig{
		"musicbrainz": c.Sources.MusicBrainz,
		"coverart":    c.Sources.CoverArt,
		"itunes":      c.Sources.ITunes,
		"wikipedia":   c.Sources.Wikipedia,
		"artwork":     c.Sources.Artwork,
		"spotify":     c.Sources.Spotify,
	}
	for name, s := range sources {
		if s.BaseURL == "" {
			return fmt.Errorf("%w: sources.%s.base_url is required", ErrInvalidConfig, name)
		}
		if s.MinInterval.Duration <= 0 {
			return fmt.Errorf("%w: sources.%s.min_interval must be positive", ErrInvalidConfig, name)
		}
	}

	switch c.Dedupe.Prefer {
	case "", "cover", "description":
	default:
		return fmt.Errorf("%w: dedupe.prefer must be cover or description, got %q", ErrInvalidConfig, c.Dedupe.Prefer)
	}
	return nil
}

// SpotifyCredentials returns the configured client id and secret or [ErrMissingCredentials].
func (c *Config) SpotifyCredentials() (string, string, error) {
	id, secret := c.Credentials.Spotify.ClientID, c.Credentials.Spotify.ClientSecret
	if id == "" || secret == "" {
		return "", "", fmt.Errorf("%w: set %s and %s", ErrMissingCredentials, EnvSpotifyClientID, EnvSpotifyClientSecret)
	}
	return id, secret, nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
