package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./listenr.db" {
			t.Errorf("expected database path ./listenr.db, got %s", config.Database.Path)
		}

		if config.Sources.MusicBrainz.MinInterval.Duration != 1100*time.Millisecond {
			t.Errorf("expected musicbrainz interval 1.1s, got %v", config.Sources.MusicBrainz.MinInterval)
		}

		if config.Retry.Attempts != 5 || config.Retry.BaseDelay.Duration != 5*time.Second {
			t.Errorf("expected 5 attempts from 5s, got %d from %v", config.Retry.Attempts, config.Retry.BaseDelay)
		}

		if config.Scheduler.MergeTimeout.Duration != 5*time.Minute {
			t.Errorf("expected merge timeout 5m, got %v", config.Scheduler.MergeTimeout)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for omitted keys", func(t *testing.T) {
		t.Setenv(EnvSpotifyClientID, "")
		t.Setenv(EnvSpotifyClientSecret, "")

		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[database]
path = "/custom/path.db"

[sources.itunes]
min_interval = "1s"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Sources.ITunes.MinInterval.Duration != time.Second {
			t.Errorf("expected itunes interval 1s, got %v", config.Sources.ITunes.MinInterval)
		}
		if config.Sources.ITunes.BaseURL != "https://itunes.apple.com" {
			t.Errorf("expected default itunes base url to survive, got %q", config.Sources.ITunes.BaseURL)
		}

		id, secret, err := config.SpotifyCredentials()
		if err != nil || id != "test_client_id" || secret != "test_secret" {
			t.Errorf("unexpected credentials %q %q %v", id, secret, err)
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		t.Setenv(EnvSpotifyClientID, "env-id")
		t.Setenv(EnvSpotifyClientSecret, "env-secret")

		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected default config, got %v", err)
		}
		if config.Credentials.Spotify.ClientID != "env-id" || config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("expected env credentials, got %+v", config.Credentials.Spotify)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		config := DefaultConfig()
		if _, _, err := config.SpotifyCredentials(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{name: "bad duration", body: "[sources.wikipedia]\nmin_interval = \"soon\"\n"},
			{name: "zero interval", body: "[sources.wikipedia]\nmin_interval = \"0s\"\n"},
			{name: "zero attempts", body: "[retry]\nattempts = 0\n"},
			{name: "unknown policy", body: "[dedupe]\nprefer = \"newest\"\n"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tt.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}
				if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
