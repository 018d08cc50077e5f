package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
	tu "github.com/desertthunder/listenr/internal/testing"
)

const searchPage = `{"count": 2, "offset": 0, "releases": [
  {"id": "mb-1", "title": "The Big Day", "date": "2019-07-26", "artist-credit": [{"name": "Chance the Rapper"}],
   "release-group": {"id": "rg-1", "primary-type": "Album"}},
  {"id": "mb-2", "title": "Sometimes I Might Be Introvert", "date": "2021-09-03", "artist-credit": [{"name": "Little Simz"}],
   "release-group": {"id": "rg-2", "primary-type": "Album"}}
]}`

const releaseTemplate = `{"id": %q, "title": %q, "date": %q, "artist-credit": [{"name": %q}],
  "release-group": {"id": %q, "primary-type": "Album"},
  "label-info": [{"label": {"name": "Independent"}}],
  "media": [{"tracks": [
    {"title": "Intro", "length": 95000},
    {"title": "Second", "recording": {"length": 185000}},
    {"title": "", "length": 200000}
  ]}]}`

// newCatalogServer serves MusicBrainz search, lookups and genres. Every other source lives under
// its own prefix and gets 404.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	releases := map[string]string{
		"/release/mb-1": fmt.Sprintf(releaseTemplate, "mb-1", "The Big Day", "2019-07-26", "Chance the Rapper", "rg-1"),
		"/release/mb-2": fmt.Sprintf(releaseTemplate, "mb-2", "Sometimes I Might Be Introvert", "2021-09-03", "Little Simz", "rg-2"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/release":
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(searchPage))
				return
			}
			w.Write([]byte(`{"count": 2, "offset": 25, "releases": []}`))
		case releases[r.URL.Path] != "":
			w.Write([]byte(releases[r.URL.Path]))
		case r.URL.Path == "/annotation":
			w.Write([]byte(`{"annotations": [{"entity": "rg-1", "text": "A '''celebration''' record."}]}`))
		case strings.HasPrefix(r.URL.Path, "/release-group/"):
			w.Write([]byte(`{"id": "rg", "genres": [{"name": "hip hop", "count": 4}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// writeTestConfig points every source at baseURL and keeps all files inside dir.
func writeTestConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	body := fmt.Sprintf(`user_agent = "listenr-test/0.1"

[database]
path = %q

[retry]
attempts = 1
base_delay = "1ms"

[scheduler]
priority_file = %q
lock_file = %q
merge_timeout = "10s"

[sources.musicbrainz]
base_url = %q
min_interval = "1ms"

[sources.coverart]
base_url = "%s/caa"
min_interval = "1ms"

[sources.itunes]
base_url = "%s/itunes"
min_interval = "1ms"

[sources.wikipedia]
base_url = "%s/wiki"
min_interval = "1ms"

[sources.artwork]
base_url = "%s/artwork/"
min_interval = "1ms"

[sources.spotify]
base_url = "%s/spotify"
token_url = "%s/spotify/token"
min_interval = "1ms"
`,
		filepath.Join(dir, "listenr.db"),
		filepath.Join(dir, "seed_priority.txt"),
		filepath.Join(dir, "listenr.lock"),
		baseURL, baseURL, baseURL, baseURL, baseURL, baseURL, baseURL,
	)

	path := filepath.Join(dir, "config.toml")
	tu.MustWriteFile(t, path, body)
	return path
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	return newApp(r).Run(context.Background(), append([]string{"listenr"}, args...))
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewDiscardLogger()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config != nil {
				t.Error("expected config to load lazily")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected default output to be os.Stdout")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout == 0 {
				t.Error("expected default httpClient with a timeout")
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("falls back to defaults for a missing file", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})

			config, err := runner.loadConfig(nil)
			if err != nil {
				t.Fatalf("expected defaults, got %v", err)
			}
			if config.Database.Path != shared.DefaultConfig().Database.Path {
				t.Errorf("expected default database path, got %s", config.Database.Path)
			}
			if again, _ := runner.loadConfig(nil); again != config {
				t.Error("expected the loaded config to be reused")
			}
		})

		t.Run("rejects an invalid file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, path, "[retry]\nattempts = 0\n")

			runner := NewRunner(RunnerOpts{ConfigPath: path})
			if _, err := runner.loadConfig(nil); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("newResolver shares the MusicBrainz gate", func(t *testing.T) {
		server := newCatalogServer(t)
		runner := NewRunner(RunnerOpts{
			ConfigPath: writeTestConfig(t, t.TempDir(), server.URL),
			Logger:     shared.NewDiscardLogger(),
		})
		config, err := runner.loadConfig(nil)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		clock := tu.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		opts := runner.clientOptions(config, config.Sources.MusicBrainz)
		opts.MinInterval = time.Second
		opts.Clock = clock
		mb := services.NewMusicBrainz(opts)
		resolver := runner.newResolver(config, mb)

		ctx := context.Background()
		if _, err := mb.Search(ctx, services.Query{}, 0, 25); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if desc := resolver.ResolveDescription(ctx, "The Big Day", "Chance the Rapper", "rg-1"); !desc.Found() {
			t.Fatalf("expected the annotation to be used, got %+v", desc)
		}

		sleeps := clock.Sleeps()
		if len(sleeps) != 1 || sleeps[0] < time.Second {
			t.Errorf("expected the annotation lookup to wait out the search, got %v", sleeps)
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s\n", "World"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello World\n" {
				t.Errorf("expected 'Hello World\\n', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Next steps:"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Error("expected error for write failure")
			}
			if err := runner.writePlainln("test"); err == nil {
				t.Error("expected error for write failure")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for _, cmd := range commands {
			names = append(names, cmd.Name)
		}
		want := []string{"setup", "seed", "cron", "dedupe", "backfill"}
		if !slices.Equal(names, want) {
			t.Errorf("expected commands %v, got %v", want, names)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("setup creates config and database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: output})

		if err := run(t, runner, "--config", "config.toml", "setup"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(dir, "listenr.db"))
		if n := countRows(t, filepath.Join(dir, "listenr.db"), "schema_migrations"); n == 0 {
			t.Error("expected migrations to be recorded")
		}
		if !strings.Contains(output.String(), "database ready") {
			t.Errorf("expected a confirmation, got %q", output.String())
		}

		if err := run(t, runner, "--config", "config.toml", "setup"); err != nil {
			t.Errorf("second setup should be a no-op, got %v", err)
		}
	})

	t.Run("seed musicbrainz end to end", func(t *testing.T) {
		dir := t.TempDir()
		server := newCatalogServer(t)
		configPath := writeTestConfig(t, dir, server.URL)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: output})

		if err := run(t, runner, "--config", configPath, "seed", "musicbrainz", "-n", "2", "-g", "hip hop"); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		dbPath := filepath.Join(dir, "listenr.db")
		if n := countRows(t, dbPath, "albums"); n != 2 {
			t.Errorf("expected 2 albums, got %d", n)
		}
		if n := countRows(t, dbPath, "tracks"); n != 6 {
			t.Errorf("expected 6 tracks, got %d", n)
		}
		if !strings.Contains(output.String(), "added 2 albums") {
			t.Errorf("expected a success line, got %q", output.String())
		}

		output.Reset()
		if err := run(t, runner, "--config", configPath, "seed", "musicbrainz", "-n", "2"); err != nil {
			t.Fatalf("second seed failed: %v", err)
		}
		if n := countRows(t, dbPath, "albums"); n != 2 {
			t.Errorf("known albums must not be added again, got %d", n)
		}
		if !strings.Contains(output.String(), "short of the target") {
			t.Errorf("expected a shortfall warning, got %q", output.String())
		}
	})

	t.Run("cron runs the priority file and writes a report", func(t *testing.T) {
		dir := t.TempDir()
		server := newCatalogServer(t)
		configPath := writeTestConfig(t, dir, server.URL)
		tu.MustWriteFile(t, filepath.Join(dir, "seed_priority.txt"), "# genre, country, artist, count\nhip hop, US, -, 2\n")
		reportPath := filepath.Join(dir, "report.csv")

		runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: &bytes.Buffer{}})

		if err := run(t, runner, "--config", configPath, "cron", "--report", reportPath, "--format", "csv"); err != nil {
			t.Fatalf("cron failed: %v", err)
		}

		if n := countRows(t, filepath.Join(dir, "listenr.db"), "albums"); n != 2 {
			t.Errorf("expected 2 albums, got %d", n)
		}
		report := tu.MustReadFile(t, reportPath)
		if !strings.HasPrefix(report, "Genre,Country,Artist,Target,Seeded,Error") {
			t.Errorf("unexpected report header: %q", report)
		}
		if !strings.Contains(report, "hip hop,US,") {
			t.Errorf("expected the batch row, got %q", report)
		}
	})

	t.Run("dedupe dry run on an empty catalog", func(t *testing.T) {
		dir := t.TempDir()
		configPath := writeTestConfig(t, dir, "http://127.0.0.1:0")
		reportPath := filepath.Join(dir, "merge.md")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: output})

		if err := run(t, runner, "--config", configPath, "dedupe", "--dry-run", "--report", reportPath); err != nil {
			t.Fatalf("dedupe failed: %v", err)
		}
		if !strings.Contains(output.String(), "no duplicates found") {
			t.Errorf("unexpected output %q", output.String())
		}
		if report := tu.MustReadFile(t, reportPath); !strings.HasPrefix(report, "# Duplicate merge") {
			t.Errorf("unexpected report %q", report)
		}
	})

	t.Run("backfill diary dry run", func(t *testing.T) {
		dir := t.TempDir()
		configPath := writeTestConfig(t, dir, "http://127.0.0.1:0")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: output})

		if err := run(t, runner, "--config", configPath, "backfill", "diary", "--dry-run"); err != nil {
			t.Fatalf("backfill failed: %v", err)
		}
		if !strings.Contains(output.String(), "nothing was written") {
			t.Errorf("expected a dry-run note, got %q", output.String())
		}
	})

	t.Run("configuration errors stop before any work", func(t *testing.T) {
		t.Setenv(shared.EnvSpotifyClientID, "")
		t.Setenv(shared.EnvSpotifyClientSecret, "")

		tc := []struct {
			name string
			args []string
			want error
		}{
			{name: "spotify without credentials", args: []string{"seed", "spotify", "-n", "5"}, want: shared.ErrMissingCredentials},
			{name: "negative count", args: []string{"seed", "musicbrainz", "--count=-1"}, want: shared.ErrInvalidArgument},
			{name: "unknown report format", args: []string{"dedupe", "--format", "xml"}, want: shared.ErrInvalidArgument},
			{name: "unknown policy", args: []string{"dedupe", "--prefer", "newest"}, want: shared.ErrInvalidArgument},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				configPath := writeTestConfig(t, dir, "http://127.0.0.1:0")
				runner := NewRunner(RunnerOpts{Logger: shared.NewDiscardLogger(), Output: &bytes.Buffer{}})

				err := run(t, runner, append([]string{"--config", configPath}, tt.args...)...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if _, err := os.Stat(filepath.Join(dir, "listenr.db")); !os.IsNotExist(err) {
					t.Error("expected no database to be created")
				}
			})
		}
	})
}
