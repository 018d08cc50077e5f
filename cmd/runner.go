package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenr/internal/enrichment"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// A nil Config is loaded lazily from the --config flag (or ConfigPath) on first use.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, seedCommand, cronCommand, dedupeCommand, backfillCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the runner's config, reading it from the --config path on first use.
// A missing file yields the defaults; an invalid one is an error.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if cmd != nil && cmd.String("config") != "" {
		path = cmd.String("config")
	}
	if path == "" {
		path = "config.toml"
	}

	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}
	r.config = config
	return config, nil
}

// openStore opens the configured database and applies pending migrations.
func (r *Runner) openStore(ctx context.Context, config *shared.Config) (*sql.DB, error) {
	db, err := shared.OpenConfigured(config.Database)
	if err != nil {
		return nil, err
	}

	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, m := range applied {
		r.logger.Info("applied migration", "version", m.Version, "name", m.Name)
	}
	return db, nil
}

// clientOptions builds the options for one source, sharing the runner's HTTP client and logger.
func (r *Runner) clientOptions(config *shared.Config, source shared.SourceConfig) services.ClientOptions {
	opts := services.OptionsFromConfig(config, source)
	opts.HTTPClient = r.httpClient
	opts.Logger = r.logger
	return opts
}

// newResolver wires the enrichment chains. mb is shared with any MusicBrainz catalog client so
// both use the same gate.
func (r *Runner) newResolver(config *shared.Config, mb *services.MusicBrainz) *enrichment.Resolver {
	return enrichment.NewResolver(enrichment.Sources{
		Artwork:     services.NewArtwork(r.clientOptions(config, config.Sources.Artwork)),
		ITunes:      services.NewITunes(r.clientOptions(config, config.Sources.ITunes)),
		Releases:    mb,
		CoverArt:    services.NewCoverArt(r.clientOptions(config, config.Sources.CoverArt)),
		Annotations: mb,
		Wikipedia:   services.NewWikipedia(r.clientOptions(config, config.Sources.Wikipedia)),
	}, r.logger)
}

// watch prints progress messages until the returned stop function is called.
func (r *Runner) watch() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", ui.Help("%s", update.Message))
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
