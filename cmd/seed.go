package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/listenr/internal/repositories"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/shared"
	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

// singlesThreshold is the target above which single-track releases are skipped.
const singlesThreshold = 20

// SeedMusicBrainz ingests albums from the MusicBrainz release search.
func (r *Runner) SeedMusicBrainz(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := r.seedOptions(cmd, config)
	if err != nil {
		return err
	}
	opts.BatchSize = cmd.Int("batch")
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.Seed.Batch
	}
	opts.Filters = services.Query{
		Genre:   cmd.String("genre"),
		Country: cmd.String("country"),
		Artist:  cmd.String("artist"),
	}

	mb := services.NewMusicBrainz(r.clientOptions(config, config.Sources.MusicBrainz))
	return r.seed(ctx, config, mb, r.newResolver(config, mb), opts)
}

// SeedSpotify ingests albums from Spotify. Credentials are checked before anything is opened.
func (r *Runner) SeedSpotify(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	id, secret, err := config.SpotifyCredentials()
	if err != nil {
		return err
	}
	spotify, err := services.NewSpotify(r.clientOptions(config, config.Sources.Spotify), services.SpotifyCredentials{
		ClientID:     id,
		ClientSecret: secret,
		TokenURL:     config.Sources.Spotify.TokenURL,
	})
	if err != nil {
		return err
	}

	opts, err := r.seedOptions(cmd, config)
	if err != nil {
		return err
	}
	opts.Filters = services.Query{Text: cmd.String("query")}

	mb := services.NewMusicBrainz(r.clientOptions(config, config.Sources.MusicBrainz))
	return r.seed(ctx, config, spotify, r.newResolver(config, mb), opts)
}

func (r *Runner) seedOptions(cmd *cli.Command, config *shared.Config) (tasks.SeedOptions, error) {
	count := cmd.Int("count")
	if count == 0 {
		count = config.Seed.Count
	}
	if count <= 0 {
		return tasks.SeedOptions{}, fmt.Errorf("%w: --count must be positive, got %d", shared.ErrInvalidArgument, count)
	}

	return tasks.SeedOptions{
		Target:      count,
		Clear:       cmd.Bool("clear"),
		SkipSingles: count > singlesThreshold,
	}, nil
}

func (r *Runner) seed(ctx context.Context, config *shared.Config, source services.CatalogSource, enricher tasks.Enricher, opts tasks.SeedOptions) error {
	db, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	seeder := tasks.NewSeeder(source, repositories.NewAlbumRepository(db), enricher, r.logger)

	progress, stop := r.watch()
	opts.Progress = progress
	result, err := seeder.Run(ctx, opts)
	stop()
	if err != nil {
		return err
	}

	r.writePlainln("%s", ui.Title("Seeded from %s", result.Source))
	r.writePlain("%s\n", ui.SeedTable(result))

	switch {
	case result.SearchErr != nil:
		r.writePlain("%s\n", ui.Warn("search stopped early: %v", result.SearchErr))
	case result.Shortfall() > 0:
		r.writePlain("%s\n", ui.Warn("%d short of the target; the source ran out of new albums", result.Shortfall()))
	default:
		r.writePlain("%s\n", ui.OK("added %d albums", result.Seeded))
	}
	return nil
}
