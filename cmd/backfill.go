package main

import (
	"context"

	"github.com/desertthunder/listenr/internal/repositories"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

type backfillFunc func(b *tasks.Backfiller, ctx context.Context, dryRun bool) (*tasks.BackfillResult, error)

// BackfillCovers resolves covers for albums that have none.
func (r *Runner) BackfillCovers(ctx context.Context, cmd *cli.Command) error {
	return r.backfill(ctx, cmd, (*tasks.Backfiller).Covers)
}

// BackfillDescriptions resolves descriptions for albums that have none.
func (r *Runner) BackfillDescriptions(ctx context.Context, cmd *cli.Command) error {
	return r.backfill(ctx, cmd, (*tasks.Backfiller).Descriptions)
}

// BackfillDiary creates a diary entry for every review that lacks one.
func (r *Runner) BackfillDiary(ctx context.Context, cmd *cli.Command) error {
	return r.backfill(ctx, cmd, (*tasks.Backfiller).Diary)
}

func (r *Runner) backfill(ctx context.Context, cmd *cli.Command, run backfillFunc) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	mb := services.NewMusicBrainz(r.clientOptions(config, config.Sources.MusicBrainz))
	progress, stop := r.watch()
	backfiller := tasks.NewBackfiller(
		repositories.NewAlbumRepository(db),
		repositories.NewDiaryRepository(db),
		r.newResolver(config, mb),
		r.logger,
	).WithProgress(progress)

	result, err := run(backfiller, ctx, cmd.Bool("dry-run"))
	stop()
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.BackfillTable(result))
	if result.DryRun {
		r.writePlain("%s\n", ui.Help("dry run: nothing was written"))
	}
	return nil
}
