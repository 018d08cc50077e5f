package main

import (
	"context"

	"github.com/desertthunder/listenr/internal/formatter"
	"github.com/desertthunder/listenr/internal/repositories"
	"github.com/desertthunder/listenr/internal/services"
	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Cron seeds every batch in the priority file while a merge pass runs in the background.
func (r *Runner) Cron(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	policy, err := tasks.PolicyByName(config.Dedupe.Prefer)
	if err != nil {
		return err
	}

	priority := cmd.String("priority")
	if priority == "" {
		priority = config.Scheduler.PriorityFile
	}

	db, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	albums := repositories.NewAlbumRepository(db)
	mb := services.NewMusicBrainz(r.clientOptions(config, config.Sources.MusicBrainz))
	seeder := tasks.NewSeeder(mb, albums, r.newResolver(config, mb), r.logger)
	merger := tasks.NewDeduplicator(albums, policy, r.logger)

	progress, stop := r.watch()
	scheduler := tasks.NewScheduler(seeder, merger, tasks.SchedulerOptions{
		LockFile:     config.Scheduler.LockFile,
		MergeTimeout: config.Scheduler.MergeTimeout.Duration,
		BatchSize:    config.Seed.Batch,
		Progress:     progress,
	}, r.logger)

	summary, err := scheduler.RunAll(ctx, priority)
	stop()
	if err != nil {
		return err
	}

	if summary.UsedDefaults {
		r.writePlain("%s\n", ui.Warn("no usable priority file at %s, ran the default batches", priority))
	}
	r.writePlainln("%s", ui.Title("Seed run"))
	r.writePlain("%s\n", ui.ScheduleTable(summary))

	if summary.MergeErr != nil {
		r.writePlain("%s\n", ui.Warn("merge pass: %v", summary.MergeErr))
	} else {
		r.writePlain("%s\n", ui.OK("merge pass removed %d albums", summary.Merge.AlbumsRemoved()))
	}

	if path := cmd.String("report"); path != "" {
		if err := formatter.WriteSchedule(summary, path, format); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path, "format", format)
	}
	return nil
}
