package main

import (
	"context"

	"github.com/desertthunder/listenr/internal/formatter"
	"github.com/desertthunder/listenr/internal/repositories"
	"github.com/desertthunder/listenr/internal/tasks"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dedupe merges every group of albums sharing an identity key into its canonical album.
//
// With --dry-run the groups are only listed.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	prefer := cmd.String("prefer")
	if prefer == "" {
		prefer = config.Dedupe.Prefer
	}
	policy, err := tasks.PolicyByName(prefer)
	if err != nil {
		return err
	}

	db, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	progress, stop := r.watch()
	dedup := tasks.NewDeduplicator(repositories.NewAlbumRepository(db), policy, r.logger).WithProgress(progress)

	var report *tasks.MergeReport
	if cmd.Bool("dry-run") {
		groups, err := dedup.Plan(ctx)
		stop()
		if err != nil {
			return err
		}
		report = &tasks.MergeReport{Policy: policy, Groups: groups}
	} else {
		report, err = dedup.Run(ctx)
		stop()
		if err != nil {
			return err
		}
	}

	if len(report.Groups) == 0 {
		r.writePlain("%s\n", ui.OK("no duplicates found"))
	} else {
		r.writePlainln("%s", ui.Title("Duplicate groups (prefer %s)", policy))
		r.writePlain("%s\n", ui.MergeTable(report.Groups))

		if cmd.Bool("dry-run") {
			r.writePlain("%s\n", ui.Help("dry run: %d groups would be merged", len(report.Groups)))
		} else {
			r.writePlain("%s\n", ui.OK("merged %d groups, removed %d albums", report.Merged, report.AlbumsRemoved()))
			if report.Failed > 0 {
				r.writePlain("%s\n", ui.Warn("%d groups failed and were left untouched", report.Failed))
			}
		}
	}

	if path := cmd.String("report"); path != "" {
		if err := formatter.WriteMerge(report, path, format); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path, "format", format)
	}
	return nil
}
