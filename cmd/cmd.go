// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and database, then apply migrations",
		Action: r.Setup,
	}
}

// seedCommand ingests albums from a catalog source
func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Ingest albums from a catalog source",
		Commands: []*cli.Command{
			{
				Name:    "musicbrainz",
				Aliases: []string{"mb"},
				Usage:   "Seed from the MusicBrainz release search",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of new albums to add (defaults to seed.count)",
					},
					&cli.IntFlag{
						Name:    "batch",
						Aliases: []string{"b"},
						Usage:   "Search page size (defaults to seed.batch)",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete every album and track before seeding",
					},
					&cli.StringFlag{
						Name:    "genre",
						Aliases: []string{"g"},
						Usage:   "Genre or tag filter",
					},
					&cli.StringFlag{
						Name:    "country",
						Aliases: []string{"c"},
						Usage:   "Release country (ISO 3166-1 alpha-2)",
					},
					&cli.StringFlag{
						Name:    "artist",
						Aliases: []string{"a"},
						Usage:   "Artist name filter",
					},
				},
				Action: r.SeedMusicBrainz,
			},
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Seed from Spotify search or new releases",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of new albums to add (defaults to seed.count)",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete every album and track before seeding",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Album search text; new releases when empty",
					},
				},
				Action: r.SeedSpotify,
			},
		},
	}
}

// cronCommand runs the priority scheduler
func cronCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cron",
		Usage: "Seed every batch in the priority file while merging duplicates in the background",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "priority",
				Aliases: []string{"p"},
				Usage:   "Priority file (defaults to scheduler.priority_file)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the run summary to this path",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format (csv, markdown)",
				Value: "markdown",
			},
		},
		Action: r.Cron,
	}
}

func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dedupe",
		Aliases: []string{"merge"},
		Usage:   "Merge albums that share an identity key",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show duplicate groups without merging",
			},
			&cli.StringFlag{
				Name:  "prefer",
				Usage: "Canonical policy (cover, description); defaults to dedupe.prefer",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the merge report to this path",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format (csv, markdown)",
				Value: "markdown",
			},
		},
		Action: r.Dedupe,
	}
}

// backfillCommand fills gaps in already ingested albums
func backfillCommand(r *Runner) *cli.Command {
	dryRun := func() []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would change without writing",
			},
		}
	}

	return &cli.Command{
		Name:  "backfill",
		Usage: "Fill missing covers, descriptions and diary entries",
		Commands: []*cli.Command{
			{
				Name:   "covers",
				Usage:  "Resolve covers for albums without one",
				Flags:  dryRun(),
				Action: r.BackfillCovers,
			},
			{
				Name:   "descriptions",
				Usage:  "Resolve descriptions for albums without one",
				Flags:  dryRun(),
				Action: r.BackfillDescriptions,
			},
			{
				Name:   "diary",
				Usage:  "Create diary entries for reviews that have none",
				Flags:  dryRun(),
				Action: r.BackfillDiary,
			},
		},
	}
}
