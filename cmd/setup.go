package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/listenr/internal/shared"
	"github.com/desertthunder/listenr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file from the template when none exists, then creates the database and
// applies migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("%s\n", ui.OK("wrote %s", configPath))
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s\n", ui.OK("database ready at %s", config.Database.Path))
}
