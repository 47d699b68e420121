package main

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"blog-backend/internal/repository/migrations"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Applies all pending migrations to the configured database. Creates the sqlite database file if it does not exist.`,
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if err := migrations.Up(cfg.Database.Driver, cfg.Database.DSN, logger); err != nil {
				return err
			}
			return logVersion(cfg.Database.Driver, cfg.Database.DSN, logger)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migrations",
		Description: `Rolls back the last applied migrations`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "steps",
				Usage: "Number of migrations to roll back",
				Value: 1,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, logger, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if err := migrations.Down(cfg.Database.Driver, cfg.Database.DSN, ctx.Int("steps"), logger); err != nil {
				return err
			}
			return logVersion(cfg.Database.Driver, cfg.Database.DSN, logger)
		},
	}
}

func logVersion(driver, dsn string, logger *logrus.Logger) error {
	version, dirty, err := migrations.Version(driver, dsn)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"driver":  driver,
		"version": version,
		"dirty":   dirty,
	}).Info("schema version")
	return nil
}
