package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"blog-backend/internal/config"
)

func main() {
	if err := rootApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func rootApp() *cli.App {
	return &cli.App{
		Name:  "blog",
		Usage: "A small blogging backend",
		Description: `Serves a JSON API to create, publish, view and search posts.

		Settings are read from environment variables prefixed with BLOG_,
		an optional .env file and an optional config file, e.g.:

		database.dsn => BLOG_DATABASE_DSN=data/blog.db
		server.addr  => BLOG_SERVER_ADDR=0.0.0.0:3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a config file (yaml, toml or json)",
				EnvVars: []string{"BLOG_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			seedCmd(),
			exportCmd(),
			exportsCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return serve(ctx)
		},
	}
}

// loadConfig loads configuration and builds the process logger from it.
func loadConfig(ctx *cli.Context) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}
