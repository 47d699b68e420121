package migrations

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed sqlite/*.sql postgres/*.sql
var fs embed.FS

// Up applies every pending migration for the given driver ("sqlite" or "postgres").
func Up(driver, dsn string, logger logrus.FieldLogger) error {
	m, err := open(driver, dsn, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the last steps migrations.
func Down(driver, dsn string, steps int, logger logrus.FieldLogger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	m, err := open(driver, dsn, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version reports the currently applied schema version. A database without
// any applied migration reports version 0.
func Version(driver, dsn string) (uint, bool, error) {
	m, err := open(driver, dsn, nil)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrate(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return version, dirty, nil
}

func open(driver, dsn string, logger logrus.FieldLogger) (*migrate.Migrate, error) {
	dir, databaseURL, err := target(driver, dsn)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	if logger != nil {
		m.Log = migrateLogger{logger}
	}
	return m, nil
}

func target(driver, dsn string) (string, string, error) {
	switch driver {
	case "sqlite":
		path := dsn
		if i := strings.Index(path, "?"); i >= 0 {
			path = path[:i]
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", "", fmt.Errorf("create db dir: %w", err)
		}
		return "sqlite", "sqlite://" + dsn, nil
	case "postgres":
		for _, scheme := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, scheme) {
				return "postgres", "pgx5://" + strings.TrimPrefix(dsn, scheme), nil
			}
		}
		return "", "", fmt.Errorf("postgres migrations need a postgres:// URL dsn")
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func closeMigrate(m *migrate.Migrate) {
	_, _ = m.Close()
}

type migrateLogger struct {
	logger logrus.FieldLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(strings.TrimSpace(format), v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
