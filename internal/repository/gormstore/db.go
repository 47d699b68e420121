package gormstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas are added to every sqlite DSN unless the DSN already sets
// the same pragma.
var sqlitePragmas = []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)"}

const sqliteTimeFormat = "sqlite"

// Options configures how the database handle is opened.
type Options struct {
	Driver         string
	DSN            string
	MaxOpenConns   int
	ConnectTimeout time.Duration
	Logger         *logrus.Logger
}

// Open opens a GORM handle for sqlite (modernc driver) or postgres and waits
// until the database answers a ping.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger: logger.New(opts.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		// sqlite only supports one writer at a time
		maxOpen = 1
		if opts.Driver == "postgres" {
			maxOpen = 10
		}
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := ping(ctx, db, opts); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		path, _, _ := strings.Cut(dsn, "?")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		full, err := withSQLitePragmas(dsn)
		if err != nil {
			return nil, err
		}
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: full}), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// withSQLitePragmas appends each default pragma and the time format that
// dsn does not set itself.
func withSQLitePragmas(dsn string) (string, error) {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn: %w", err)
	}

	set := lo.Map(query["_pragma"], func(p string, _ int) string {
		name, _, _ := strings.Cut(p, "(")
		return strings.ToLower(strings.TrimSpace(name))
	})

	extra := make([]string, 0, len(sqlitePragmas)+1)
	for _, pragma := range sqlitePragmas {
		name, _, _ := strings.Cut(pragma, "(")
		if !lo.Contains(set, name) {
			extra = append(extra, "_pragma="+pragma)
		}
	}
	if !query.Has("_time_format") {
		extra = append(extra, "_time_format="+sqliteTimeFormat)
	}
	if len(extra) == 0 {
		return dsn, nil
	}

	if rawQuery != "" {
		extra = append([]string{rawQuery}, extra...)
	}
	return path + "?" + strings.Join(extra, "&"), nil
}

func ping(ctx context.Context, db *gorm.DB, opts Options) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = opts.ConnectTimeout
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = 30 * time.Second
	}

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := sqlDB.PingContext(ctx); err != nil {
			opts.Logger.WithFields(logrus.Fields{
				"driver":  opts.Driver,
				"attempt": attempt,
			}).Warnf("database not reachable: %v", err)
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("ping %s db: %w", opts.Driver, err)
	}
	return nil
}
