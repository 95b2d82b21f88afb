package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver      string
	DSN         string
	ReplicaDSNs []string
	Attempts    int
	LogLevel    logger.LogLevel
}

type Store struct {
	Base   *gorm.DB
	driver string
}

func (s *Store) Driver() string { return s.driver }

// Open connects with retry, tunes the pool and registers read replicas.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 8
	}
	if driver == DriverSQLite {
		attempts = 1
	}
	level := cfg.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	base, err := openWithRetry(ctx, dialector(driver, cfg.DSN), level, attempts, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	sqlDB, err := base.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; keeps a :memory: database alive between calls
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(40)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if len(cfg.ReplicaDSNs) > 0 {
		if driver != DriverPostgres {
			return nil, fmt.Errorf("read replicas require the postgres driver")
		}
		var replicas []gorm.Dialector
		for _, dsn := range cfg.ReplicaDSNs {
			replicas = append(replicas, postgres.Open(dsn))
		}
		if err := base.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("dbresolver: %w", err)
		}
		slog.Info("db read replicas registered", "count", len(replicas))
	}

	return &Store{Base: base, driver: driver}, nil
}

func dialector(driver, dsn string) gorm.Dialector {
	if driver == DriverSQLite {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

// Transaction runs fn in a single transaction. Postgres uses read committed.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var opts *sql.TxOptions
	if s.driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return s.Base.WithContext(ctx).Transaction(fn, opts)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.Base.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.Base.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openWithRetry(ctx context.Context, d gorm.Dialector, level logger.LogLevel, attempts int, sleep time.Duration) (*gorm.DB, error) {
	var last error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(d, &gorm.Config{
			Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			}),
			TranslateError: true,
		})
		if err == nil {
			if s, e := db.DB(); e == nil && s != nil {
				if perr := pingWithTimeout(ctx, s, 2*time.Second); perr == nil {
					return db, nil
				} else {
					last = perr
				}
			} else {
				last = e
			}
		} else {
			last = err
		}
		if i == attempts {
			break
		}
		slog.Warn("db not ready, retrying", "attempt", i, "err", last)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
		if sleep < 8*time.Second {
			sleep *= 2
		}
	}
	return nil, last
}

func pingWithTimeout(ctx context.Context, sqlDB *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
