package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
)

type dbConfig struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration
	pingTimeout     time.Duration
	retryAttempts   int
	retryDelay      time.Duration
}

type Option func(*dbConfig)

func WithConnectionPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(config *dbConfig) {
		config.maxOpenConns = maxOpen
		config.maxIdleConns = maxIdle
		config.connMaxLifetime = maxLifetime
	}
}

func WithConnectionIdleTime(idleTime time.Duration) Option {
	return func(config *dbConfig) {
		config.connMaxIdleTime = idleTime
	}
}

func WithPingTimeout(timeout time.Duration) Option {
	return func(config *dbConfig) {
		config.pingTimeout = timeout
	}
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(config *dbConfig) {
		config.retryAttempts = attempts
		config.retryDelay = delay
	}
}

func defaultConfig() dbConfig {
	return dbConfig{
		maxOpenConns:    25,
		maxIdleConns:    5,
		connMaxLifetime: time.Hour,
		connMaxIdleTime: time.Minute * 5,
		pingTimeout:     time.Second * 5,
		retryAttempts:   3,
		retryDelay:      time.Second,
	}
}

// Open connects to the database and pings it, retrying with a fixed delay.
// In-memory sqlite databases are pinned to a single connection since each
// connection would otherwise see its own empty database.
func Open(ctx context.Context, driver, dsn string, options ...Option) (*sql.DB, error) {
	config := defaultConfig()
	for _, option := range options {
		option(&config)
	}
	driver = NormalizeDriver(driver)

	var err error
	for attempt := 0; attempt <= config.retryAttempts; attempt++ {
		var db *sql.DB
		db, err = sql.Open(driver, dsn)
		if err == nil {
			configurePool(db, driver, dsn, config)

			pingCtx, cancel := context.WithTimeout(ctx, config.pingTimeout)
			err = db.PingContext(pingCtx)
			cancel()

			if err == nil {
				return db, nil
			}
			_ = db.Close()
		}

		if attempt < config.retryAttempts {
			select {
			case <-ctx.Done():
				return nil, ErrFailedToOpenDatabase.WithDetail("driver", driver).WithCause(ctx.Err())
			case <-time.After(config.retryDelay):
			}
		}
	}

	return nil, ErrFailedToOpenDatabase.WithDetail("driver", driver).WithCause(err)
}

func configurePool(db *sql.DB, driver, dsn string, config dbConfig) {
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	db.SetMaxOpenConns(config.maxOpenConns)
	db.SetMaxIdleConns(config.maxIdleConns)
	db.SetConnMaxLifetime(config.connMaxLifetime)
	db.SetConnMaxIdleTime(config.connMaxIdleTime)
}

// NormalizeDriver maps dialect aliases onto registered database/sql
// driver names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "mysql":
		return "mysql"
	case "postgres", "postgresql", "pgsql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return driver
	}
}

// OptionsFromConfig reads the optional pool and retry settings:
//
//	pool: { max_open_connections, max_idle_connections, conn_max_lifetime, conn_max_idle_time }
//	ping_timeout: 5s
//	retry: { attempts: 3, delay: 1s }
func OptionsFromConfig(cfg contracts.Config) []Option {
	var options []Option
	if cfg == nil {
		return options
	}

	if pool, ok := cfg.GetSub("pool"); ok {
		options = append(options,
			WithConnectionPool(
				pool.GetInt("max_open_connections", 25),
				pool.GetInt("max_idle_connections", 5),
				pool.GetDuration("conn_max_lifetime", time.Hour),
			),
			WithConnectionIdleTime(pool.GetDuration("conn_max_idle_time", 5*time.Minute)),
		)
	}

	options = append(options, WithPingTimeout(cfg.GetDuration("ping_timeout", 5*time.Second)))
	options = append(options, WithRetry(
		cfg.GetInt("retry.attempts", 3),
		cfg.GetDuration("retry.delay", time.Second),
	))

	return options
}
