// Package database opens the catalog's MariaDB pool and Redis client and
// runs the schema migrations in db/migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/hainu/catalog/internal/config"
)

const pingTimeout = 5 * time.Second

// connectPolicy controls how long startup waits for the database.
type connectPolicy struct {
	attempts   int
	firstDelay time.Duration
	maxDelay   time.Duration
	sleep      func(time.Duration)
}

var defaultConnectPolicy = connectPolicy{
	attempts:   10,
	firstDelay: time.Second,
	maxDelay:   30 * time.Second,
	sleep:      time.Sleep,
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// NewMariaDB opens the pool described by cfg and waits until the server
// answers a ping. The pool is closed again if it never does.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitForDB(db, defaultConnectPolicy); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// waitForDB pings until it succeeds or p.attempts pings have failed,
// doubling the delay between pings up to p.maxDelay.
func waitForDB(db pinger, p connectPolicy) error {
	delay := p.firstDelay
	var err error
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt >= p.attempts {
			return fmt.Errorf("mariadb unreachable after %d pings: %w", attempt, err)
		}

		slog.Warn("waiting for mariadb",
			slog.Int("attempt", attempt),
			slog.Duration("next_ping_in", delay),
			slog.Any("error", err),
		)
		p.sleep(delay)
		delay = min(delay*2, p.maxDelay)
	}
}
