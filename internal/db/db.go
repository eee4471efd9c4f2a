// Package db opens the Postgres connection pool and applies schema
// migrations on startup.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/Labubu-Matcha-Latte-Gang/bitsxLaMarato-backend-2025/config"
	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// Pool limits sized for a single-instance deployment.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxIdleTime = 2 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// PostgresURL renders the configured database as a connection URL. Going
// through net/url keeps passwords with reserved characters intact.
func PostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port),
		User:     url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Path:     cfg.Database.DBName,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	return u.String()
}

// Open connects to Postgres, configures the pool and verifies the
// connection with a bounded ping.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", PostgresURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxIdleTime(connMaxIdleTime)
	conn.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres at %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	return conn, nil
}
