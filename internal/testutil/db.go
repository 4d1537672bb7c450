// Package testutil holds helpers shared by Postgres-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/xxxsen/insuregenie/internal/config"
	"github.com/xxxsen/insuregenie/internal/db"
)

// OpenTestDB connects to the database named by TEST_DB_* and skips the test
// when TEST_DB_HOST is unset. Tables are truncated before returning.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	port := 5432
	if raw := os.Getenv("TEST_DB_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "insuregenie"),
		Password: envOr("TEST_DB_PASSWORD", "insuregenie_pass"),
		DBName:   envOr("TEST_DB_NAME", "insuregenie_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE assets, risk_assessments, embedding_cache`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
