// internal/postgres/postgrestest/postgrestest.go
//
// Package postgrestest connects tests to a disposable PostgreSQL database.
// Tests are skipped when no server is reachable, so the suite passes on
// machines without Postgres.
package postgrestest

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"libralend/internal/postgres"
)

// Open connects using the PG* environment variables, applies the schema and
// truncates all tables. It skips the test when the server is unreachable.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("PGHOST", "localhost"),
		envOr("PGPORT", "5432"),
		envOr("PGUSER", "libralend"),
		envOr("PGPASSWORD", "libralend"),
		envOr("PGDATABASE", "libralend_test"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	_, err = db.Exec(`TRUNCATE TABLE favorites, loans, walk_in_customers, books, customers, staff RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
