// internal/postgres/postgres.go
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schemaVersion = 1

// Migrate applies the schema inside a single transaction. Statements are
// idempotent so repeated startups are safe.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			customer_id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			password_salt TEXT NOT NULL,
			phone_number TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			staff_id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			password_salt TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			book_id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			genre TEXT NOT NULL,
			published_date DATE NOT NULL,
			total_copies INT NOT NULL CHECK (total_copies >= 1),
			available_copies INT NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
			borrow_limit INT NOT NULL DEFAULT 3 CHECK (borrow_limit >= 1),
			return_days INT NOT NULL DEFAULT 5 CHECK (return_days >= 1),
			rating NUMERIC(2,1),
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS walk_in_customers (
			walk_in_customer_id BIGSERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			email TEXT,
			address TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS loans (
			loan_id BIGSERIAL PRIMARY KEY,
			reference UUID NOT NULL UNIQUE,
			book_id BIGINT NOT NULL REFERENCES books(book_id),
			customer_id BIGINT REFERENCES customers(customer_id),
			walk_in_customer_id BIGINT REFERENCES walk_in_customers(walk_in_customer_id),
			loan_date DATE NOT NULL,
			expected_return_date DATE NOT NULL,
			return_date DATE,
			copies_borrowed INT NOT NULL CHECK (copies_borrowed >= 1),
			status TEXT NOT NULL DEFAULT 'Borrowed' CHECK (status IN ('Borrowed', 'Returned')),
			fine_amount NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (fine_amount >= 0),
			rating INT CHECK (rating BETWEEN 1 AND 5),
			book_condition TEXT CHECK (book_condition IN ('Excellent', 'Good', 'Fair', 'Poor', 'Damaged')),
			loan_type TEXT NOT NULL DEFAULT 'Standard' CHECK (loan_type IN ('Standard', 'Walk-in')),
			contact_number TEXT,
			CHECK ((customer_id IS NULL) <> (walk_in_customer_id IS NULL))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_book_status ON loans (book_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans (customer_id)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			favorite_id BIGSERIAL PRIMARY KEY,
			customer_id BIGINT NOT NULL REFERENCES customers(customer_id),
			book_id BIGINT NOT NULL REFERENCES books(book_id),
			added_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (customer_id, book_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, fmt.Sprint(schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}
