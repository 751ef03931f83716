// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const bookColumns = `book_id, title, author, genre, published_date, total_copies,
	available_copies, borrow_limit, return_days, rating, is_deleted, created_at, updated_at`

// service implements the Service interface.
type service struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("libralend/catalog"),
	}
}

// AddBook inserts a new title; every copy starts available.
func (s *service) AddBook(ctx context.Context, fields BookFields) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book",
		trace.WithAttributes(attribute.Int("book.total_copies", fields.TotalCopies)),
	)
	defer span.End()

	if err := fields.validate(); err != nil {
		return nil, err
	}

	book := &Book{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO books (title, author, genre, published_date, total_copies, available_copies, borrow_limit, return_days)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7)
		RETURNING `+bookColumns,
		fields.Title, fields.Author, fields.Genre, fields.PublishedDate,
		fields.TotalCopies, fields.BorrowLimit, fields.ReturnDays,
	).Scan(scanTargets(book)...)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	span.SetAttributes(attribute.Int64("book.id", book.ID))
	return book, nil
}

// ListBooks returns the catalog without soft-deleted titles.
func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE NOT is_deleted
		ORDER BY book_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book := &Book{}
		if err := rows.Scan(scanTargets(book)...); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// GetBook fetches a single book by id. Soft-deleted books are returned with
// is_deleted set so callers can detect deletion.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	book := &Book{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE book_id = $1
	`, id).Scan(scanTargets(book)...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return book, nil
}

// UpdateBook overwrites the editable fields and shifts available_copies by
// the change in total_copies. The book row stays locked for the whole
// transaction so the currently-borrowed count cannot move under the check.
func (s *service) UpdateBook(ctx context.Context, id int64, fields BookFields) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.update_book",
		trace.WithAttributes(
			attribute.Int64("book.id", id),
			attribute.Int("book.new_total", fields.TotalCopies),
		),
	)
	defer span.End()

	if err := fields.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldTotal, oldAvailable int
	var deleted bool
	err = tx.QueryRowContext(ctx, `
		SELECT total_copies, available_copies, is_deleted
		FROM books
		WHERE book_id = $1
		FOR UPDATE
	`, id).Scan(&oldTotal, &oldAvailable, &deleted)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}
	if deleted {
		return nil, ErrNotFound
	}

	borrowed := oldTotal - oldAvailable
	if fields.TotalCopies-borrowed < 0 {
		span.SetAttributes(attribute.Bool("capacity.conflict", true))
		return nil, CapacityConflictError{NewTotal: fields.TotalCopies, Borrowed: borrowed}
	}

	book := &Book{}
	err = tx.QueryRowContext(ctx, `
		UPDATE books
		SET title = $1,
		    author = $2,
		    genre = $3,
		    published_date = $4,
		    total_copies = $5,
		    available_copies = available_copies + ($5 - total_copies),
		    borrow_limit = $6,
		    return_days = $7,
		    updated_at = NOW()
		WHERE book_id = $8
		RETURNING `+bookColumns,
		fields.Title, fields.Author, fields.Genre, fields.PublishedDate,
		fields.TotalCopies, fields.BorrowLimit, fields.ReturnDays, id,
	).Scan(scanTargets(book)...)
	if err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return book, nil
}

// DeleteBook soft-deletes a book. The active-loan count is read under the
// same row lock that borrow transactions take, so a concurrent borrow cannot
// slip past the check.
func (s *service) DeleteBook(ctx context.Context, id int64) (*DeletedBook, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.delete_book",
		trace.WithAttributes(attribute.Int64("book.id", id)),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var title string
	var deleted bool
	err = tx.QueryRowContext(ctx, `
		SELECT title, is_deleted
		FROM books
		WHERE book_id = $1
		FOR UPDATE
	`, id).Scan(&title, &deleted)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}
	if deleted {
		return nil, ErrNotFound
	}

	borrowers, err := activeBorrowers(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if len(borrowers) > 0 {
		span.SetAttributes(attribute.Int("active.loans", len(borrowers)))
		return nil, ActiveLoansError{Borrowers: borrowers}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET is_deleted = TRUE, updated_at = NOW() WHERE book_id = $1
	`, id); err != nil {
		return nil, fmt.Errorf("soft delete book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &DeletedBook{ID: id, Title: title}, nil
}

// activeBorrowers lists the display names behind every Borrowed loan of a book.
func activeBorrowers(ctx context.Context, tx *sql.Tx, bookID int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT CASE
			WHEN l.customer_id IS NOT NULL
				THEN COALESCE(NULLIF(TRIM(c.first_name || ' ' || c.last_name), ''), c.username)
			ELSE w.first_name || ' ' || w.last_name
		END
		FROM loans l
		LEFT JOIN customers c ON l.customer_id = c.customer_id
		LEFT JOIN walk_in_customers w ON l.walk_in_customer_id = w.walk_in_customer_id
		WHERE l.book_id = $1 AND l.status = 'Borrowed'
		ORDER BY l.loan_id
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query active borrowers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan borrower: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanTargets(b *Book) []interface{} {
	return []interface{}{
		&b.ID, &b.Title, &b.Author, &b.Genre, &b.PublishedDate, &b.TotalCopies,
		&b.AvailableCopies, &b.BorrowLimit, &b.ReturnDays, &b.Rating,
		&b.IsDeleted, &b.CreatedAt, &b.UpdatedAt,
	}
}
