package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libralend/internal/dates"
	"libralend/internal/postgres/postgrestest"
)

func testFields() BookFields {
	return BookFields{
		Title:         "The Go Programming Language",
		Author:        "Donovan",
		Genre:         "Programming",
		PublishedDate: dates.New(2015, time.October, 26),
		TotalCopies:   5,
		BorrowLimit:   3,
		ReturnDays:    7,
	}
}

func seedLoan(t *testing.T, db *sql.DB, bookID int64, copies int, status string) {
	t.Helper()
	var customerID int64
	err := db.QueryRow(`
		INSERT INTO customers (username, first_name, last_name, email, password_hash, password_salt)
		VALUES ('reader', 'Ada', 'Lovelace', 'ada+' || $1::text || '@example.com', 'x', 'x')
		RETURNING customer_id
	`, status).Scan(&customerID)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO loans (reference, book_id, customer_id, loan_date, expected_return_date, copies_borrowed, status)
		VALUES (gen_random_uuid(), $1, $2, CURRENT_DATE, CURRENT_DATE + 7, $3, $4)
	`, bookID, customerID, copies, status)
	require.NoError(t, err)

	if status == "Borrowed" {
		_, err = db.Exec(`UPDATE books SET available_copies = available_copies - $1 WHERE book_id = $2`, copies, bookID)
		require.NoError(t, err)
	}
}

func TestAddBook(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.Equal(t, 5, book.TotalCopies)
	assert.Equal(t, 5, book.AvailableCopies, "every copy starts available")
	assert.False(t, book.Rating.Valid, "a new book has no rating")
	assert.False(t, book.IsDeleted)
}

func TestAddBookValidation(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	fields := testFields()
	fields.Title = ""
	_, err := svc.AddBook(ctx, fields)
	assert.Error(t, err)

	fields = testFields()
	fields.TotalCopies = 0
	_, err = svc.AddBook(ctx, fields)
	assert.Error(t, err)
}

func TestListBooksHidesDeleted(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	kept, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	removed, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)

	_, err = svc.DeleteBook(ctx, removed.ID)
	require.NoError(t, err)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, kept.ID, books[0].ID)
}

func TestGetBookIncludesDeleted(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)

	_, err = svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	_, err = svc.GetBook(ctx, book.ID+999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookShiftsAvailability(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	seedLoan(t, db, book.ID, 2, "Borrowed")

	fields := testFields()
	fields.TotalCopies = 8
	updated, err := svc.UpdateBook(ctx, book.ID, fields)
	require.NoError(t, err)

	assert.Equal(t, 8, updated.TotalCopies)
	assert.Equal(t, 6, updated.AvailableCopies, "growth lands on available")
}

func TestUpdateBookCapacityConflict(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	seedLoan(t, db, book.ID, 3, "Borrowed")

	fields := testFields()
	fields.TotalCopies = 2
	_, err = svc.UpdateBook(ctx, book.ID, fields)
	var conflictErr CapacityConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, 2, conflictErr.NewTotal)
	assert.Equal(t, 3, conflictErr.Borrowed)
}

func TestUpdateBookToExactlyBorrowed(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	seedLoan(t, db, book.ID, 3, "Borrowed")

	// Shrinking to exactly the borrowed count is allowed: available hits 0.
	fields := testFields()
	fields.TotalCopies = 3
	updated, err := svc.UpdateBook(ctx, book.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TotalCopies)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestDeleteBookWithActiveLoans(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	seedLoan(t, db, book.ID, 1, "Borrowed")

	_, err = svc.DeleteBook(ctx, book.ID)
	var activeErr ActiveLoansError
	require.ErrorAs(t, err, &activeErr)
	assert.Equal(t, []string{"Ada Lovelace"}, activeErr.Borrowers)
}

func TestDeleteBookWithSettledLoans(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	seedLoan(t, db, book.ID, 1, "Returned")

	deleted, err := svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, deleted.ID)
	assert.Equal(t, book.Title, deleted.Title)

	// Deleting again reports not found: the book is already gone.
	_, err = svc.DeleteBook(ctx, book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeletedBook(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, testFields())
	require.NoError(t, err)
	_, err = svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)

	_, err = svc.UpdateBook(ctx, book.ID, testFields())
	assert.ErrorIs(t, err, ErrNotFound)
}
