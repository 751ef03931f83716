package favorites

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libralend/internal/postgres/postgrestest"
)

func seedCustomer(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`
		INSERT INTO customers (username, first_name, last_name, email, password_hash, password_salt)
		VALUES ('reader', 'Ada', 'Lovelace', 'ada@example.com', 'x', 'x')
		RETURNING customer_id
	`).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedBook(t *testing.T, db *sql.DB, title string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`
		INSERT INTO books (title, author, genre, published_date, total_copies, available_copies)
		VALUES ($1, 'Donovan', 'Programming', '2015-10-26', 5, 5)
		RETURNING book_id
	`, title).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestAddAndRemoveFavorite(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db)
	bookID := seedBook(t, db, "The Go Programming Language")

	fav, err := svc.Add(ctx, customerID, bookID)
	require.NoError(t, err)
	assert.NotZero(t, fav.ID)

	_, err = svc.Add(ctx, customerID, bookID)
	assert.ErrorIs(t, err, ErrAlreadyFavorited)

	require.NoError(t, svc.Remove(ctx, customerID, bookID))
	assert.ErrorIs(t, svc.Remove(ctx, customerID, bookID), ErrNotFound)
}

func TestToggle(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db)
	bookID := seedBook(t, db, "The Go Programming Language")

	favorited, err := svc.Toggle(ctx, customerID, bookID)
	require.NoError(t, err)
	assert.True(t, favorited)

	favorited, err = svc.Toggle(ctx, customerID, bookID)
	require.NoError(t, err)
	assert.False(t, favorited)

	ids, err := svc.BookIDs(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListForCustomerKeepsDeletedBooks(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db)
	keptID := seedBook(t, db, "A Tour of Go")
	removedID := seedBook(t, db, "The Go Programming Language")

	_, err := svc.Add(ctx, customerID, keptID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, customerID, removedID)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE books SET is_deleted = TRUE WHERE book_id = $1`, removedID)
	require.NoError(t, err)

	// Favorites survive soft deletion; the deleted flag travels with the row.
	favorites, err := svc.ListForCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)

	assert.Equal(t, "A Tour of Go", favorites[0].Title)
	assert.False(t, favorites[0].IsDeleted)
	assert.Equal(t, "The Go Programming Language", favorites[1].Title)
	assert.True(t, favorites[1].IsDeleted)
}

func TestBookIDs(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customerID := seedCustomer(t, db)
	first := seedBook(t, db, "A Tour of Go")
	second := seedBook(t, db, "The Go Programming Language")

	_, err := svc.Add(ctx, customerID, first)
	require.NoError(t, err)
	_, err = svc.Add(ctx, customerID, second)
	require.NoError(t, err)

	ids, err := svc.BookIDs(ctx, customerID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{first, second}, ids)
}
