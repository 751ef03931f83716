// internal/favorites/implementation.go
package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new favorites service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// Add inserts the (customer, book) pair; the unique constraint reports
// duplicates.
func (s *service) Add(ctx context.Context, customerID, bookID int64) (*Favorite, error) {
	fav := &Favorite{CustomerID: customerID, BookID: bookID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO favorites (customer_id, book_id)
		VALUES ($1, $2)
		RETURNING favorite_id, added_date
	`, customerID, bookID).Scan(&fav.ID, &fav.AddedDate)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadyFavorited
		}
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	return fav, nil
}

// Remove deletes the pair if present.
func (s *service) Remove(ctx context.Context, customerID, bookID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE customer_id = $1 AND book_id = $2
	`, customerID, bookID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Toggle adds the favorite, or removes it when it already exists.
func (s *service) Toggle(ctx context.Context, customerID, bookID int64) (bool, error) {
	_, err := s.Add(ctx, customerID, bookID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrAlreadyFavorited) {
		return false, err
	}

	if err := s.Remove(ctx, customerID, bookID); err != nil {
		return false, err
	}
	return false, nil
}

// ListForCustomer returns a customer's favorites with full book details,
// ordered by title.
func (s *service) ListForCustomer(ctx context.Context, customerID int64) ([]*FavoriteBook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.favorite_id, f.customer_id, f.book_id, f.added_date,
			b.title, b.author, b.genre, b.published_date,
			b.total_copies, b.available_copies, b.rating, b.is_deleted
		FROM favorites f
		JOIN books b ON f.book_id = b.book_id
		WHERE f.customer_id = $1
		ORDER BY b.title
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*FavoriteBook
	for rows.Next() {
		fb := &FavoriteBook{}
		if err := rows.Scan(&fb.ID, &fb.CustomerID, &fb.BookID, &fb.AddedDate,
			&fb.Title, &fb.Author, &fb.Genre, &fb.PublishedDate,
			&fb.TotalCopies, &fb.AvailableCopies, &fb.Rating, &fb.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, fb)
	}
	return favorites, rows.Err()
}

// BookIDs is the lightweight id-only view for the catalog page.
func (s *service) BookIDs(ctx context.Context, customerID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id FROM favorites WHERE customer_id = $1
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query favorite ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
