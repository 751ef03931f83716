// internal/favorites/domain.go
package favorites

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"libralend/internal/dates"
)

var (
	ErrAlreadyFavorited = errors.New("book is already in favorites")
	ErrNotFound         = errors.New("favorite not found")
)

// Favorite is one (customer, book) membership.
type Favorite struct {
	ID         int64     `json:"favorite_id"`
	CustomerID int64     `json:"customer_id"`
	BookID     int64     `json:"book_id"`
	AddedDate  time.Time `json:"added_date"`
}

// FavoriteBook is a favorite joined with its book for display. Soft-deleted
// books stay resolvable, flagged through IsDeleted.
type FavoriteBook struct {
	Favorite
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	Genre           string              `json:"genre"`
	PublishedDate   dates.Date          `json:"published_date"`
	TotalCopies     int                 `json:"total_copies"`
	AvailableCopies int                 `json:"available_copies"`
	Rating          decimal.NullDecimal `json:"rating"`
	IsDeleted       bool                `json:"is_deleted"`
}
