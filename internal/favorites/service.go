// internal/favorites/service.go
package favorites

import "context"

// Service defines the interface for the favorites service.
type Service interface {
	Add(ctx context.Context, customerID, bookID int64) (*Favorite, error)
	Remove(ctx context.Context, customerID, bookID int64) error
	// Toggle flips membership and reports whether the book is now favorited.
	Toggle(ctx context.Context, customerID, bookID int64) (bool, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]*FavoriteBook, error)
	BookIDs(ctx context.Context, customerID int64) ([]int64, error)
}
