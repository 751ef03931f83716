// internal/catalog/domain.go
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"libralend/internal/dates"
)

// ErrNotFound is returned when a book does not exist, or is soft-deleted in
// contexts that hide deleted books.
var ErrNotFound = errors.New("book not found")

// CapacityConflictError rejects shrinking total_copies below the number of
// copies currently out on loan.
type CapacityConflictError struct {
	NewTotal int
	Borrowed int
}

func (e CapacityConflictError) Error() string {
	return fmt.Sprintf("cannot reduce total copies to %d: %d copies are currently borrowed", e.NewTotal, e.Borrowed)
}

// ActiveLoansError rejects deleting a book that still has borrowed copies.
type ActiveLoansError struct {
	Borrowers []string
}

func (e ActiveLoansError) Error() string {
	return fmt.Sprintf("cannot delete book: currently borrowed by %s", strings.Join(e.Borrowers, ", "))
}

// Book represents one title in the inventory.
type Book struct {
	ID              int64               `json:"book_id"`
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	Genre           string              `json:"genre"`
	PublishedDate   dates.Date          `json:"published_date"`
	TotalCopies     int                 `json:"total_copies"`
	AvailableCopies int                 `json:"available_copies"`
	BorrowLimit     int                 `json:"borrow_limit"`
	ReturnDays      int                 `json:"return_days"`
	Rating          decimal.NullDecimal `json:"rating"`
	IsDeleted       bool                `json:"is_deleted"`
	CreatedAt       time.Time           `json:"created_at,omitzero"`
	UpdatedAt       time.Time           `json:"updated_at,omitzero"`
}

// BookFields carries the caller-editable attributes of a book.
type BookFields struct {
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Genre         string     `json:"genre"`
	PublishedDate dates.Date `json:"published_date"`
	TotalCopies   int        `json:"total_copies"`
	BorrowLimit   int        `json:"borrow_limit"`
	ReturnDays    int        `json:"return_days"`
}

func (f BookFields) validate() error {
	if f.Title == "" || f.Author == "" {
		return fmt.Errorf("title and author are required")
	}
	if f.TotalCopies < 1 {
		return fmt.Errorf("total copies must be at least 1")
	}
	if f.BorrowLimit < 1 {
		return fmt.Errorf("borrow limit must be at least 1")
	}
	if f.ReturnDays < 1 {
		return fmt.Errorf("return days must be at least 1")
	}
	return nil
}

// DeletedBook confirms a soft deletion.
type DeletedBook struct {
	ID    int64  `json:"book_id"`
	Title string `json:"title"`
}
