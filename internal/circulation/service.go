// internal/circulation/service.go
package circulation

import "context"

// Service defines the interface for the circulation service.
type Service interface {
	// Borrow takes copies of a book for a known borrower. Availability,
	// limit and deletion checks happen under a row lock on the book.
	Borrow(ctx context.Context, bookID int64, borrower Borrower, copies int, contactNumber string) (*Loan, error)

	// WalkInBorrow creates the walk-in customer and the loan in one
	// transaction; a failed borrow leaves no orphan customer behind.
	WalkInBorrow(ctx context.Context, bookID int64, profile WalkInProfile, copies int) (*WalkInLoan, error)

	// Return settles a loan: marks it Returned, records rating and condition,
	// recomputes the book rating and credits inventory from the loan's own
	// stored copy count. rating 0 and condition "" mean not provided.
	Return(ctx context.Context, loanID, bookID int64, rating, copies int, condition Condition) (*Loan, error)

	CustomerLoans(ctx context.Context, customerID int64) ([]*CustomerLoan, error)
	AllLoans(ctx context.Context) ([]*LoanRecord, error)
	BorrowStatus(ctx context.Context, bookID int64) (*BorrowStatus, error)
}
