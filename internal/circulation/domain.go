// internal/circulation/domain.go
package circulation

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"libralend/internal/dates"
)

var (
	// ErrBookNotFound covers missing and soft-deleted books.
	ErrBookNotFound = errors.New("book not found")
	// ErrLoanNotFound covers missing loans and loan/book mismatches.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrAlreadyReturned guards the Borrowed -> Returned transition: a loan
	// leaves Borrowed exactly once.
	ErrAlreadyReturned = errors.New("loan has already been returned")
)

// InsufficientCopiesError is returned when a borrow request exceeds the
// copies currently available.
type InsufficientCopiesError struct {
	Available int
}

func (e InsufficientCopiesError) Error() string {
	return fmt.Sprintf("Not enough copies available. Only %d copies left.", e.Available)
}

// LimitExceededError is returned when a borrow request exceeds the per-loan
// borrow limit of the book.
type LimitExceededError struct {
	Limit int
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("cannot borrow more than %d copies of this book per loan", e.Limit)
}

// CopiesMismatchError is returned when the copies submitted with a return do
// not match what the loan actually took out. Inventory is only ever credited
// from the loan's own stored count.
type CopiesMismatchError struct {
	Stored    int
	Submitted int
}

func (e CopiesMismatchError) Error() string {
	return fmt.Sprintf("loan borrowed %d copies, not %d", e.Stored, e.Submitted)
}

// LoanStatus is the two-state loan lifecycle.
type LoanStatus string

const (
	StatusBorrowed LoanStatus = "Borrowed"
	StatusReturned LoanStatus = "Returned"
)

// LoanType distinguishes registered-customer loans from walk-in loans.
type LoanType string

const (
	TypeStandard LoanType = "Standard"
	TypeWalkIn   LoanType = "Walk-in"
)

// Condition records the state of the copies at return time.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
	ConditionDamaged   Condition = "Damaged"
)

func (c Condition) valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// BorrowerKind tags the Borrower union.
type BorrowerKind string

const (
	KindCustomer BorrowerKind = "customer"
	KindWalkIn   BorrowerKind = "walk-in"
)

// Borrower identifies exactly one of a registered customer or a walk-in
// customer. The two-nullable-columns shape exists only at the SQL boundary.
type Borrower struct {
	Kind BorrowerKind `json:"kind"`
	ID   int64        `json:"id"`
}

func CustomerBorrower(id int64) Borrower {
	return Borrower{Kind: KindCustomer, ID: id}
}

func WalkInBorrower(id int64) Borrower {
	return Borrower{Kind: KindWalkIn, ID: id}
}

func (b Borrower) loanType() LoanType {
	if b.Kind == KindWalkIn {
		return TypeWalkIn
	}
	return TypeStandard
}

// columns splits the union into the nullable FK pair the loans table stores.
func (b Borrower) columns() (customerID, walkInID sql.NullInt64) {
	if b.Kind == KindWalkIn {
		return sql.NullInt64{}, sql.NullInt64{Int64: b.ID, Valid: true}
	}
	return sql.NullInt64{Int64: b.ID, Valid: true}, sql.NullInt64{}
}

// Loan is one borrowing transaction for some number of copies of one book.
type Loan struct {
	ID                 int64           `json:"loan_id"`
	Reference          uuid.UUID       `json:"reference"`
	BookID             int64           `json:"book_id"`
	Borrower           Borrower        `json:"borrower"`
	LoanDate           dates.Date      `json:"loan_date"`
	ExpectedReturnDate dates.Date      `json:"expected_return_date"`
	ReturnDate         *dates.Date     `json:"return_date,omitempty"`
	CopiesBorrowed     int             `json:"copies_borrowed"`
	Status             LoanStatus      `json:"status"`
	FineAmount         decimal.Decimal `json:"fine_amount"`
	Rating             *int            `json:"rating,omitempty"`
	BookCondition      *Condition      `json:"book_condition,omitempty"`
	LoanType           LoanType        `json:"loan_type"`
	ContactNumber      string          `json:"contact_number,omitempty"`
}

// WalkInProfile is the identity captured at the desk for an in-person loan.
type WalkInProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

func (p WalkInProfile) validate() error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("walk-in customer name is required")
	}
	if p.Phone == "" {
		return fmt.Errorf("walk-in customer phone is required")
	}
	return nil
}

// WalkInCustomer is the stored walk-in identity. It has no login capability.
type WalkInCustomer struct {
	ID        int64  `json:"walk_in_customer_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

// WalkInLoan is the result of a walk-in borrow: the loan plus the customer
// record created alongside it.
type WalkInLoan struct {
	Loan     *Loan           `json:"loan"`
	Customer *WalkInCustomer `json:"customer"`
}

// CustomerLoan is a customer's loan joined with book details for display.
type CustomerLoan struct {
	Loan
	BookTitle string `json:"book_title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
}

// LoanRecord is the staff-facing all-loans row: loan plus resolved borrower
// name and contact number.
type LoanRecord struct {
	Loan
	BookTitle    string `json:"book_title"`
	Author       string `json:"author"`
	BorrowerName string `json:"borrower_name"`
}

// ActiveLoan summarizes one outstanding loan for the borrow-status view.
type ActiveLoan struct {
	LoanID             int64      `json:"loan_id"`
	BorrowerName       string     `json:"borrower_name"`
	CopiesBorrowed     int        `json:"copies_borrowed"`
	LoanDate           dates.Date `json:"loan_date"`
	ExpectedReturnDate dates.Date `json:"expected_return_date"`
}

// BorrowStatus reports whether any copy of a book is out and with whom.
// Soft-deleted books resolve too, so callers can detect deletion.
type BorrowStatus struct {
	BookID      int64        `json:"book_id"`
	Title       string       `json:"title"`
	IsDeleted   bool         `json:"is_deleted"`
	Borrowed    bool         `json:"borrowed"`
	ActiveLoans []ActiveLoan `json:"active_loans"`
}

// checkBorrow validates a borrow request against the locked book state. The
// limit check runs first so an over-limit request is reported as such even
// when availability is also short.
func checkBorrow(available, limit, requested int) error {
	if requested < 1 {
		return fmt.Errorf("must borrow at least one copy")
	}
	if requested > limit {
		return LimitExceededError{Limit: limit}
	}
	if requested > available {
		return InsufficientCopiesError{Available: available}
	}
	return nil
}

// creditCopies returns the available count after crediting n returned copies,
// clamped so available never exceeds total.
func creditCopies(available, total, n int) int {
	credited := available + n
	if credited > total {
		return total
	}
	return credited
}

// averageRating is the arithmetic mean of the submitted ratings rounded to
// one decimal. Recomputed from scratch on every rated return so the derived
// book rating cannot drift.
func averageRating(ratings []int64) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(r))
	}
	return sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1)
}
