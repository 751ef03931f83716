// internal/circulation/implementation.go
package circulation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"libralend/internal/dates"
)

// borrowerNameExpr resolves the display name of either borrower kind.
const borrowerNameExpr = `CASE
	WHEN l.customer_id IS NOT NULL
		THEN COALESCE(NULLIF(TRIM(c.first_name || ' ' || c.last_name), ''), c.username)
	ELSE w.first_name || ' ' || w.last_name
END`

// service implements the Service interface.
type service struct {
	db            *sql.DB
	tracer        trace.Tracer
	loansCreated  metric.Int64Counter
	loansReturned metric.Int64Counter
}

// NewService creates a new circulation service instance.
func NewService(db *sql.DB) Service {
	meter := otel.Meter("libralend/circulation")
	created, _ := meter.Int64Counter("loans.created")
	returned, _ := meter.Int64Counter("loans.returned")

	return &service{
		db:            db,
		tracer:        otel.Tracer("libralend/circulation"),
		loansCreated:  created,
		loansReturned: returned,
	}
}

// Borrow moves copies from available to borrowed and records the loan, all
// in one transaction.
func (s *service) Borrow(ctx context.Context, bookID int64, borrower Borrower, copies int, contactNumber string) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.Int64("book.id", bookID),
			attribute.Int("copies.requested", copies),
			attribute.String("borrower.kind", string(borrower.Kind)),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	loan, err := s.borrowTx(ctx, tx, bookID, borrower, copies, contactNumber)
	if err != nil {
		span.SetAttributes(attribute.Bool("borrow.rejected", true))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.loansCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("loan.type", string(loan.LoanType))))
	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return loan, nil
}

// borrowTx runs the check-then-decrement sequence under a row lock on the
// book, so concurrent borrows against the same book serialize.
func (s *service) borrowTx(ctx context.Context, tx *sql.Tx, bookID int64, borrower Borrower, copies int, contactNumber string) (*Loan, error) {
	var available, limit, returnDays int
	var deleted bool
	err := tx.QueryRowContext(ctx, `
		SELECT available_copies, borrow_limit, return_days, is_deleted
		FROM books
		WHERE book_id = $1
		FOR UPDATE
	`, bookID).Scan(&available, &limit, &returnDays, &deleted)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}
	if deleted {
		return nil, ErrBookNotFound
	}

	if err := checkBorrow(available, limit, copies); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_copies = available_copies - $1, updated_at = NOW()
		WHERE book_id = $2
	`, copies, bookID); err != nil {
		return nil, fmt.Errorf("decrement available copies: %w", err)
	}

	loanDate := dates.Today()
	loan := &Loan{
		Reference:          uuid.New(),
		BookID:             bookID,
		Borrower:           borrower,
		LoanDate:           loanDate,
		ExpectedReturnDate: loanDate.AddDays(returnDays),
		CopiesBorrowed:     copies,
		Status:             StatusBorrowed,
		FineAmount:         decimal.Zero,
		LoanType:           borrower.loanType(),
		ContactNumber:      contactNumber,
	}

	customerID, walkInID := borrower.columns()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO loans (reference, book_id, customer_id, walk_in_customer_id, loan_date,
			expected_return_date, copies_borrowed, status, loan_type, contact_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING loan_id
	`, loan.Reference, bookID, customerID, walkInID, loan.LoanDate,
		loan.ExpectedReturnDate, copies, loan.Status, loan.LoanType, contactNumber,
	).Scan(&loan.ID)
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	return loan, nil
}

// WalkInBorrow creates the walk-in customer and runs the borrow inside one
// transaction. Either both rows land or neither does.
func (s *service) WalkInBorrow(ctx context.Context, bookID int64, profile WalkInProfile, copies int) (*WalkInLoan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.walk_in_borrow",
		trace.WithAttributes(
			attribute.Int64("book.id", bookID),
			attribute.Int("copies.requested", copies),
		),
	)
	defer span.End()

	if err := profile.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	customer := &WalkInCustomer{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Phone:     profile.Phone,
		Email:     profile.Email,
		Address:   profile.Address,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO walk_in_customers (first_name, last_name, phone_number, email, address)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING walk_in_customer_id
	`, profile.FirstName, profile.LastName, profile.Phone, profile.Email, profile.Address,
	).Scan(&customer.ID)
	if err != nil {
		return nil, fmt.Errorf("insert walk-in customer: %w", err)
	}

	loan, err := s.borrowTx(ctx, tx, bookID, WalkInBorrower(customer.ID), copies, profile.Phone)
	if err != nil {
		span.SetAttributes(attribute.Bool("borrow.rejected", true))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.loansCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("loan.type", string(TypeWalkIn))))
	span.SetAttributes(attribute.Int64("loan.id", loan.ID))
	return &WalkInLoan{Loan: loan, Customer: customer}, nil
}

// Return settles a loan and credits inventory. The loan row and then the
// book row are locked, in that order, matching the borrow path so the two
// operations serialize per book.
func (s *service) Return(ctx context.Context, loanID, bookID int64, rating, copies int, condition Condition) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(
			attribute.Int64("loan.id", loanID),
			attribute.Int64("book.id", bookID),
		),
	)
	defer span.End()

	if rating < 0 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}
	if condition != "" && !condition.valid() {
		return nil, fmt.Errorf("invalid book condition %q", condition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	loan := &Loan{ID: loanID}
	var customerID, walkInID sql.NullInt64
	var contact sql.NullString
	var status LoanStatus
	err = tx.QueryRowContext(ctx, `
		SELECT reference, book_id, customer_id, walk_in_customer_id, loan_date,
			expected_return_date, copies_borrowed, status, fine_amount, loan_type, contact_number
		FROM loans
		WHERE loan_id = $1
		FOR UPDATE
	`, loanID).Scan(&loan.Reference, &loan.BookID, &customerID, &walkInID, &loan.LoanDate,
		&loan.ExpectedReturnDate, &loan.CopiesBorrowed, &status, &loan.FineAmount,
		&loan.LoanType, &contact)
	if err == sql.ErrNoRows {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock loan: %w", err)
	}

	if loan.BookID != bookID {
		return nil, ErrLoanNotFound
	}
	if status == StatusReturned {
		span.SetAttributes(attribute.Bool("return.duplicate", true))
		return nil, ErrAlreadyReturned
	}
	if copies != loan.CopiesBorrowed {
		return nil, CopiesMismatchError{Stored: loan.CopiesBorrowed, Submitted: copies}
	}

	loan.ContactNumber = contact.String
	switch {
	case customerID.Valid:
		loan.Borrower = CustomerBorrower(customerID.Int64)
	case walkInID.Valid:
		loan.Borrower = WalkInBorrower(walkInID.Int64)
	}

	var total, available int
	err = tx.QueryRowContext(ctx, `
		SELECT total_copies, available_copies
		FROM books
		WHERE book_id = $1
		FOR UPDATE
	`, bookID).Scan(&total, &available)
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}

	returnDate := dates.Today()
	if _, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET status = $1, return_date = $2, rating = NULLIF($3, 0), book_condition = NULLIF($4, '')
		WHERE loan_id = $5
	`, StatusReturned, returnDate, rating, string(condition), loanID); err != nil {
		return nil, fmt.Errorf("update loan: %w", err)
	}

	if rating > 0 {
		if err := s.recomputeBookRating(ctx, tx, bookID); err != nil {
			return nil, err
		}
	}

	// Credit inventory from the loan's stored count, clamped to total.
	credited := creditCopies(available, total, loan.CopiesBorrowed)
	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET available_copies = $1, updated_at = NOW() WHERE book_id = $2
	`, credited, bookID); err != nil {
		return nil, fmt.Errorf("credit available copies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	loan.Status = StatusReturned
	loan.ReturnDate = &returnDate
	if rating > 0 {
		loan.Rating = &rating
	}
	if condition != "" {
		loan.BookCondition = &condition
	}

	s.loansReturned.Add(ctx, 1)
	return loan, nil
}

// recomputeBookRating rewrites the derived rating as the mean over all rated
// Returned loans of the book, including the one settled in this transaction.
func (s *service) recomputeBookRating(ctx context.Context, tx *sql.Tx, bookID int64) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT rating
		FROM loans
		WHERE book_id = $1 AND status = 'Returned' AND rating IS NOT NULL
	`, bookID)
	if err != nil {
		return fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int64
	for rows.Next() {
		var r int64
		if err := rows.Scan(&r); err != nil {
			return fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET rating = $1, updated_at = NOW() WHERE book_id = $2
	`, averageRating(ratings), bookID); err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}
	return nil
}

// CustomerLoans lists a customer's loans, newest first.
func (s *service) CustomerLoans(ctx context.Context, customerID int64) ([]*CustomerLoan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.loan_id, l.reference, l.book_id, b.title, b.author, b.genre,
			l.loan_date, l.expected_return_date, l.return_date, l.copies_borrowed,
			l.status, l.fine_amount, l.rating, l.book_condition, l.loan_type, l.contact_number
		FROM loans l
		JOIN books b ON l.book_id = b.book_id
		WHERE l.customer_id = $1
		ORDER BY l.loan_date DESC, l.loan_id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer loans: %w", err)
	}
	defer rows.Close()

	var loans []*CustomerLoan
	for rows.Next() {
		cl := &CustomerLoan{}
		var nullable loanNullables
		if err := rows.Scan(&cl.ID, &cl.Reference, &cl.BookID, &cl.BookTitle, &cl.Author, &cl.Genre,
			&cl.LoanDate, &cl.ExpectedReturnDate, &nullable.returnDate, &cl.CopiesBorrowed,
			&cl.Status, &cl.FineAmount, &nullable.rating, &nullable.condition, &cl.LoanType, &nullable.contact,
		); err != nil {
			return nil, fmt.Errorf("scan customer loan: %w", err)
		}
		cl.Borrower = CustomerBorrower(customerID)
		nullable.apply(&cl.Loan)
		loans = append(loans, cl)
	}
	return loans, rows.Err()
}

// AllLoans is the staff view: every loan joined with book and borrower
// details. The contact number is the loan-time snapshot, falling back to the
// borrower's profile phone.
func (s *service) AllLoans(ctx context.Context) ([]*LoanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.loan_id, l.reference, l.book_id, b.title, b.author,
			`+borrowerNameExpr+` AS borrower_name,
			COALESCE(l.contact_number, c.phone_number, w.phone_number, '') AS contact_number,
			l.customer_id, l.walk_in_customer_id,
			l.loan_date, l.expected_return_date, l.return_date, l.copies_borrowed,
			l.status, l.fine_amount, l.rating, l.book_condition, l.loan_type
		FROM loans l
		JOIN books b ON l.book_id = b.book_id
		LEFT JOIN customers c ON l.customer_id = c.customer_id
		LEFT JOIN walk_in_customers w ON l.walk_in_customer_id = w.walk_in_customer_id
		ORDER BY l.loan_date DESC, l.loan_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all loans: %w", err)
	}
	defer rows.Close()

	var records []*LoanRecord
	for rows.Next() {
		rec := &LoanRecord{}
		var customerID, walkInID sql.NullInt64
		var nullable loanNullables
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.BookID, &rec.BookTitle, &rec.Author,
			&rec.BorrowerName, &rec.ContactNumber, &customerID, &walkInID,
			&rec.LoanDate, &rec.ExpectedReturnDate, &nullable.returnDate, &rec.CopiesBorrowed,
			&rec.Status, &rec.FineAmount, &nullable.rating, &nullable.condition, &rec.LoanType,
		); err != nil {
			return nil, fmt.Errorf("scan loan record: %w", err)
		}
		switch {
		case customerID.Valid:
			rec.Borrower = CustomerBorrower(customerID.Int64)
		case walkInID.Valid:
			rec.Borrower = WalkInBorrower(walkInID.Int64)
		}
		nullable.apply(&rec.Loan)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// BorrowStatus reports the outstanding loans of a book. Deleted books still
// resolve so the caller can tell "deleted" apart from "unknown".
func (s *service) BorrowStatus(ctx context.Context, bookID int64) (*BorrowStatus, error) {
	status := &BorrowStatus{BookID: bookID}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, is_deleted FROM books WHERE book_id = $1
	`, bookID).Scan(&status.Title, &status.IsDeleted)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.loan_id, `+borrowerNameExpr+`, l.copies_borrowed, l.loan_date, l.expected_return_date
		FROM loans l
		LEFT JOIN customers c ON l.customer_id = c.customer_id
		LEFT JOIN walk_in_customers w ON l.walk_in_customer_id = w.walk_in_customer_id
		WHERE l.book_id = $1 AND l.status = 'Borrowed'
		ORDER BY l.loan_id
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query active loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var al ActiveLoan
		if err := rows.Scan(&al.LoanID, &al.BorrowerName, &al.CopiesBorrowed, &al.LoanDate, &al.ExpectedReturnDate); err != nil {
			return nil, fmt.Errorf("scan active loan: %w", err)
		}
		status.ActiveLoans = append(status.ActiveLoans, al)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	status.Borrowed = len(status.ActiveLoans) > 0
	return status, nil
}

// loanNullables holds the nullable loan columns during scanning.
type loanNullables struct {
	returnDate sql.NullTime
	rating     sql.NullInt64
	condition  sql.NullString
	contact    sql.NullString
}

func (n loanNullables) apply(l *Loan) {
	if n.returnDate.Valid {
		d := dates.FromTime(n.returnDate.Time)
		l.ReturnDate = &d
	}
	if n.rating.Valid {
		r := int(n.rating.Int64)
		l.Rating = &r
	}
	if n.condition.Valid {
		c := Condition(n.condition.String)
		l.BookCondition = &c
	}
	if n.contact.Valid {
		l.ContactNumber = n.contact.String
	}
}
