// internal/reporting/implementation.go
package reporting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const mostBorrowedLimit = 3
const histogramMonths = 6

type service struct {
	db *sql.DB
}

// NewService creates a new reporting service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

func (s *service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(available_copies), 0),
			COALESCE(SUM(total_copies - available_copies), 0)
		FROM books
		WHERE NOT is_deleted
	`).Scan(&stats.TotalBooks, &stats.AvailableCopies, &stats.BorrowedCopies)
	if err != nil {
		return nil, fmt.Errorf("query book totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(DISTINCT (customer_id, walk_in_customer_id)),
			COUNT(*) FILTER (WHERE expected_return_date < CURRENT_DATE)
		FROM loans
		WHERE status = 'Borrowed'
	`).Scan(&stats.ActiveLoans, &stats.DistinctBorrowers, &stats.OverdueLoans)
	if err != nil {
		return nil, fmt.Errorf("query loan totals: %w", err)
	}

	if stats.TopRatedBook, err = s.topRated(ctx); err != nil {
		return nil, err
	}
	if stats.MostBorrowed, err = s.mostBorrowed(ctx); err != nil {
		return nil, err
	}
	if stats.MonthlyLoans, err = s.monthlyLoans(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) topRated(ctx context.Context) (*RatedBook, error) {
	book := &RatedBook{}
	err := s.db.QueryRowContext(ctx, `
		SELECT book_id, title, author, rating
		FROM books
		WHERE NOT is_deleted AND rating IS NOT NULL
		ORDER BY rating DESC, book_id
		LIMIT 1
	`).Scan(&book.BookID, &book.Title, &book.Author, &book.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query top rated: %w", err)
	}
	return book, nil
}

func (s *service) mostBorrowed(ctx context.Context) ([]BorrowedRank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.book_id, b.title, b.author, SUM(l.copies_borrowed) AS total_taken
		FROM loans l
		JOIN books b ON l.book_id = b.book_id
		GROUP BY b.book_id, b.title, b.author
		ORDER BY total_taken DESC, b.book_id
		LIMIT $1
	`, mostBorrowedLimit)
	if err != nil {
		return nil, fmt.Errorf("query most borrowed: %w", err)
	}
	defer rows.Close()

	ranks := []BorrowedRank{}
	for rows.Next() {
		var rank BorrowedRank
		if err := rows.Scan(&rank.BookID, &rank.Title, &rank.Author, &rank.TotalTaken); err != nil {
			return nil, fmt.Errorf("scan most borrowed: %w", err)
		}
		ranks = append(ranks, rank)
	}
	return ranks, rows.Err()
}

// monthlyLoans buckets loans taken in the trailing window by month. Months
// with no loans are absent from the result.
func (s *service) monthlyLoans(ctx context.Context) ([]MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT TO_CHAR(DATE_TRUNC('month', loan_date), 'YYYY-MM') AS month, COUNT(*)
		FROM loans
		WHERE loan_date >= DATE_TRUNC('month', CURRENT_DATE) - ($1 - 1) * INTERVAL '1 month'
		GROUP BY month
		ORDER BY month
	`, histogramMonths)
	if err != nil {
		return nil, fmt.Errorf("query monthly loans: %w", err)
	}
	defer rows.Close()

	counts := []MonthCount{}
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Loans); err != nil {
			return nil, fmt.Errorf("scan monthly loans: %w", err)
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}
