// internal/reporting/domain.go
package reporting

import "github.com/shopspring/decimal"

// DashboardStats is the aggregate snapshot served on the staff dashboard.
// All numbers are computed from live tables; nothing is cached.
type DashboardStats struct {
	TotalBooks        int64          `json:"totalBooks"`
	AvailableCopies   int64          `json:"availableCopies"`
	BorrowedCopies    int64          `json:"borrowedCopies"`
	ActiveLoans       int64          `json:"activeLoans"`
	DistinctBorrowers int64          `json:"distinctBorrowers"`
	OverdueLoans      int64          `json:"overdueLoans"`
	TopRatedBook      *RatedBook     `json:"topRatedBook"`
	MostBorrowed      []BorrowedRank `json:"mostBorrowed"`
	MonthlyLoans      []MonthCount   `json:"monthlyLoans"`
}

// RatedBook is the highest-rated catalog entry. Nil on the dashboard when
// no book has been rated yet.
type RatedBook struct {
	BookID int64           `json:"bookId"`
	Title  string          `json:"title"`
	Author string          `json:"author"`
	Rating decimal.Decimal `json:"rating"`
}

// BorrowedRank ranks a book by the total copies ever borrowed.
type BorrowedRank struct {
	BookID     int64  `json:"bookId"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	TotalTaken int64  `json:"totalTaken"`
}

// MonthCount is one bucket of the loan histogram, keyed "2006-01".
type MonthCount struct {
	Month string `json:"month"`
	Loans int64  `json:"loans"`
}
