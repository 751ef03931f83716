package circulation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCheckBorrow(t *testing.T) {
	t.Run("accepts request within limit and availability", func(t *testing.T) {
		assert.NoError(t, checkBorrow(5, 3, 2))
		assert.NoError(t, checkBorrow(5, 3, 3))
	})

	t.Run("rejects non-positive request", func(t *testing.T) {
		assert.Error(t, checkBorrow(5, 3, 0))
		assert.Error(t, checkBorrow(5, 3, -1))
	})

	t.Run("limit check runs before availability", func(t *testing.T) {
		// Request is both over-limit and over-availability; the limit wins.
		err := checkBorrow(1, 2, 4)
		var limitErr LimitExceededError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, 2, limitErr.Limit)
	})

	t.Run("reports remaining copies when short", func(t *testing.T) {
		err := checkBorrow(1, 5, 3)
		var insufficientErr InsufficientCopiesError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, "Not enough copies available. Only 1 copies left.", err.Error())
	})
}

func TestCheckBorrowProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		available := rapid.IntRange(0, 100).Draw(t, "available")
		limit := rapid.IntRange(1, 20).Draw(t, "limit")
		requested := rapid.IntRange(-5, 120).Draw(t, "requested")

		err := checkBorrow(available, limit, requested)
		if err == nil {
			// A request only passes when every precondition holds.
			if requested < 1 || requested > limit || requested > available {
				t.Fatalf("checkBorrow(%d, %d, %d) passed invalid request", available, limit, requested)
			}
			return
		}

		var limitErr LimitExceededError
		var insufficientErr InsufficientCopiesError
		switch {
		case errors.As(err, &limitErr):
			if requested <= limit {
				t.Fatalf("limit error for request %d within limit %d", requested, limit)
			}
		case errors.As(err, &insufficientErr):
			if requested <= available {
				t.Fatalf("insufficient error for request %d with %d available", requested, available)
			}
			if requested > limit {
				t.Fatalf("insufficient error reported before limit for request %d, limit %d", requested, limit)
			}
		}
	})
}

func TestCreditCopies(t *testing.T) {
	assert.Equal(t, 5, creditCopies(3, 5, 2))
	assert.Equal(t, 5, creditCopies(3, 5, 7), "credit clamps at total")
	assert.Equal(t, 1, creditCopies(0, 5, 1))
}

func TestCreditCopiesNeverExceedsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 100).Draw(t, "total")
		available := rapid.IntRange(0, total).Draw(t, "available")
		n := rapid.IntRange(1, 200).Draw(t, "n")

		credited := creditCopies(available, total, n)
		if credited < available || credited > total {
			t.Fatalf("creditCopies(%d, %d, %d) = %d, out of [%d, %d]", available, total, n, credited, available, total)
		}
	})
}

func TestAverageRating(t *testing.T) {
	assert.True(t, averageRating(nil).IsZero())
	assert.Equal(t, "4", averageRating([]int64{3, 5}).String())
	assert.Equal(t, "4.3", averageRating([]int64{4, 4, 5}).String())
	assert.Equal(t, "1.7", averageRating([]int64{1, 2, 2}).String())
}

func TestAverageRatingStaysInRange(t *testing.T) {
	one, five := decimal.NewFromInt(1), decimal.NewFromInt(5)
	rapid.Check(t, func(t *rapid.T) {
		ratings := rapid.SliceOfN(rapid.Int64Range(1, 5), 1, 50).Draw(t, "ratings")

		avg := averageRating(ratings)
		if avg.LessThan(one) || avg.GreaterThan(five) {
			t.Fatalf("averageRating(%v) = %s, outside [1, 5]", ratings, avg)
		}
	})
}

func TestBorrowerColumns(t *testing.T) {
	customerID, walkInID := CustomerBorrower(7).columns()
	assert.True(t, customerID.Valid)
	assert.False(t, walkInID.Valid)
	assert.Equal(t, int64(7), customerID.Int64)

	customerID, walkInID = WalkInBorrower(9).columns()
	assert.False(t, customerID.Valid)
	assert.True(t, walkInID.Valid)
	assert.Equal(t, int64(9), walkInID.Int64)

	assert.Equal(t, TypeStandard, CustomerBorrower(1).loanType())
	assert.Equal(t, TypeWalkIn, WalkInBorrower(1).loanType())
}
