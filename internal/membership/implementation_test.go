package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libralend/internal/postgres/postgrestest"
)

func testRegistration(email string) Registration {
	return Registration{
		Username:  "reader",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "SecurePass123!",
	}
}

func TestRegisterAndAuthenticateCustomer(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customer, err := svc.RegisterCustomer(ctx, testRegistration("ada@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Equal(t, "ada@example.com", customer.Email)

	got, err := svc.AuthenticateCustomer(ctx, "ada@example.com", "SecurePass123!")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	_, err = svc.AuthenticateCustomer(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateCustomer(ctx, "nobody@example.com", "SecurePass123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.RegisterCustomer(ctx, testRegistration("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.RegisterCustomer(ctx, testRegistration("ada@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterThrottles(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	// The limiter allows a burst of 5, then refuses.
	var err error
	for i := 0; i < 10; i++ {
		reg := testRegistration("reader" + string(rune('a'+i)) + "@example.com")
		if _, err = svc.RegisterCustomer(ctx, reg); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGetCustomer(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	customer, err := svc.RegisterCustomer(ctx, testRegistration("ada@example.com"))
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	_, err = svc.GetCustomer(ctx, customer.ID+999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaffLifecycle(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	member, err := svc.AddStaff(ctx, StaffFields{
		FirstName: "Jean",
		LastName:  "Bartik",
		Email:     "jean@example.com",
		Password:  "StaffPass123!",
	})
	require.NoError(t, err)

	_, err = svc.AddStaff(ctx, StaffFields{Email: "jean@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.AuthenticateStaff(ctx, "jean@example.com", "StaffPass123!")
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)

	// Update without a password keeps the old credentials working.
	updated, err := svc.UpdateStaff(ctx, member.ID, StaffFields{
		FirstName: "Jean",
		LastName:  "Jennings",
		Email:     "jean@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jennings", updated.LastName)

	_, err = svc.AuthenticateStaff(ctx, "jean@example.com", "StaffPass123!")
	require.NoError(t, err)

	// Update with a password rotates the credentials.
	_, err = svc.UpdateStaff(ctx, member.ID, StaffFields{
		FirstName: "Jean",
		LastName:  "Jennings",
		Email:     "jean@example.com",
		Password:  "NewPass456!",
	})
	require.NoError(t, err)

	_, err = svc.AuthenticateStaff(ctx, "jean@example.com", "StaffPass123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.AuthenticateStaff(ctx, "jean@example.com", "NewPass456!")
	require.NoError(t, err)

	deleted, err := svc.DeleteStaff(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, deleted.ID)

	_, err = svc.DeleteStaff(ctx, member.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStaffExcludesAdmins(t *testing.T) {
	db := postgrestest.Open(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.AddStaff(ctx, StaffFields{Email: "admin@example.com", Password: "x", IsAdmin: true})
	require.NoError(t, err)
	regular, err := svc.AddStaff(ctx, StaffFields{Email: "staff@example.com", Password: "x"})
	require.NoError(t, err)

	staff, err := svc.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, regular.ID, staff[0].ID)
}
