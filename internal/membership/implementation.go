// internal/membership/implementation.go
package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/time/rate"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// service implements the Service interface.
type service struct {
	db          *sql.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 registrations per minute
	}
}

// RegisterCustomer creates a new customer account.
func (s *service) RegisterCustomer(ctx context.Context, reg Registration) (*Customer, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}

	hash, salt, err := hashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	customer := &Customer{
		Username:  reg.Username,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Phone:     reg.Phone,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO customers (username, first_name, last_name, email, password_hash, password_salt, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING customer_id, created_at
	`, reg.Username, reg.FirstName, reg.LastName, reg.Email, hash, salt, reg.Phone,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	return customer, nil
}

// AuthenticateCustomer checks a customer's credentials.
func (s *service) AuthenticateCustomer(ctx context.Context, email, password string) (*Customer, error) {
	customer := &Customer{}
	var phone sql.NullString
	var hash, salt string
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_id, username, first_name, last_name, email, phone_number, password_hash, password_salt, created_at
		FROM customers
		WHERE email = $1
	`, email).Scan(&customer.ID, &customer.Username, &customer.FirstName, &customer.LastName,
		&customer.Email, &phone, &hash, &salt, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	customer.Phone = phone.String
	return customer, nil
}

// GetCustomer fetches a customer by id.
func (s *service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	customer := &Customer{}
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_id, username, first_name, last_name, email, phone_number, created_at
		FROM customers
		WHERE customer_id = $1
	`, id).Scan(&customer.ID, &customer.Username, &customer.FirstName, &customer.LastName,
		&customer.Email, &phone, &customer.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	customer.Phone = phone.String
	return customer, nil
}

// ListStaff returns all non-admin staff accounts, newest first.
func (s *service) ListStaff(ctx context.Context) ([]*Staff, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT staff_id, email, first_name, last_name, is_admin
		FROM staff
		WHERE NOT is_admin
		ORDER BY staff_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var staff []*Staff
	for rows.Next() {
		member := &Staff{}
		if err := rows.Scan(&member.ID, &member.Email, &member.FirstName, &member.LastName, &member.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, member)
	}
	return staff, rows.Err()
}

// AddStaff creates a staff account.
func (s *service) AddStaff(ctx context.Context, fields StaffFields) (*Staff, error) {
	if fields.Email == "" || fields.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	hash, salt, err := hashPassword(fields.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member := &Staff{
		Email:     fields.Email,
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		IsAdmin:   fields.IsAdmin,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO staff (email, first_name, last_name, password_hash, password_salt, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING staff_id
	`, fields.Email, fields.FirstName, fields.LastName, hash, salt, fields.IsAdmin,
	).Scan(&member.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert staff: %w", err)
	}

	return member, nil
}

// UpdateStaff edits a staff account. The password only changes when a new
// one is provided.
func (s *service) UpdateStaff(ctx context.Context, id int64, fields StaffFields) (*Staff, error) {
	member := &Staff{}

	var err error
	if fields.Password != "" {
		var hash, salt string
		hash, salt, err = hashPassword(fields.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		err = s.db.QueryRowContext(ctx, `
			UPDATE staff
			SET first_name = $1, last_name = $2, email = $3, password_hash = $4, password_salt = $5
			WHERE staff_id = $6
			RETURNING staff_id, email, first_name, last_name, is_admin
		`, fields.FirstName, fields.LastName, fields.Email, hash, salt, id,
		).Scan(&member.ID, &member.Email, &member.FirstName, &member.LastName, &member.IsAdmin)
	} else {
		err = s.db.QueryRowContext(ctx, `
			UPDATE staff
			SET first_name = $1, last_name = $2, email = $3
			WHERE staff_id = $4
			RETURNING staff_id, email, first_name, last_name, is_admin
		`, fields.FirstName, fields.LastName, fields.Email, id,
		).Scan(&member.ID, &member.Email, &member.FirstName, &member.LastName, &member.IsAdmin)
	}
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update staff: %w", err)
	}

	return member, nil
}

// DeleteStaff removes a staff account.
func (s *service) DeleteStaff(ctx context.Context, id int64) (*Staff, error) {
	member := &Staff{}
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM staff
		WHERE staff_id = $1
		RETURNING staff_id, email, first_name, last_name, is_admin
	`, id).Scan(&member.ID, &member.Email, &member.FirstName, &member.LastName, &member.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete staff: %w", err)
	}
	return member, nil
}

// AuthenticateStaff checks a staff member's credentials.
func (s *service) AuthenticateStaff(ctx context.Context, email, password string) (*Staff, error) {
	member := &Staff{}
	var hash, salt string
	err := s.db.QueryRowContext(ctx, `
		SELECT staff_id, email, first_name, last_name, is_admin, password_hash, password_salt
		FROM staff
		WHERE email = $1
	`, email).Scan(&member.ID, &member.Email, &member.FirstName, &member.LastName, &member.IsAdmin, &hash, &salt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return member, nil
}
