// internal/membership/domain.go
package membership

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many registrations, try again later")
)

// Customer is a registered borrower with login capability.
type Customer struct {
	ID        int64     `json:"customer_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone_number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Staff is a library employee account.
type Staff struct {
	ID        int64  `json:"staff_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

// StaffFields carries the editable attributes of a staff account. An empty
// Password on update keeps the existing one.
type StaffFields struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Registration is the payload for a new customer account.
type Registration struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}
