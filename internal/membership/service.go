// internal/membership/service.go
package membership

import "context"

// Service defines the interface for the membership service.
type Service interface {
	RegisterCustomer(ctx context.Context, reg Registration) (*Customer, error)
	AuthenticateCustomer(ctx context.Context, email, password string) (*Customer, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)

	ListStaff(ctx context.Context) ([]*Staff, error)
	AddStaff(ctx context.Context, fields StaffFields) (*Staff, error)
	UpdateStaff(ctx context.Context, id int64, fields StaffFields) (*Staff, error)
	DeleteStaff(ctx context.Context, id int64) (*Staff, error)
	AuthenticateStaff(ctx context.Context, email, password string) (*Staff, error)
}
