// internal/reporting/service.go
package reporting

import "context"

// Service exposes the read-only dashboard aggregates.
type Service interface {
	// Dashboard assembles the full stats snapshot.
	Dashboard(ctx context.Context) (*DashboardStats, error)
}
