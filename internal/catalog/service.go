// internal/catalog/service.go
package catalog

import "context"

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, fields BookFields) (*Book, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	UpdateBook(ctx context.Context, id int64, fields BookFields) (*Book, error)
	DeleteBook(ctx context.Context, id int64) (*DeletedBook, error)
}
