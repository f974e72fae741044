package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yogitridirgantara/POS-DR/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateID     = errors.New("record with this id already exists")
)

// ProductRepository defines catalog data operations. Consumers define this
// interface, not the Postgres implementation.
type ProductRepository interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// TransactionRepository is append-only for writes: completed sales are never
// updated or deleted.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, record *domain.TransactionRecord) error
	ListTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]*domain.TransactionRecord, error)
	ListTransactions(ctx context.Context) ([]*domain.TransactionRecord, error)
}
