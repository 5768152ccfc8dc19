// Package store provides storage backends for the FeiTime storefront.
//
// It implements the catalog query service plus member and order persistence
// over SQLite or PostgreSQL, selected by DSN shape, with an in-memory store
// for tests.
package store

import (
	"context"
	"strings"

	"github.com/feitime/storefront/internal/models"
)

// Store is the persistence contract shared by the storefront components.
// Search is side-effect-free and idempotent for a given specification.
type Store interface {
	// Search returns catalog items matching the specification, or an empty
	// list. Supports equality, numeric range and substring filters, price
	// or popularity sorting, and a limit (zero means unbounded).
	Search(ctx context.Context, query models.SearchQuery) ([]models.CatalogItem, error)
	// GetProduct returns the product with the given ID, or nil if absent.
	GetProduct(ctx context.Context, id int64) (*models.CatalogItem, error)
	// ListProducts returns a page of the catalog ordered by popularity.
	ListProducts(ctx context.Context, limit, offset int) ([]models.CatalogItem, error)

	// GetMemberByEmail returns the member with the given email, or nil.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// SaveOrder inserts or replaces an order.
	SaveOrder(ctx context.Context, order models.Order) error
	// GetOrder returns the order with the given ID, or nil if absent.
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrdersByMember returns a member's orders, newest first.
	ListOrdersByMember(ctx context.Context, memberID string) ([]models.Order, error)

	// Close releases the underlying resources.
	Close() error
}

// Opts holds configuration options for the SQL-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store constructors.
type Option func(*Opts)

// WithSQLiteDSN configures a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN configures a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType inspects a DSN and reports "postgres" for PostgreSQL
// connection strings or "sqlite" for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
