// Package store defines the durable product store boundary. By using
// an interface, the API and importer stay decoupled from Postgres and
// can run against the in-memory implementation in tests and local
// development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopsight/shopsight/internal/product"
)

// ErrNotFound is returned when a lookup matches no product.
var ErrNotFound = errors.New("product not found")

// ProductStore exposes lookup, insert, update and upsert operations on
// durable product records. Products are never deleted by the pipeline.
type ProductStore interface {
	// FindByURL returns the first product whose URL matches. URL is a
	// business key, not a declared uniqueness constraint.
	FindByURL(ctx context.Context, url string) (product.Product, error)

	// Insert stores a new product and returns its generated ID.
	Insert(ctx context.Context, p product.Product) (int64, error)

	// Update overwrites the mutable fields of an existing product.
	Update(ctx context.Context, p product.Product) error

	// UpsertByURL atomically inserts s as a new product or updates the
	// existing record with the same URL, stamping now as last_updated.
	// It reports whether a new record was created. Atomicity here is
	// what keeps concurrent imports from clobbering each other.
	UpsertByURL(ctx context.Context, s product.Scraped, now time.Time) (created bool, err error)

	// Get returns the product with the given ID.
	Get(ctx context.Context, id int64) (product.Product, error)

	// List returns a page of products, newest first, plus the total count.
	List(ctx context.Context, offset, limit int) ([]product.Product, int64, error)

	// Stats aggregates catalog-wide statistics.
	Stats(ctx context.Context) (product.Stats, error)

	// Close releases store resources.
	Close()
}
