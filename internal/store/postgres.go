package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopsight/shopsight/internal/product"
)

// PostgresConfig controls the connection pool behind the product store.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

// pgxPool is the subset of pgxpool.Pool the store uses; pgxmock
// satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements ProductStore on Postgres.
//
// Expected schema:
//
//	CREATE TABLE products (
//		id BIGSERIAL PRIMARY KEY,
//		name TEXT NOT NULL,
//		price NUMERIC(10,2) NOT NULL,
//		description TEXT NOT NULL DEFAULT '',
//		rating NUMERIC(3,1),
//		image_url TEXT,
//		url TEXT NOT NULL,
//		source TEXT NOT NULL,
//		scraped_at TIMESTAMPTZ,
//		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore connects a pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool pgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

const productColumns = `id, name, price, description, rating, image_url, url, source, scraped_at, last_updated`

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// FindByURL returns the first product with the given URL.
func (s *PostgresStore) FindByURL(ctx context.Context, url string) (product.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE url = $1 ORDER BY id LIMIT 1`, url)
	return scanProduct(row)
}

// Get returns the product with the given ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (product.Product, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Insert stores a new product and returns its generated ID.
func (s *PostgresStore) Insert(ctx context.Context, p product.Product) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO products (name, price, description, rating, image_url, url, source, scraped_at, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		p.Name, p.Price, p.Description, p.Rating, p.ImageURL,
		p.URL, p.Source, p.ScrapedAt, p.LastUpdated,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// Update overwrites all mutable fields of an existing product.
func (s *PostgresStore) Update(ctx context.Context, p product.Product) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE products
SET name = $1, price = $2, description = $3, rating = $4, image_url = $5,
    source = $6, scraped_at = $7, last_updated = $8
WHERE id = $9`,
		p.Name, p.Price, p.Description, p.Rating, p.ImageURL,
		p.Source, p.ScrapedAt, p.LastUpdated, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertByURL inserts or updates inside one transaction. The row lock
// taken by SELECT ... FOR UPDATE serializes concurrent imports of the
// same URL, so lookup-then-write cannot silently clobber.
func (s *PostgresStore) UpsertByURL(ctx context.Context, rec product.Scraped, now time.Time) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM products WHERE url = $1 ORDER BY id LIMIT 1 FOR UPDATE`,
		rec.URL,
	).Scan(&id)

	created := false
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx, `
INSERT INTO products (name, price, description, rating, image_url, url, source, scraped_at, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.Name, rec.Price, rec.Description, rec.Rating, rec.ImageURL,
			rec.URL, rec.Source, rec.ScrapedAt, now,
		); err != nil {
			return false, fmt.Errorf("upsert insert: %w", err)
		}
		created = true
	case err != nil:
		return false, fmt.Errorf("upsert lookup: %w", err)
	default:
		if _, err := tx.Exec(ctx, `
UPDATE products
SET name = $1, price = $2, description = $3, rating = $4, image_url = $5,
    source = $6, scraped_at = $7, last_updated = $8
WHERE id = $9`,
			rec.Name, rec.Price, rec.Description, rec.Rating, rec.ImageURL,
			rec.Source, rec.ScrapedAt, now, id,
		); err != nil {
			return false, fmt.Errorf("upsert update: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit upsert: %w", err)
	}
	return created, nil
}

// List returns one page of products, newest first, and the total count.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]product.Product, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id DESC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]product.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return products, total, nil
}

// Stats aggregates catalog-wide statistics.
func (s *PostgresStore) Stats(ctx context.Context) (product.Stats, error) {
	var stats product.Stats
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COALESCE(AVG(price), 0),
       COALESCE(AVG(rating), 0),
       COALESCE(MIN(price), 0),
       COALESCE(MAX(price), 0)
FROM products`).Scan(
		&stats.TotalProducts, &stats.AvgPrice, &stats.AvgRating,
		&stats.MinPrice, &stats.MaxPrice,
	)
	if err != nil {
		return product.Stats{}, fmt.Errorf("aggregate products: %w", err)
	}

	var buckets [5]int64
	err = s.pool.QueryRow(ctx, `
SELECT COUNT(*) FILTER (WHERE rating >= 1 AND rating < 2),
       COUNT(*) FILTER (WHERE rating >= 2 AND rating < 3),
       COUNT(*) FILTER (WHERE rating >= 3 AND rating < 4),
       COUNT(*) FILTER (WHERE rating >= 4 AND rating < 5),
       COUNT(*) FILTER (WHERE rating >= 5)
FROM products`).Scan(&buckets[0], &buckets[1], &buckets[2], &buckets[3], &buckets[4])
	if err != nil {
		return product.Stats{}, fmt.Errorf("rating distribution: %w", err)
	}

	stats.RatingDistribution = make(map[string]int64, len(buckets))
	for i, count := range buckets {
		stats.RatingDistribution[fmt.Sprintf("%d stars", i+1)] = count
	}
	return stats, nil
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Description, &p.Rating,
		&p.ImageURL, &p.URL, &p.Source, &p.ScrapedAt, &p.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}
