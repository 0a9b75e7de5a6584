package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopsight/shopsight/internal/product"
)

// MemoryStore is an in-memory ProductStore for tests and local
// development without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]product.Product
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int64]product.Product),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// FindByURL returns the first product with the given URL, lowest ID
// first to mirror the Postgres lookup.
func (s *MemoryStore) FindByURL(_ context.Context, url string) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.findByURLLocked(url)
	if !ok {
		return product.Product{}, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) findByURLLocked(url string) (product.Product, bool) {
	var (
		found product.Product
		ok    bool
	)
	for _, p := range s.byID {
		if p.URL != url {
			continue
		}
		if !ok || p.ID < found.ID {
			found = p
			ok = true
		}
	}
	return found, ok
}

// Get returns the product with the given ID.
func (s *MemoryStore) Get(_ context.Context, id int64) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return product.Product{}, ErrNotFound
	}
	return p, nil
}

// Insert stores a new product and returns its generated ID.
func (s *MemoryStore) Insert(_ context.Context, p product.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.byID[p.ID] = p
	return p.ID, nil
}

// Update overwrites an existing product.
func (s *MemoryStore) Update(_ context.Context, p product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; !ok {
		return ErrNotFound
	}
	s.byID[p.ID] = p
	return nil
}

// UpsertByURL inserts or updates under one lock acquisition.
func (s *MemoryStore) UpsertByURL(_ context.Context, rec product.Scraped, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.findByURLLocked(rec.URL)
	if !ok {
		p := product.Product{
			ID:          s.nextID,
			Name:        rec.Name,
			Price:       rec.Price,
			Description: rec.Description,
			Rating:      rec.Rating,
			ImageURL:    rec.ImageURL,
			URL:         rec.URL,
			Source:      rec.Source,
			ScrapedAt:   rec.ScrapedAt,
			LastUpdated: now,
		}
		s.nextID++
		s.byID[p.ID] = p
		return true, nil
	}

	existing.Name = rec.Name
	existing.Price = rec.Price
	existing.Description = rec.Description
	existing.Rating = rec.Rating
	existing.ImageURL = rec.ImageURL
	existing.Source = rec.Source
	existing.ScrapedAt = rec.ScrapedAt
	existing.LastUpdated = now
	s.byID[existing.ID] = existing
	return false, nil
}

// List returns one page of products, newest first, and the total count.
func (s *MemoryStore) List(_ context.Context, offset, limit int) ([]product.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]product.Product, 0, len(s.byID))
	for _, p := range s.byID {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return []product.Product{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]product.Product, end-offset)
	copy(page, all[offset:end])
	return page, total, nil
}

// Stats aggregates catalog-wide statistics.
func (s *MemoryStore) Stats(_ context.Context) (product.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := product.Stats{
		RatingDistribution: make(map[string]int64, 5),
	}
	for i := 1; i <= 5; i++ {
		stats.RatingDistribution[fmt.Sprintf("%d stars", i)] = 0
	}
	if len(s.byID) == 0 {
		return stats, nil
	}

	first := true
	var priceSum, ratingSum float64
	for _, p := range s.byID {
		stats.TotalProducts++
		priceSum += p.Price
		ratingSum += p.Rating
		if first || p.Price < stats.MinPrice {
			stats.MinPrice = p.Price
		}
		if first || p.Price > stats.MaxPrice {
			stats.MaxPrice = p.Price
		}
		first = false
		for i := 1; i <= 5; i++ {
			if p.Rating >= float64(i) && (p.Rating < float64(i+1) || i == 5) {
				stats.RatingDistribution[fmt.Sprintf("%d stars", i)]++
			}
		}
	}
	stats.AvgPrice = priceSum / float64(stats.TotalProducts)
	stats.AvgRating = ratingSum / float64(stats.TotalProducts)
	return stats, nil
}
