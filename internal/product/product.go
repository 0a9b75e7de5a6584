// Package product defines the domain types shared by the scraper, the
// importer and the HTTP API.
package product

import "time"

// Scraped is a single product record as extracted from a detail page.
// It is immutable once built and travels through the snapshot file to
// the importer.
type Scraped struct {
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Rating      float64   `json:"rating"`
	ImageURL    *string   `json:"image_url"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Product is the durable record. URL is the business key used for upsert
// matching; price is always >= 0 and rating lies in [0,5].
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Rating      float64   `json:"rating"`
	ImageURL    *string   `json:"image_url"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ScrapedAt   time.Time `json:"scraped_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Stats aggregates the catalog for the stats endpoint.
type Stats struct {
	TotalProducts      int64            `json:"total_products"`
	AvgPrice           float64          `json:"avg_price"`
	AvgRating          float64          `json:"avg_rating"`
	MinPrice           float64          `json:"min_price"`
	MaxPrice           float64          `json:"max_price"`
	RatingDistribution map[string]int64 `json:"rating_distribution"`
}
