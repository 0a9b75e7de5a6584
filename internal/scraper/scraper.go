package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/clock"
	"github.com/shopsight/shopsight/internal/product"
)

const (
	// productsPerPage is the rough card count per results page, used
	// to budget pagination.
	productsPerPage = 20
	// maxPagesPerCategory caps pagination per category seed.
	maxPagesPerCategory = 5
)

// Config holds the scraper's construction parameters.
type Config struct {
	BaseURL   string
	OutputDir string
}

// Scraper drives link extraction, detail extraction and snapshot
// persistence across category seeds. The pipeline is sequential end to
// end; one Scraper instance must not be shared by concurrent runs.
type Scraper struct {
	cfg     Config
	base    *url.URL
	profile SiteProfile
	fetcher PageFetcher
	rng     *rand.Rand
	clock   clock.Clock
	logger  *zap.Logger
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithRand injects the random source used for candidate subsampling,
// making sample selection reproducible in tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scraper) { s.rng = rng }
}

// WithClock injects the clock stamped into scraped records.
func WithClock(c clock.Clock) Option {
	return func(s *Scraper) { s.clock = c }
}

// New builds a Scraper for one site profile.
func New(cfg Config, profile SiteProfile, fetcher PageFetcher, logger *zap.Logger, opts ...Option) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "data"
	}
	s := &Scraper{
		cfg:     cfg,
		base:    base,
		profile: profile,
		fetcher: fetcher,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:   clock.NewSystem(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SnapshotPath returns the fixed location of the snapshot file written
// by ScrapeProducts.
func (s *Scraper) SnapshotPath() string {
	return filepath.Join(s.cfg.OutputDir, s.profile.Source+"_products.json")
}

// ScrapeProducts collects up to maxProducts records across the category
// seeds, in category order, and writes the batch as one JSON snapshot.
// When a category yields more candidates than the remaining quota, a
// uniform random sample of exactly the quota is kept, so output order
// is not stable across runs.
func (s *Scraper) ScrapeProducts(ctx context.Context, categoryURLs []string, maxProducts int) ([]product.Scraped, error) {
	products := make([]product.Scraped, 0, maxProducts)

	for _, categoryURL := range categoryURLs {
		if len(products) >= maxProducts {
			break
		}

		pages := maxProducts / productsPerPage
		if pages < 1 {
			pages = 1
		}
		if pages > maxPagesPerCategory {
			pages = maxPagesPerCategory
		}

		links := s.ExtractLinks(ctx, categoryURL, pages)

		remaining := maxProducts - len(products)
		if len(links) > remaining {
			links = s.sample(links, remaining)
		}

		for _, link := range links {
			p, err := s.ExtractDetails(ctx, link)
			if err != nil {
				s.logger.Warn("skipping product",
					zap.String("url", link), zap.Error(err))
				continue
			}
			products = append(products, *p)
			if len(products) >= maxProducts {
				break
			}
		}
	}

	s.logger.Info("scrape complete",
		zap.String("source", s.profile.Source),
		zap.Int("products", len(products)))

	if err := s.writeSnapshot(products); err != nil {
		return products, err
	}
	return products, nil
}

// sample returns a uniform random subset of n links.
func (s *Scraper) sample(links []string, n int) []string {
	perm := s.rng.Perm(len(links))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, links[idx])
	}
	return out
}

func (s *Scraper) writeSnapshot(products []product.Scraped) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.cfg.OutputDir, err)
	}
	payload, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	path := s.SnapshotPath()
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	s.logger.Info("saved product snapshot",
		zap.String("path", path), zap.Int("products", len(products)))
	return nil
}

// resolveURL makes href absolute against the site's base URL.
func (s *Scraper) resolveURL(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return s.base.ResolveReference(ref).String(), true
}
