package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesFetched tracks pages successfully fetched and parsed.
	TotalPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_pages_fetched_total",
		Help: "The total number of pages successfully fetched and parsed.",
	})
	// TotalFetchErrors tracks fetches that failed at the transport level.
	TotalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_fetch_errors_total",
		Help: "The total number of failed page fetches.",
	})
	// TotalSoftBlocks tracks 2xx responses rejected as verification challenges.
	TotalSoftBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_soft_blocks_total",
		Help: "The total number of responses rejected as bot verification challenges.",
	})
	// TotalOfflineSkips tracks fetches abandoned by the connectivity guard.
	TotalOfflineSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_offline_skips_total",
		Help: "The total number of fetches abandoned because the host was offline.",
	})
	// TotalProductsScraped tracks product records successfully extracted.
	TotalProductsScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_products_scraped_total",
		Help: "The total number of product records successfully extracted.",
	})
)
