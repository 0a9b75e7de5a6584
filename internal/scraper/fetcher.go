package scraper

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// PageFetcher retrieves a page and parses it into a document tree.
type PageFetcher interface {
	GetPage(ctx context.Context, url string) (*goquery.Document, error)
}

// blockMarkers are literal challenge phrases that identify a soft
// block. "captcha" is additionally matched case-insensitively.
var blockMarkers = [][]byte{
	[]byte("Robot Check"),
}

// FetcherConfig controls fetch cadence and transport behavior.
type FetcherConfig struct {
	// Delay is the base inter-request delay; the actual sleep is
	// Delay * (1 + jitter) with jitter drawn uniformly from [-0.2, 0.5).
	Delay          time.Duration
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// Fetcher implements PageFetcher with a Colly collector over a pooled,
// retrying transport. Session cookies are generated once and reused for
// the fetcher's lifetime; a fetcher is owned by one scrape pipeline and
// is not safe to share across concurrent runs.
type Fetcher struct {
	cfg       FetcherConfig
	guard     Guard
	cookies   sessionCookies
	transport http.RoundTripper
	base      *colly.Collector
	rng       *rand.Rand
	pause     pauser
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher.
func NewFetcher(cfg FetcherConfig, guard Guard, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	return &Fetcher{
		cfg:       cfg,
		guard:     guard,
		cookies:   newSessionCookies(rng),
		transport: newRetryTransport(nil, cfg.MaxRetries, cfg.InitialBackoff),
		base:      base,
		rng:       rng,
		pause:     timerPauser{},
		logger:    logger,
	}
}

// GetPage fetches url and returns the parsed document. Every failure
// mode maps to an error: ErrOffline, ErrSoftBlock, or a wrapped
// ErrFetch for transport problems and non-2xx statuses.
func (f *Fetcher) GetPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if !f.guard.Online() {
		TotalOfflineSkips.Inc()
		f.logger.Error("no internet connection available", zap.String("url", pageURL))
		return nil, ErrOffline
	}

	f.pause.Pause(ctx, f.jitteredDelay())

	f.logger.Info("fetching page", zap.String("url", pageURL))
	body, err := f.fetch(ctx, pageURL)
	if err != nil {
		TotalFetchErrors.Inc()
		f.logger.Error("fetch failed", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}

	if isSoftBlocked(body) {
		TotalSoftBlocks.Inc()
		f.logger.Error("site is requesting verification, try again later",
			zap.String("url", pageURL))
		return nil, ErrSoftBlock
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	TotalPagesFetched.Inc()
	return doc, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	collector := f.base.Clone()
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)
	if err := collector.SetCookies(pageURL, f.cookies.list()); err != nil {
		return nil, fmt.Errorf("set session cookies: %w", err)
	}

	var (
		body     []byte
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrFetch, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, fetchErr)
		}
	}
	return body, nil
}

// jitteredDelay randomizes the request cadence so the scraper does not
// hit the site on a fixed interval.
func (f *Fetcher) jitteredDelay() time.Duration {
	if f.cfg.Delay <= 0 {
		return 0
	}
	jitter := f.rng.Float64()*0.7 - 0.2
	return time.Duration(float64(f.cfg.Delay) * (1 + jitter))
}

func isSoftBlocked(body []byte) bool {
	for _, marker := range blockMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return bytes.Contains(bytes.ToLower(body), []byte("captcha"))
}

// pauser abstracts how the fetcher waits between requests.
type pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
