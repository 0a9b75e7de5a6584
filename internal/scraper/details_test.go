package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopsight/shopsight/internal/clock"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

const productURL = "https://www.amazon.com/dp/B0TEST"

func detailScraper(t *testing.T, html string, opts ...Option) *Scraper {
	t.Helper()
	fetcher := &fakeFetcher{pages: map[string]string{productURL: html}}
	return newTestScraper(t, fetcher, opts...)
}

func TestExtractDetails_FullPage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var c clock.Clock = fixedClock{now: now}
	s := detailScraper(t, `
<html><body>
  <span id="productTitle">  Wireless Headphones  </span>
  <div class="a-price"><span class="a-offscreen">$1,299.99</span></div>
  <div id="productDescription">Great sound.</div>
  <div class="a-star-rating-wrapper"><span class="a-icon-alt">4.6 out of 5 stars</span></div>
  <img id="landingImage" src="https://img.example.com/p.jpg"/>
</body></html>`, WithClock(c))

	p, err := s.ExtractDetails(context.Background(), productURL)
	require.NoError(t, err)

	require.Equal(t, "Wireless Headphones", p.Name)
	require.InDelta(t, 1299.99, p.Price, 0.001)
	require.Equal(t, "Great sound.", p.Description)
	require.InDelta(t, 4.6, p.Rating, 0.001)
	require.NotNil(t, p.ImageURL)
	require.Equal(t, "https://img.example.com/p.jpg", *p.ImageURL)
	require.Equal(t, productURL, p.URL)
	require.Equal(t, "amazon", p.Source)
	require.Equal(t, now, p.ScrapedAt)
}

func TestExtractDetails_EmptyPageYieldsDefaults(t *testing.T) {
	t.Parallel()

	s := detailScraper(t, "<html><body></body></html>")
	p, err := s.ExtractDetails(context.Background(), productURL)
	require.NoError(t, err)

	require.Equal(t, "Unknown Product", p.Name)
	require.Zero(t, p.Price)
	require.Empty(t, p.Description)
	require.Zero(t, p.Rating)
	require.Nil(t, p.ImageURL)
}

func TestExtractDetails_DescriptionFallsBackToFeatureBullets(t *testing.T) {
	t.Parallel()

	s := detailScraper(t, `
<html><body>
  <div id="feature-bullets">Bullet points here.</div>
</body></html>`)
	p, err := s.ExtractDetails(context.Background(), productURL)
	require.NoError(t, err)
	require.Equal(t, "Bullet points here.", p.Description)
}

func TestExtractDetails_RatingRescaling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		rating float64
	}{
		{"five star scale", "4.6 out of 5 stars", 4.6},
		{"percentage scale", "90% positive", 4.5},
		{"twenty point scale", "18", 0.9},
		{"no number", "not rated", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			html := `<html><body><div class="a-star-rating-wrapper"><span class="a-icon-alt">` +
				tc.text + `</span></div></body></html>`
			s := detailScraper(t, html)
			p, err := s.ExtractDetails(context.Background(), productURL)
			require.NoError(t, err)
			require.InDelta(t, tc.rating, p.Rating, 0.001)
			require.GreaterOrEqual(t, p.Rating, 0.0)
			require.LessOrEqual(t, p.Rating, 5.0)
		})
	}
}

func TestExtractDetails_UnparsablePriceFallsBackToDefault(t *testing.T) {
	t.Parallel()

	s := detailScraper(t, `
<html><body>
  <div class="a-price"><span class="a-offscreen">call for price</span></div>
</body></html>`)
	p, err := s.ExtractDetails(context.Background(), productURL)
	require.NoError(t, err)
	require.Zero(t, p.Price)
}

func TestExtractDetails_FetchFailureFailsRecord(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, &fakeFetcher{pages: map[string]string{}})
	_, err := s.ExtractDetails(context.Background(), productURL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestStripNonPrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1299.99", stripNonPrice("$1,299.99"))
	require.Equal(t, "49.00", stripNonPrice("USD 49.00"))
	require.Equal(t, "", stripNonPrice("free"))
}

func TestSplitSelectors(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"#productDescription", "#feature-bullets"},
		splitSelectors("#productDescription, #feature-bullets"))
	require.Equal(t, []string{".one"}, splitSelectors(".one"))
	require.Empty(t, splitSelectors(""))
}
