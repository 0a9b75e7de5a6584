package scraper

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/product"
)

// defaultName is used when no title selector matches.
const defaultName = "Unknown Product"

var numberPattern = regexp.MustCompile(`[0-9.]+`)

// ExtractDetails fetches one product page and builds a record from it.
// Each field walks its selector chain in priority order and falls back
// to a default when nothing matches; extraction never fails on a
// structurally empty page. A fetch failure fails the whole record.
func (s *Scraper) ExtractDetails(ctx context.Context, productURL string) (*product.Scraped, error) {
	doc, err := s.fetcher.GetPage(ctx, productURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scraping product details", zap.String("url", productURL))

	p := &product.Scraped{
		Name:      defaultName,
		URL:       productURL,
		Source:    s.profile.Source,
		ScrapedAt: s.clock.Now(),
	}

	for _, sel := range splitSelectors(s.profile.Name) {
		if t := firstText(doc, sel); t != "" {
			p.Name = t
			break
		}
	}

	for _, sel := range splitSelectors(s.profile.Price) {
		t := firstText(doc, sel)
		if t == "" {
			continue
		}
		v, err := strconv.ParseFloat(stripNonPrice(t), 64)
		if err != nil {
			continue
		}
		p.Price = v
		break
	}

	for _, sel := range splitSelectors(s.profile.Description) {
		if t := firstText(doc, sel); t != "" {
			p.Description = t
			break
		}
	}

	for _, sel := range splitSelectors(s.profile.Rating) {
		t := firstText(doc, sel)
		if t == "" {
			continue
		}
		match := numberPattern.FindString(t)
		if match == "" {
			continue
		}
		v, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		// Some pages report ratings on a 20-point-like scale;
		// rescale back to 5 stars.
		if v > 5 {
			v = v / 20
		}
		p.Rating = v
		break
	}

	if src, ok := doc.Find(s.profile.Image).First().Attr("src"); ok {
		p.ImageURL = &src
	}

	TotalProductsScraped.Inc()
	s.logger.Info("scraped product", zap.String("name", p.Name))
	return p, nil
}

// splitSelectors breaks a comma-separated selector chain into its
// ordered entries.
func splitSelectors(chain string) []string {
	parts := strings.Split(chain, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// stripNonPrice drops everything but digits and dots from a price
// string, e.g. "$1,299.99" becomes "1299.99".
func stripNonPrice(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
