package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// maxCandidateLinks is the hard ceiling on candidate links per
// category, regardless of the page budget.
const maxCandidateLinks = 200

// ExtractLinks walks up to maxPages of a category's results and
// returns candidate product-detail URLs, all absolute. A page that
// fails to fetch is skipped; pagination stops early at the candidate
// ceiling or when the next-page control is absent or disabled.
// Duplicates within a run are acceptable noise and are not removed.
func (s *Scraper) ExtractLinks(ctx context.Context, categoryURL string, maxPages int) []string {
	links := make([]string, 0)

	s.logger.Info("extracting product links",
		zap.String("category", categoryURL), zap.Int("max_pages", maxPages))

	for page := 1; page <= maxPages; page++ {
		pageURL := categoryURL
		if page > 1 {
			pageURL = fmt.Sprintf("%s&page=%d", categoryURL, page)
		}

		doc, err := s.fetcher.GetPage(ctx, pageURL)
		if err != nil {
			s.logger.Warn("skipping results page",
				zap.String("url", pageURL), zap.Int("page", page), zap.Error(err))
			continue
		}

		cards := doc.Find(s.profile.ProductCard)
		s.logger.Info("found product cards",
			zap.Int("count", cards.Length()), zap.Int("page", page))

		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if len(links) >= maxCandidateLinks {
				return false
			}
			if link, ok := s.cardLink(card); ok {
				links = append(links, link)
			}
			return true
		})

		if len(links) >= maxCandidateLinks {
			s.logger.Info("reached candidate limit, stopping pagination",
				zap.Int("page", page))
			break
		}

		next := doc.Find(s.profile.NextPage)
		if next.Length() == 0 || next.HasClass(s.profile.DisabledClass) {
			s.logger.Info("no more pages available", zap.Int("page", page))
			break
		}
	}

	s.logger.Info("total product links found", zap.Int("count", len(links)))
	return links
}

// cardLink extracts a detail URL from one result card. The strategies
// run in fixed priority order; earlier ones are higher-confidence and
// the first success wins.
func (s *Scraper) cardLink(card *goquery.Selection) (string, bool) {
	// Standard in-card anchor.
	if href, ok := card.Find(s.profile.CardLink).First().Attr("href"); ok {
		return s.resolveURL(href)
	}

	// Anchor wrapping the title text.
	if href, ok := card.Find(s.profile.CardTitle).First().Parent().Attr("href"); ok {
		return s.resolveURL(href)
	}

	// Card identifier attribute, synthesized into a canonical URL.
	if id, ok := card.Attr(s.profile.CardIDAttr); ok && id != "" {
		return s.resolveURL(s.profile.DetailPathPrefix + id)
	}

	// Any anchor whose href contains a detail-path marker.
	var (
		found string
		ok    bool
	)
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, has := a.Attr("href")
		if !has {
			return true
		}
		for _, marker := range s.profile.DetailPathMarkers {
			if strings.Contains(href, marker) {
				found, ok = s.resolveURL(href)
				return false
			}
		}
		return true
	})
	return found, ok
}
