package scraper

// SiteProfile holds the CSS selectors and URL markers for one retail
// site. Selector fields that hold comma-separated lists are ordered
// fallback chains: earlier entries are higher-confidence and must be
// tried first.
type SiteProfile struct {
	// Source is the tag written into every record scraped with this
	// profile. One profile per run; seeds are assumed to belong to it.
	Source string

	// ProductCard matches one result card on a category page.
	ProductCard string
	// CardLink is the standard in-card product anchor.
	CardLink string
	// CardTitle matches the card's title text; its parent anchor is
	// the second link-extraction fallback.
	CardTitle string
	// CardIDAttr names the card attribute used to synthesize a
	// canonical detail URL when no anchor matches.
	CardIDAttr string
	// DetailPathMarkers are href substrings identifying detail links
	// for the last-resort any-anchor scan.
	DetailPathMarkers []string
	// DetailPathPrefix is the path prefix for synthesized detail URLs.
	DetailPathPrefix string
	// NextPage matches the pagination control; DisabledClass on it
	// means the current page is the last one.
	NextPage      string
	DisabledClass string

	// Detail page field chains.
	Name        string
	Price       string
	Description string
	Rating      string
	Image       string
}

// AmazonProfile returns the selector set for Amazon search results and
// product pages.
func AmazonProfile() SiteProfile {
	return SiteProfile{
		Source: "amazon",

		ProductCard:       `div[data-component-type="s-search-result"]`,
		CardLink:          ".a-link-normal.s-underline-text.s-underline-link-text.s-link-style.a-text-normal",
		CardTitle:         ".a-size-medium.a-color-base.a-text-normal",
		CardIDAttr:        "data-asin",
		DetailPathMarkers: []string{"/dp/", "/gp/product/"},
		DetailPathPrefix:  "/dp/",
		NextPage:          ".s-pagination-next",
		DisabledClass:     "a-disabled",

		Name:        "#productTitle",
		Price:       ".a-price .a-offscreen",
		Description: "#productDescription, #feature-bullets",
		Rating:      ".a-star-rating-wrapper .a-icon-alt, .a-icon-star-small .a-icon-alt",
		Image:       "#landingImage",
	}
}
