package scraper

import "errors"

var (
	// ErrOffline is returned when the connectivity guard reports no
	// internet connection before a fetch attempt.
	ErrOffline = errors.New("no internet connection available")

	// ErrSoftBlock is returned when a 2xx response carries a bot
	// verification challenge instead of content. It is logged
	// distinctly from transport failures so operators can tell
	// throttling from outages, and is never retried within a call.
	ErrSoftBlock = errors.New("verification challenge detected")

	// ErrFetch wraps transport-level failures (connection errors,
	// timeouts, non-2xx statuses after the retry budget).
	ErrFetch = errors.New("fetch failed")
)
