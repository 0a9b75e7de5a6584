// Package scraper implements the product ingestion pipeline: a
// connectivity-guarded, rate-limited page fetcher over a retrying
// browser-like transport, ordered-fallback link and detail extraction,
// and an orchestrator that persists each run as a JSON snapshot.
//
// The pipeline is deliberately sequential; throttling between requests
// is a politeness device, not a scheduling primitive. Failures below
// the orchestrator are absorbed and logged so that one blocked page or
// malformed product never aborts a batch.
package scraper
