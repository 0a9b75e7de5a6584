package scraper

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// browserHeaders are fixed on every outbound request to blend in with
// ordinary browser traffic.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// sessionCookies holds the synthetic per-instance session identifiers.
// They are generated once at construction and stay stable for the
// lifetime of the fetcher, mimicking a persistent browser session.
type sessionCookies struct {
	id    string
	token string
}

func newSessionCookies(rng *rand.Rand) sessionCookies {
	return sessionCookies{
		id: fmt.Sprintf("%d", 100000000+rng.Intn(900000000)),
		token: fmt.Sprintf("%d-%d",
			10000000+rng.Intn(90000000),
			1000000+rng.Intn(9000000)),
	}
}

func (s sessionCookies) list() []*http.Cookie {
	return []*http.Cookie{
		{Name: "session-id", Value: s.id},
		{Name: "session-token", Value: s.token},
	}
}

// retryableStatus reports whether the server-side status warrants a
// retry. 4xx and connection errors are never retried.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryTransport retries 5xx responses with exponential backoff. The
// base delay doubles on every attempt (0.5s, 1s, 2s, ...).
type retryTransport struct {
	base        http.RoundTripper
	maxAttempts int
	baseDelay   time.Duration
}

func newRetryTransport(base http.RoundTripper, maxAttempts int, baseDelay time.Duration) *retryTransport {
	if base == nil {
		base = newPooledTransport()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &retryTransport{
		base:        base,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// RoundTrip implements http.RoundTripper. Requests carry no body, so
// replaying them on retry is safe.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	delay := t.baseDelay
	for attempt := 1; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("round trip: %w", err)
		}
		if !retryableStatus(resp.StatusCode) || attempt >= t.maxAttempts {
			return resp, nil
		}
		// Drain so the pooled connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, fmt.Errorf("retry wait canceled: %w", req.Context().Err())
		case <-timer.C:
		}
		delay *= 2
	}
}

func newPooledTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
