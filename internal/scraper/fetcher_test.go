package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGuard struct {
	online bool
}

func (g stubGuard) Online() bool { return g.online }

func newTestFetcher(t *testing.T, online bool) *Fetcher {
	t.Helper()
	return NewFetcher(FetcherConfig{}, stubGuard{online: online}, zap.NewNop())
}

func TestFetcher_GetPage_Succeeds(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 id="title">Widget</h1></body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(t, true)
	doc, err := f.GetPage(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Widget", doc.Find("#title").Text())
}

func TestFetcher_GetPage_SendsBrowserHeadersAndCookies(t *testing.T) {
	t.Parallel()

	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, true)
	_, err := f.GetPage(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Contains(t, gotUA, "Mozilla/5.0")
	require.Contains(t, gotCookie, "session-id="+f.cookies.id)
	require.Contains(t, gotCookie, "session-token="+f.cookies.token)
}

func TestFetcher_GetPage_OfflineFailsFast(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("fetch attempted while offline")
	}))
	defer srv.Close()

	f := newTestFetcher(t, false)
	_, err := f.GetPage(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrOffline)
}

func TestFetcher_GetPage_SoftBlockDetected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"challenge phrase", "<html><title>Robot Check</title></html>"},
		{"captcha lowercase", "<html>please solve this captcha</html>"},
		{"captcha mixed case", "<html>Complete the CAPTCHA to continue</html>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			body := tc.body
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			f := newTestFetcher(t, true)
			_, err := f.GetPage(context.Background(), srv.URL)
			require.ErrorIs(t, err, ErrSoftBlock)
		})
	}
}

func TestFetcher_GetPage_NonSuccessStatusFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, true)
	_, err := f.GetPage(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestFetcher_GetPage_TransportErrorFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nil)
	srv.Close() // connection refused

	f := newTestFetcher(t, true)
	_, err := f.GetPage(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestFetcher_JitteredDelay_WithinBounds(t *testing.T) {
	t.Parallel()

	f := NewFetcher(FetcherConfig{Delay: 1000}, stubGuard{online: true}, zap.NewNop())
	for i := 0; i < 1000; i++ {
		d := f.jitteredDelay()
		require.GreaterOrEqual(t, float64(d), 800.0)
		require.Less(t, float64(d), 1500.0)
	}
}

func TestIsSoftBlocked(t *testing.T) {
	t.Parallel()

	require.True(t, isSoftBlocked([]byte("a Robot Check page")))
	require.True(t, isSoftBlocked([]byte("CaPtChA ahead")))
	require.False(t, isSoftBlocked([]byte("<html>regular product page</html>")))
	require.False(t, isSoftBlocked(nil))
}
