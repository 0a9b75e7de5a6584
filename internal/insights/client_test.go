package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopsight/shopsight/internal/product"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-3.5-turbo",
	}, zaptest.NewLogger(t))
}

func TestClient_Answer(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "It costs $12.50."}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	answer, err := c.Answer(context.Background(), "Product: Widget\nPrice: $12.50\n", "How much is it?")
	require.NoError(t, err)
	assert.Equal(t, "It costs $12.50.", answer)

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	assert.Equal(t, 400, captured.MaxTokens)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "e-commerce assistant")
	assert.Equal(t, "Product: Widget\nPrice: $12.50\n", captured.Messages[1].Content)
	assert.Equal(t, "How much is it?", captured.Messages[2].Content)
}

func TestClient_Answer_NoContextBlock(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Answer(context.Background(), "", "Anything cheap?")
	require.NoError(t, err)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "Anything cheap?", captured.Messages[1].Content)
}

func TestClient_Answer_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid key"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Answer(context.Background(), "", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Answer_NoAPIKey(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{BaseURL: "http://localhost", Model: "m"}, zaptest.NewLogger(t))
	_, err := c.Answer(context.Background(), "", "q")
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClient_Answer_EmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Answer(context.Background(), "", "q")
	require.Error(t, err)
}

func TestProductContext(t *testing.T) {
	t.Parallel()

	got := ProductContext(product.Product{
		Name:        "Widget",
		Price:       12.5,
		Rating:      4.25,
		Description: "A fine widget.",
	})
	assert.Contains(t, got, "Product: Widget")
	assert.Contains(t, got, "Price: $12.50")
	assert.Contains(t, got, "Rating: 4.2/5")
	assert.Contains(t, got, "Description: A fine widget.")

	bare := ProductContext(product.Product{Name: "Plain", Price: 1, Rating: 3})
	assert.NotContains(t, bare, "Description:")
}

func TestCatalogContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CatalogContext(nil))

	products := make([]product.Product, 7)
	for i := range products {
		products[i] = product.Product{Name: "P", Price: 1, Rating: 4}
	}
	got := CatalogContext(products)
	assert.Contains(t, got, "5. P")
	assert.NotContains(t, got, "6. P")
}
