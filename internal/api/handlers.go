package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/insights"
	"github.com/shopsight/shopsight/internal/product"
	"github.com/shopsight/shopsight/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxScrapeQuota  = 500
)

type listResponse struct {
	Count    int64             `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []product.Product `json:"results"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil || pageSize < 1 {
		writeError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	offset := (page - 1) * pageSize
	products, total, err := s.store.List(r.Context(), offset, pageSize)
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := listResponse{Count: total, Results: products}
	if int64(offset+pageSize) < total {
		resp.Next = pageLink(page+1, pageSize)
	}
	if page > 1 {
		resp.Previous = pageLink(page-1, pageSize)
	}
	writeJSON(w, http.StatusOK, resp)
}

func pageLink(page, pageSize int) *string {
	link := fmt.Sprintf("/v1/products?page=%d&page_size=%d", page, pageSize)
	return &link
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		s.logger.Error("get product failed", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) productStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("product stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type scrapeRequest struct {
	Categories  []string        `json:"categories"`
	MaxProducts json.RawMessage `json:"max_products"`
}

type scrapeResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	ProductsFound int      `json:"products_found"`
	MaxProducts   int      `json:"max_products"`
	Categories    []string `json:"categories"`
}

func (s *Server) runScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Categories) == 0 {
		writeError(w, http.StatusBadRequest, "no categories provided")
		return
	}
	maxProducts, err := parseMaxProducts(req.MaxProducts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if maxProducts > maxScrapeQuota {
		s.logger.Warn("capping scrape quota", zap.Int("requested", maxProducts))
		maxProducts = maxScrapeQuota
	}

	categoryURLs := make([]string, 0, len(req.Categories))
	for _, category := range req.Categories {
		formatted := strings.ReplaceAll(strings.TrimSpace(category), " ", "+")
		categoryURLs = append(categoryURLs, "https://www.amazon.com/s?k="+formatted)
	}

	s.logger.Info("starting scrape",
		zap.Strings("categories", req.Categories),
		zap.Int("max_products", maxProducts))

	products, err := s.scraper.ScrapeProducts(r.Context(), categoryURLs, maxProducts)
	if err != nil {
		s.logger.Error("scrape failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	added, updated, err := s.importer.ImportSnapshot(r.Context(), s.scraper.SnapshotPath())
	if err != nil {
		s.logger.Error("snapshot import failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scrapeResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Scraping completed. Added %d products, updated %d products.", added, updated),
		ProductsFound: len(products),
		MaxProducts:   maxProducts,
		Categories:    req.Categories,
	})
}

// parseMaxProducts accepts a JSON number or a numeric string, matching
// the lenient clients this endpoint has accumulated.
func parseMaxProducts(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 100, nil
	}
	text := strings.Trim(string(raw), `"`)
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, errors.New("max_products must be a valid number")
	}
	if n <= 0 {
		return 0, errors.New("max_products must be a positive number")
	}
	return n, nil
}

type insightsRequest struct {
	Question  string `json:"question"`
	ProductID *int64 `json:"product_id"`
}

func (s *Server) askInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "no question provided")
		return
	}

	var contextBlock string
	if req.ProductID != nil {
		p, err := s.store.Get(r.Context(), *req.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("product with ID %d not found", *req.ProductID))
			return
		}
		if err != nil {
			s.logger.Error("insights product lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		contextBlock = insights.ProductContext(p)
	} else {
		products, _, err := s.store.List(r.Context(), 0, 5)
		if err != nil {
			s.logger.Error("insights catalog lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		contextBlock = insights.CatalogContext(products)
	}

	answer, err := s.insights.Answer(r.Context(), contextBlock, req.Question)
	if err != nil {
		s.logger.Error("insights answer failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"answer": answer,
		"status": "success",
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
