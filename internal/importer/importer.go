// Package importer reconciles scraped snapshots with the durable store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/clock"
	"github.com/shopsight/shopsight/internal/product"
	"github.com/shopsight/shopsight/internal/store"
)

// Reconciler loads snapshot files and upserts each record into the
// store, keyed by product URL.
type Reconciler struct {
	store  store.ProductStore
	clock  clock.Clock
	logger *zap.Logger
}

// NewReconciler creates a Reconciler backed by the given store.
func NewReconciler(st store.ProductStore, clk clock.Clock, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: st, clock: clk, logger: logger}
}

// ImportSnapshot reads the JSON snapshot at path and upserts every
// record in file order. It returns how many products were created and
// how many were updated. A record that fails to upsert is logged and
// skipped; it does not abort the import.
func (r *Reconciler) ImportSnapshot(ctx context.Context, path string) (added, updated int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("snapshot not readable", zap.String("path", path), zap.Error(err))
		return 0, 0, fmt.Errorf("read snapshot: %w", err)
	}

	var records []product.Scraped
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Error("snapshot not valid JSON", zap.String("path", path), zap.Error(err))
		return 0, 0, fmt.Errorf("decode snapshot: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return added, updated, err
		}
		created, err := r.store.UpsertByURL(ctx, rec, r.clock.Now())
		if err != nil {
			r.logger.Warn("upsert failed, skipping record",
				zap.String("url", rec.URL),
				zap.Error(err))
			continue
		}
		if created {
			added++
		} else {
			updated++
		}
	}

	r.logger.Info("snapshot imported",
		zap.String("path", path),
		zap.Int("added", added),
		zap.Int("updated", updated),
		zap.Int("records", len(records)))
	return added, updated, nil
}
