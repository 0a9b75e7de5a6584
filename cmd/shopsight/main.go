// Package main wires together the catalog service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/api"
	"github.com/shopsight/shopsight/internal/clock"
	"github.com/shopsight/shopsight/internal/config"
	"github.com/shopsight/shopsight/internal/importer"
	"github.com/shopsight/shopsight/internal/insights"
	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/scraper"
	"github.com/shopsight/shopsight/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var productStore store.ProductStore
	if cfg.DB.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		productStore = pg
	} else {
		logger.Warn("no database DSN configured, using in-memory store")
		productStore = store.NewMemoryStore()
	}
	defer productStore.Close()

	clk := clock.NewSystem()
	fetcher := scraper.NewFetcher(scraper.FetcherConfig{
		Delay:          cfg.RequestDelay(),
		Timeout:        cfg.FetchTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		InitialBackoff: cfg.InitialBackoff(),
	}, scraper.NewDialGuard(), logger.Named("fetcher"))

	scr, err := scraper.New(scraper.Config{
		BaseURL:   cfg.Scraper.BaseURL,
		OutputDir: cfg.Scraper.OutputDir,
	}, scraper.AmazonProfile(), fetcher, logger.Named("scraper"), scraper.WithClock(clk))
	if err != nil {
		logger.Fatal("scraper init failed", zap.Error(err))
	}

	reconciler := importer.NewReconciler(productStore, clk, logger.Named("importer"))
	answerer := insights.NewClient(insights.Config{
		APIKey:  cfg.Insights.APIKey,
		BaseURL: cfg.Insights.BaseURL,
		Model:   cfg.Insights.Model,
	}, logger.Named("insights"))

	apiServer := api.NewServer(productStore, scr, reconciler, answerer, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
