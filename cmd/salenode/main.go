// Command salenode runs the commit-reveal token sale as a JSON-RPC
// service.
//
// Configuration is taken from the environment:
//
//	SALE_HTTP_ADDR      JSON-RPC listen address (default ":8545")
//	SALE_DB_PATH        SQLite file for events/receipts/snapshots
//	                    (default "salenode.db", empty disables)
//	SALE_OWNER          hex address of the owner / genesis holder
//	SALE_SUPPLY         total token supply, decimal (default 1000000)
//	SALE_REVEAL_PERIOD  commit-to-reveal delay in seconds (default 600)
//	SALE_LOG_LEVEL      debug, info, warn, error (default "info")
//	SALE_METRICS        serve /metrics (default true)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salenode/salenode/core"
	"github.com/salenode/salenode/log"
	"github.com/salenode/salenode/metrics"
	"github.com/salenode/salenode/rpc"
	"github.com/salenode/salenode/storage"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0"
var version = "v0.1.0-dev"

func main() {
	os.Exit(run())
}

// run is the actual entry point, returning an exit code.
func run() int {
	cfg, err := LoadConfig()
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		return 1
	}

	logger := log.New(log.LevelFromString(cfg.LogLevel))
	log.SetDefault(logger)

	logger.Info("salenode starting", "version", version)
	logger.Info("configuration",
		"http", cfg.HTTPAddr,
		"db", cfg.DBPath,
		"owner", cfg.Owner,
		"supply", cfg.TotalSupply,
		"revealPeriod", cfg.RevealPeriod,
		"metrics", cfg.Metrics,
	)

	var store *storage.Store
	if cfg.DBPath != "" {
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open store", "path", cfg.DBPath, "err", err)
			return 1
		}
		defer store.Close()
	}

	sale, err := buildContract(cfg, store, logger)
	if err != nil {
		logger.Error("failed to create contract", "err", err)
		return 1
	}

	stop := make(chan struct{})
	if store != nil {
		go store.Drain(sale.Feed().Subscribe(256), stop, logger.Module("storage"))
	}

	mux := http.NewServeMux()
	mux.Handle("/", rpc.NewServer(sale, logger.Module("rpc")).Handler())
	if cfg.Metrics {
		mux.Handle("/metrics", metrics.DefaultRegistry.Handler("salenode"))
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc server listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("rpc server failed", "err", err)
		close(stop)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	close(stop)

	if store != nil {
		if err := store.SaveSnapshot(sale.ExportState()); err != nil {
			logger.Error("failed to save final snapshot", "err", err)
			return 1
		}
		logger.Info("state snapshot saved")
	}
	return 0
}

// buildContract restores the contract from the latest persisted snapshot
// when one exists, and creates a fresh one otherwise.
func buildContract(cfg Config, store *storage.Store, logger *log.Logger) (*core.TokenSale, error) {
	coreCfg := core.Config{
		Owner:        cfg.OwnerAddress(),
		RevealPeriod: cfg.RevealPeriod,
		Logger:       logger.Module("sale"),
		Metrics:      metrics.DefaultRegistry,
	}

	if store != nil {
		ex, err := store.LatestSnapshot()
		if err != nil {
			return nil, err
		}
		if ex != nil {
			logger.Info("restoring state from snapshot")
			return core.RestoreTokenSale(ex, coreCfg)
		}
	}

	supply, err := cfg.Supply()
	if err != nil {
		return nil, err
	}
	coreCfg.TotalSupply = supply
	return core.NewTokenSale(coreCfg)
}
