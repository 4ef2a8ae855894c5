package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lysyi3m/board-feeds/app/api"
	"github.com/lysyi3m/board-feeds/app/cfg"
	"github.com/lysyi3m/board-feeds/app/database"
	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/logger"
	"github.com/lysyi3m/board-feeds/app/metrics"
	"github.com/lysyi3m/board-feeds/app/scraper"
	"github.com/lysyi3m/board-feeds/app/site"
	"github.com/lysyi3m/board-feeds/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	log, logCloser, err := logger.New(appCfg.Debug, appCfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("Starting Board Feeds", "version", appCfg.Version, "once", appCfg.Once)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		return 1
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return 1
	}
	slog.Debug("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := site.NewConfigCache(appCfg.SitesDir)
	configCache.SetDefaultTimeouts(appCfg.FetchTimeout, appCfg.ProbeTimeout)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load site configurations", "dir", appCfg.SitesDir, "error", err)
		return 1
	}
	slog.Info("Site configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.SitesDir)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	httpClient := scraper.NewHTTPClient()
	fetcher := scraper.NewFetcher(httpClient, appCfg.UserAgent)

	pipeline := &tasks.Pipeline{
		Listing:   scraper.NewListing(fetcher),
		Fetcher:   fetcher,
		Prober:    scraper.NewProber(httpClient, appCfg.UserAgent, time.Duration(appCfg.ProbeTimeout)*time.Second),
		Filterer:  feed.NewFilterer(),
		Generator: feed.NewGenerator(appCfg.Version),
		Writer:    feed.NewWriter(),
		SiteRepo:  database.NewSiteRepository(db),
		RunRepo:   database.NewRunRepository(db),
		Metrics:   metrics.New(reg),
		OutputDir: appCfg.OutputDir,
	}

	scheduler := tasks.NewScheduler(configCache, pipeline, appCfg.WorkerCount,
		time.Duration(appCfg.SchedulerInterval)*time.Second)

	if appCfg.Once {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := scheduler.RunOnce(ctx); err != nil {
			slog.Error("Some sites failed to build", "error", err)
			return 1
		}
		slog.Info("All sites built", "output", appCfg.OutputDir)
		return 0
	}

	slog.Info("Starting scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(configCache, pipeline, scheduler, reg, appCfg.Version, appCfg.BaseUrl)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.Debug),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "base_url", appCfg.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		exitCode = 1
	}

	slog.Info("Server shutdown complete")
	return exitCode
}
