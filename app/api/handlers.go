package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/site"
	"github.com/lysyi3m/board-feeds/app/tasks"
)

const recentRunsLimit = 10

func NewHandler(configCache *site.ConfigCache, pipeline *tasks.Pipeline,
	scheduler tasks.TaskSchedulerInterface, gatherer prometheus.Gatherer, version, baseURL string) *Handler {
	return &Handler{
		siteRepo:    pipeline.SiteRepo,
		runRepo:     pipeline.RunRepo,
		configCache: configCache,
		scheduler:   scheduler,
		pipeline:    pipeline,
		gatherer:    gatherer,
		outputDir:   pipeline.OutputDir,
		version:     version,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Site configuration not found", "site", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	path := feed.OutputPath(h.outputDir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Feed has not been built yet", "site", name)
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to read feed file", "site", name, "path", path, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Name", name)
	if run, err := h.runRepo.GetLatestRun(name); err == nil && run != nil && run.FinishedAt != nil {
		c.Header("X-Feed-Items", strconv.Itoa(run.ItemsEmitted))
		c.Header("X-Last-Updated", run.FinishedAt.Format(time.RFC3339))
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if siteCount, err := h.siteRepo.GetSiteCount(); err == nil {
		health["sites"] = siteCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	totals := map[string]int{
		"posts_seen":    0,
		"posts_skipped": 0,
		"items_emitted": 0,
	}
	sites := make(map[string]interface{})

	for _, name := range h.configCache.GetNames() {
		run, err := h.runRepo.GetLatestRun(name)
		if err != nil {
			slog.Error("Database error", "operation", "get_latest_run", "site", name, "error", err)
			continue
		}
		if run == nil {
			sites[name] = nil
			continue
		}

		sites[name] = gin.H{
			"status":        run.Status,
			"started_at":    run.StartedAt,
			"finished_at":   run.FinishedAt,
			"posts_seen":    run.PostsSeen,
			"posts_skipped": run.PostsSkipped,
			"items_emitted": run.ItemsEmitted,
		}
		totals["posts_seen"] += run.PostsSeen
		totals["posts_skipped"] += run.PostsSkipped
		totals["items_emitted"] += run.ItemsEmitted
	}

	c.JSON(http.StatusOK, gin.H{
		"sites":  sites,
		"totals": totals,
	})
}

func (h *Handler) APIListSites(c *gin.Context) {
	names := h.configCache.GetNames()
	sites := make([]map[string]interface{}, 0, len(names))

	for _, name := range names {
		siteConfig, err := h.configCache.GetConfig(name)
		if err != nil {
			continue
		}

		siteInfo := map[string]interface{}{
			"name":             siteConfig.Name,
			"listing_url":      siteConfig.Listing.URL,
			"title":            siteConfig.Channel.Title,
			"enabled":          siteConfig.Settings.Enabled,
			"pages":            siteConfig.Listing.EndPage - siteConfig.Listing.StartPage + 1,
			"max_items":        siteConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(siteConfig.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(siteConfig.Filters),
			"feed_url":         h.baseURL + "/feeds/" + name,
		}

		if st, err := h.siteRepo.GetSite(name); err == nil && st != nil {
			siteInfo["last_built_at"] = st.LastBuiltAt
			siteInfo["next_build_at"] = st.NextBuildAt
		}

		if runCount, err := h.runRepo.GetRunCount(name); err == nil {
			siteInfo["run_count"] = runCount
		}

		sites = append(sites, siteInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sites": sites,
		"total": len(sites),
	})
}

func (h *Handler) APIGetSiteDetails(c *gin.Context) {
	name := c.Param("name")

	siteConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Site configuration not found", "site", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Site configuration not found"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"listing_url":      siteConfig.Listing.URL,
		"title":            siteConfig.Channel.Title,
		"enabled":          siteConfig.Settings.Enabled,
		"start_page":       siteConfig.Listing.StartPage,
		"end_page":         siteConfig.Listing.EndPage,
		"max_items":        siteConfig.Settings.MaxItems,
		"refresh_interval": (time.Duration(siteConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(siteConfig.Settings.Timeout) * time.Second).String(),
		"wordpress":        siteConfig.Channel.WordPress,
		"filters":          siteConfig.Filters,
	}

	st, err := h.siteRepo.GetSite(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_site", "site", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if st != nil {
		details["database"] = map[string]interface{}{
			"last_built_at": st.LastBuiltAt,
			"next_build_at": st.NextBuildAt,
			"created_at":    st.CreatedAt,
			"updated_at":    st.UpdatedAt,
		}
	}

	if runs, err := h.runRepo.GetRecentRuns(name, recentRunsLimit); err == nil {
		details["runs"] = runs
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIBuildSite(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Site configuration not found", "site", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Site configuration not found"})
		return
	}

	siteConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "site", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSiteTask(siteConfig, h.siteRepo)
	syncTask.Start()
	if err := syncTask.Execute(c.Request.Context()); err != nil {
		slog.Error("Error syncing site", "site", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to sync site",
			"details": err.Error(),
		})
		return
	}

	buildTask := tasks.NewBuildFeedTask(siteConfig, h.pipeline)
	if err := h.scheduler.EnqueueTask(buildTask); err != nil {
		slog.Warn("Error enqueueing build task", "site", name, "error", err)
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to enqueue build task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and build enqueued",
		"site": gin.H{
			"name":        name,
			"title":       siteConfig.Channel.Title,
			"listing_url": siteConfig.Listing.URL,
		},
		"tasks": []gin.H{
			{
				"id":   buildTask.ID,
				"type": buildTask.Type,
			},
		},
	})
}

