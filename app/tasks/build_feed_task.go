package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/board-feeds/app/content"
	"github.com/lysyi3m/board-feeds/app/database"
	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/metrics"
	"github.com/lysyi3m/board-feeds/app/site"
)

type BuildFeedTask struct {
	Task
	SiteConfig *site.Config
	pipeline   *Pipeline
}

func NewBuildFeedTask(siteConfig *site.Config, pipeline *Pipeline) *BuildFeedTask {
	return &BuildFeedTask{
		Task:       NewTask(TaskTypeBuildFeed, siteConfig.Name),
		SiteConfig: siteConfig,
		pipeline:   pipeline,
	}
}

func (t *BuildFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startedAt := time.Now().UTC()
	runID, err := t.pipeline.RunRepo.StartRun(t.SiteName, startedAt)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}

	stats, buildErr := t.build(ctx)

	stats.Status = database.RunStatusSuccess
	if buildErr != nil {
		stats.Status = database.RunStatusFailed
		stats.Error = buildErr.Error()
	}

	finishedAt := time.Now().UTC()
	if err := t.pipeline.RunRepo.FinishRun(runID, finishedAt, stats); err != nil {
		slog.Error("Failed to record run result", "site", t.SiteName, "run_id", runID, "error", err)
	}
	if t.pipeline.Metrics != nil {
		t.pipeline.Metrics.BuildFinished(t.SiteName, string(stats.Status), finishedAt.Sub(startedAt))
	}

	if buildErr != nil {
		return buildErr
	}

	nextBuildAt := finishedAt.Add(time.Duration(t.SiteConfig.Settings.RefreshInterval) * time.Second)
	if err := t.pipeline.SiteRepo.UpdateBuildSchedule(t.SiteName, finishedAt, nextBuildAt); err != nil {
		slog.Warn("Failed to update build schedule", "site", t.SiteName, "error", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"site", t.SiteName,
		"duration", t.GetDuration(),
		"posts", stats.PostsSeen,
		"skipped", stats.PostsSkipped,
		"items", stats.ItemsEmitted,
		"output", stats.OutputPath)

	return nil
}

func (t *BuildFeedTask) build(ctx context.Context) (database.RunStats, error) {
	var stats database.RunStats
	cfg := t.SiteConfig

	posts, err := t.pipeline.Listing.Run(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("failed to scrape listing: %w", err)
	}
	stats.PostsSeen = len(posts)

	posts, filtered := t.pipeline.Filterer.Run(posts, cfg.Filters)
	stats.PostsSkipped += filtered
	t.countPosts(metrics.OutcomeFiltered, filtered)

	prober := timeoutProber{
		prober:  t.pipeline.Prober,
		timeout: time.Duration(cfg.Settings.ProbeTimeout) * time.Second,
	}
	builder := feed.NewBuilder(cfg.Content, prober)
	timeout := time.Duration(cfg.Settings.Timeout) * time.Second

	items := make([]feed.PostItem, 0, len(posts))
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw, err := t.pipeline.Fetcher.Fetch(ctx, post.Link, timeout, cfg.Content.Encoding)
		if err != nil {
			slog.Warn("Post skipped", "site", t.SiteName, "link", post.Link, "reason", "fetch", "error", err)
			stats.PostsSkipped++
			t.countPosts(metrics.OutcomeFetchFailed, 1)
			continue
		}
		post.RawContent = raw

		built, err := builder.Run(ctx, post)
		switch {
		case errors.Is(err, content.ErrContainerNotFound):
			slog.Warn("Post skipped", "site", t.SiteName, "link", post.Link, "reason", "container not found")
			stats.PostsSkipped++
			t.countPosts(metrics.OutcomeContainerMissing, 1)
			continue
		case errors.Is(err, content.ErrEmptyContent):
			slog.Info("Post skipped", "site", t.SiteName, "link", post.Link, "reason", "empty content")
			stats.PostsSkipped++
			t.countPosts(metrics.OutcomeEmpty, 1)
			continue
		case err != nil:
			slog.Warn("Post skipped", "site", t.SiteName, "link", post.Link, "error", err)
			stats.PostsSkipped++
			continue
		}

		built.RawContent = ""
		built.Link = cfg.RewriteLink(built.Link)
		items = append(items, built)
	}

	doc, _, err := t.pipeline.Generator.Run(feed.NewChannel(cfg), items, feed.GUIDSet{})
	if err != nil {
		return stats, fmt.Errorf("failed to generate feed: %w", err)
	}
	stats.ItemsEmitted = doc.ItemsEmitted
	stats.ItemsSkipped = doc.ItemsSkipped

	dest := feed.OutputPath(t.pipeline.OutputDir, t.SiteName)
	if err := t.pipeline.Writer.Run(dest, doc); err != nil {
		return stats, err
	}
	stats.OutputPath = dest

	t.countPosts(metrics.OutcomeEmitted, doc.ItemsEmitted)
	if t.pipeline.Metrics != nil {
		t.pipeline.Metrics.ItemsEmitted(t.SiteName, doc.ItemsEmitted)
	}

	return stats, nil
}

func (t *BuildFeedTask) countPosts(outcome string, n int) {
	if t.pipeline.Metrics == nil {
		return
	}
	t.pipeline.Metrics.PostsProcessed(t.SiteName, outcome, n)
}
