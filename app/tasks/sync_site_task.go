package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/board-feeds/app/database"
	"github.com/lysyi3m/board-feeds/app/site"
)

type SyncSiteTask struct {
	Task
	SiteConfig *site.Config
	siteRepo   database.SiteRepository
}

func NewSyncSiteTask(siteConfig *site.Config, siteRepo database.SiteRepository) *SyncSiteTask {
	return &SyncSiteTask{
		Task:       NewTask(TaskTypeSyncSite, siteConfig.Name),
		SiteConfig: siteConfig,
		siteRepo:   siteRepo,
	}
}

func (t *SyncSiteTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.siteRepo.UpsertSite(t.SiteConfig.Name, t.SiteConfig.Listing.URL); err != nil {
		return fmt.Errorf("failed to sync site config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"site", t.SiteName,
		"duration", t.GetDuration())

	return nil
}
