package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/site"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to queue feed builds.
//
//	scheduler := NewScheduler(configCache, pipeline, workerCount, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewBuildFeedTask(siteConfig, pipeline))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunOnce(ctx context.Context) error
}

type ListingScraper interface {
	Run(ctx context.Context, c *site.Config) ([]feed.PostItem, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string, timeout time.Duration, encoding string) (string, error)
}
