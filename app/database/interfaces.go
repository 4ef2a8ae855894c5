package database

import (
	"time"
)

type SiteRepository interface {
	GetSite(siteName string) (*Site, error)
	GetSiteCount() (int, error)

	UpsertSite(siteName, listingURL string) error
	UpdateBuildSchedule(siteName string, builtAt time.Time, nextBuildAt time.Time) error
}

type RunRepository interface {
	StartRun(siteName string, startedAt time.Time) (string, error)
	FinishRun(runID string, finishedAt time.Time, stats RunStats) error

	GetLatestRun(siteName string) (*Run, error)
	GetRecentRuns(siteName string, limit int) ([]Run, error)
	GetRunCount(siteName string) (int, error)
}
