package database

import (
	"time"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type Site struct {
	Name        string // Configuration identifier derived from filename
	ListingURL  string
	LastBuiltAt *time.Time
	NextBuildAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Run struct {
	ID           string
	SiteName     string
	Status       RunStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	PostsSeen    int
	PostsSkipped int
	ItemsEmitted int
	ItemsSkipped int
	OutputPath   string
	Error        string
}

// RunStats is what a finished build reports back to the ledger.
type RunStats struct {
	Status       RunStatus
	PostsSeen    int
	PostsSkipped int
	ItemsEmitted int
	ItemsSkipped int
	OutputPath   string
	Error        string
}
