package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/board-feeds/app/content"
	"github.com/lysyi3m/board-feeds/app/database"
	"github.com/lysyi3m/board-feeds/app/feed"
	"github.com/lysyi3m/board-feeds/app/metrics"
)

// Pipeline holds the collaborators shared by every feed build.
type Pipeline struct {
	Listing   ListingScraper
	Fetcher   PageFetcher
	Prober    content.Prober
	Filterer  *feed.Filterer
	Generator *feed.Generator
	Writer    *feed.Writer
	SiteRepo  database.SiteRepository
	RunRepo   database.RunRepository
	Metrics   *metrics.Metrics
	OutputDir string
}

type timeoutProber struct {
	prober  content.Prober
	timeout time.Duration
}

func (p timeoutProber) Probe(ctx context.Context, url string) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.prober.Probe(probeCtx, url)
}
