package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lysyi3m/board-feeds/app/database"
	"github.com/lysyi3m/board-feeds/app/site"
	"github.com/lysyi3m/board-feeds/app/tasks"
)

type Handler struct {
	siteRepo    database.SiteRepository
	runRepo     database.RunRepository
	configCache *site.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	pipeline    *tasks.Pipeline
	gatherer    prometheus.Gatherer
	outputDir   string
	version     string
	baseURL     string
}
