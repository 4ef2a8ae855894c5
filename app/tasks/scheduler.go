package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/board-feeds/app/site"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskQueueSize = 300
	taskTimeout   = 15 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type Scheduler struct {
	configCache *site.ConfigCache
	pipeline    *Pipeline
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewScheduler(configCache *site.ConfigCache, pipeline *Pipeline, workerCount int, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache: configCache,
		pipeline:    pipeline,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
		inFlight:    make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if task.GetType() == TaskTypeBuildFeed && !s.markInFlight(task.GetSiteName()) {
		return fmt.Errorf("build already queued for site %s", task.GetSiteName())
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		s.clearInFlight(task)
		return s.ctx.Err()
	default:
		s.clearInFlight(task)
		return fmt.Errorf("task queue is full")
	}
}

// RunOnce syncs and builds every enabled site a single time, with at most
// workerCount builds in flight. Errors from individual sites are joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	siteConfigs := s.configCache.GetEnabledConfigs()
	if len(siteConfigs) == 0 {
		slog.Warn("No enabled site configurations found")
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(s.workerCount)

	for _, name := range s.configCache.GetNames() {
		siteConfig, ok := siteConfigs[name]
		if !ok {
			continue
		}

		g.Go(func() error {
			syncTask := NewSyncSiteTask(siteConfig, s.pipeline.SiteRepo)
			syncTask.Start()
			err := syncTask.Execute(ctx)
			if err == nil {
				buildTask := NewBuildFeedTask(siteConfig, s.pipeline)
				buildTask.Start()
				err = buildTask.Execute(ctx)
			}
			if err != nil {
				slog.Error("Site build failed", "site", siteConfig.Name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", siteConfig.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

func (s *Scheduler) enqueueStartupTasks() {
	siteConfigs := s.configCache.GetConfigs()
	if len(siteConfigs) == 0 {
		slog.Debug("No site configurations found")
		return
	}

	slog.Debug("Processing site configurations", "count", len(siteConfigs))

	// Sites are registered before any build is queued so that the build
	// can record its schedule.
	for _, siteConfig := range siteConfigs {
		syncTask := NewSyncSiteTask(siteConfig, s.pipeline.SiteRepo)
		syncTask.Start()
		if err := syncTask.Execute(s.ctx); err != nil {
			slog.Warn("Failed to sync site", "site", siteConfig.Name, "error", err)
			continue
		}

		if !siteConfig.Settings.Enabled {
			slog.Debug("Site disabled, skipping BuildFeedTask", "site", siteConfig.Name)
			continue
		}

		buildTask := NewBuildFeedTask(siteConfig, s.pipeline)
		if err := s.EnqueueTask(buildTask); err != nil {
			slog.Warn("Failed to enqueue BuildFeedTask", "site", siteConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	siteConfigs := s.configCache.GetEnabledConfigs()
	if len(siteConfigs) == 0 {
		slog.Debug("No enabled site configurations found")
		return
	}

	slog.Debug("Processing enabled site configurations for task scheduling", "count", len(siteConfigs))

	now := time.Now().UTC()
	for _, siteConfig := range siteConfigs {
		st, err := s.pipeline.SiteRepo.GetSite(siteConfig.Name)
		if err != nil {
			slog.Warn("Failed to get site from database, skipping", "site", siteConfig.Name, "error", err)
			continue
		}
		if st == nil {
			slog.Warn("Site not found in database, skipping", "site", siteConfig.Name)
			continue
		}

		if st.NextBuildAt != nil && st.NextBuildAt.After(now) {
			slog.Debug("Site not due for rebuild yet", "site", siteConfig.Name, "next_build_at", st.NextBuildAt)
			continue
		}

		buildTask := NewBuildFeedTask(siteConfig, s.pipeline)
		if err := s.EnqueueTask(buildTask); err != nil {
			slog.Debug("Failed to enqueue BuildFeedTask", "site", siteConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) markInFlight(siteName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[siteName] {
		return false
	}
	s.inFlight[siteName] = true
	return true
}

func (s *Scheduler) clearInFlight(task TaskInterface) {
	if task.GetType() != TaskTypeBuildFeed {
		return
	}
	s.mu.Lock()
	delete(s.inFlight, task.GetSiteName())
	s.mu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	s.clearInFlight(task)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "site", task.GetSiteName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
