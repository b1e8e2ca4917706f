package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cfg"
	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/similarity"
	"github.com/robfig/cron/v3"
)

// Enqueuer accepts work for the scheduler's workers
type Enqueuer interface {
	EnqueueTask(task TaskInterface) error
	NewClusterTask() *ClusterTask
}

var _ Enqueuer = (*Scheduler)(nil)

const (
	taskQueueSize = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type Dependencies struct {
	ConfigCache      *feed.ConfigCache
	FeedRepo         database.FeedRepository
	ItemRepo         database.ItemRepository
	ClusterRepo      database.ClusterRepository
	Fetcher          *feed.Fetcher
	Parser           *feed.Parser
	Filterer         *feed.Filterer
	Tagger           *feed.Tagger
	ContentExtractor *feed.ContentExtractor
	Clusterer        *cluster.Clusterer
	Oracle           similarity.Oracle
	ClusterSettings  ClusterSettings
}

type Scheduler struct {
	deps            Dependencies
	interval        time.Duration
	workerCount     int
	clusterSchedule string
	cron            *cron.Cron
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

func NewScheduler(deps Dependencies) *Scheduler {
	c := cfg.Get()
	return newScheduler(deps, time.Duration(c.SchedulerInterval)*time.Second, c.WorkerCount, c.ClusterSchedule)
}

func newScheduler(deps Dependencies, interval time.Duration, workerCount int, clusterSchedule string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		deps:            deps,
		interval:        interval,
		workerCount:     workerCount,
		clusterSchedule: clusterSchedule,
		cron:            cron.New(cron.WithLocation(time.Local)),
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, taskQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	if s.clusterSchedule != "" {
		_, err := s.cron.AddFunc(s.clusterSchedule, func() {
			if err := s.EnqueueTask(s.NewClusterTask()); err != nil {
				slog.Warn("Failed to enqueue ClusterTask", "error", err)
			}
		})
		if err != nil {
			slog.Error("Invalid cluster schedule, scheduled clustering disabled", "schedule", s.clusterSchedule, "error", err)
		} else {
			s.cron.Start()
			slog.Info("Cluster schedule enabled", "schedule", s.clusterSchedule)
		}
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
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) NewClusterTask() *ClusterTask {
	return NewClusterTask(s.deps.ClusterSettings, s.deps.Clusterer, s.deps.Oracle, s.deps.ItemRepo, s.deps.ClusterRepo)
}

func (s *Scheduler) newProcessFeedTask(feedConfig *feed.Config) *ProcessFeedTask {
	return NewProcessFeedTask(feedConfig.Name, feedConfig, s.deps.Fetcher, s.deps.Parser, s.deps.Filterer,
		s.deps.Tagger, s.deps.FeedRepo, s.deps.ItemRepo)
}

func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.deps.ConfigCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
		return
	}

	slog.Debug("Processing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.deps.FeedRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.Name, "error", err)
			continue
		}

		if !feedConfig.Settings.Enabled {
			slog.Debug("Feed disabled, skipping ProcessFeedTask", "feed", feedConfig.Name)
			continue
		}

		if err := s.EnqueueTask(s.newProcessFeedTask(feedConfig)); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	feedConfigs := s.deps.ConfigCache.GetEnabledConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No enabled feed configurations found")
		return
	}

	slog.Debug("Processing enabled feed configurations for task scheduling", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		dbFeed, err := s.deps.FeedRepo.GetFeed(feedConfig.Name)
		if err != nil {
			slog.Warn("Failed to get feed from database, skipping", "feed", feedConfig.Name, "error", err)
			continue
		}
		if dbFeed == nil {
			slog.Warn("Feed not found in database, skipping", "feed", feedConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if dbFeed.NextFetchAt != nil && dbFeed.NextFetchAt.After(now) {
			slog.Debug("Feed not due for refresh yet", "feed", feedConfig.Name, "next_fetch_at", dbFeed.NextFetchAt)
		} else if err := s.EnqueueTask(s.newProcessFeedTask(feedConfig)); err != nil {
			slog.Warn("Failed to enqueue ProcessFeedTask", "feed", feedConfig.Name, "error", err)
		}

		if feedConfig.Settings.ExtractContent {
			extractTask := NewExtractContentTask(feedConfig.Name, feedConfig, s.deps.Fetcher, s.deps.ContentExtractor,
				s.deps.Tagger, s.deps.FeedRepo, s.deps.ItemRepo)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "feed", feedConfig.Name, "error", err)
			}
		}
	}
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
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", append(task.LogAttrs(), "worker_id", workerID, "error", err)...)

	retryDelay, ok := task.NextRetry(maxRetryDelay)
	if !ok {
		slog.Error("Task failed after maximum retries", append(task.LogAttrs(), "max_retries", task.GetMaxRetries(), "last_error", err)...)
		return
	}

	slog.Warn("Task retry scheduled", append(task.LogAttrs(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", task.LogAttrs()...)
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", append(task.LogAttrs(), "error", retryErr)...)
			}
		}
	}()
}
