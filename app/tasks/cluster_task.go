package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/similarity"
)

// ClusterSettings bounds which items a cluster run reads and how runs are recorded
type ClusterSettings struct {
	Window     time.Duration // only items published within the window are clustered
	Limit      int           // newest items first; 0 means no limit
	KeepRuns   int           // older runs are pruned; 0 keeps everything
	Similarity string
	Seed       int64
}

type ClusterTask struct {
	Task
	RunID       string
	settings    ClusterSettings
	clusterer   *cluster.Clusterer
	oracle      similarity.Oracle
	itemRepo    database.ItemRepository
	clusterRepo database.ClusterRepository
}

func NewClusterTask(settings ClusterSettings, clusterer *cluster.Clusterer, oracle similarity.Oracle, itemRepo database.ItemRepository, clusterRepo database.ClusterRepository) *ClusterTask {
	task := &ClusterTask{
		Task:        NewTask(TaskTypeCluster, ""),
		settings:    settings,
		clusterer:   clusterer,
		oracle:      oracle,
		itemRepo:    itemRepo,
		clusterRepo: clusterRepo,
	}
	task.MaxRetries = 1
	return task
}

// Execute clusters the recent visible items of all feeds and stores the partition as a new run
func (t *ClusterTask) Execute(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	since := time.Now().Add(-t.settings.Window)
	items, err := t.itemRepo.GetClusterableItems(since, t.settings.Limit)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	if len(items) == 0 {
		slog.Info("No items to cluster", "window", t.settings.Window)
		return nil
	}

	entries := make([]cluster.Entry, len(items))
	itemIDs := make([]string, len(items))
	sets := make([][]string, len(items))
	for i, item := range items {
		entries[i] = cluster.Entry{Title: item.Title, Link: item.Link, Keywords: item.Keywords}
		itemIDs[i] = item.ID
		sets[i] = item.Keywords
	}

	if warmer, ok := t.oracle.(similarity.Warmer); ok {
		if err := warmer.Warm(ctx, sets); err != nil {
			return fmt.Errorf("failed to warm similarity oracle: %w", err)
		}
	}

	started := time.Now()
	partition, err := t.clusterer.Run(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to cluster items: %w", err)
	}

	run := database.ClusterRun{
		ID:           uuid.NewString(),
		Similarity:   t.settings.Similarity,
		MaxSize:      t.clusterer.MaxSize(),
		AvgSize:      t.clusterer.AvgSize(),
		Seed:         t.settings.Seed,
		EntryCount:   partition.EntryCount(),
		ClusterCount: len(partition),
		Duration:     time.Since(started),
		CreatedAt:    time.Now().UTC(),
	}

	if err := t.clusterRepo.SaveRun(run, database.MembersFromPartition(run.ID, partition, itemIDs)); err != nil {
		return fmt.Errorf("failed to save cluster run: %w", err)
	}
	t.RunID = run.ID

	if t.settings.KeepRuns > 0 {
		if removed, err := t.clusterRepo.PruneRuns(t.settings.KeepRuns); err != nil {
			slog.Warn("Failed to prune cluster runs", "error", err)
		} else if removed > 0 {
			slog.Debug("Pruned cluster runs", "removed", removed)
		}
	}

	logCompleted(t, "run_id", run.ID, "entries", run.EntryCount, "clusters", run.ClusterCount)

	return nil
}
