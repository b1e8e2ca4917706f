package tasks

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/rss-clusters/app/feed"
)

type countingTask struct {
	Task
	calls    atomic.Int32
	failures int32
	done     chan struct{}
}

func newCountingTask(failures int32) *countingTask {
	return &countingTask{
		Task:     NewTask(TaskTypeSyncFeedConfig, "test"),
		failures: failures,
		done:     make(chan struct{}),
	}
}

func (c *countingTask) Execute(ctx context.Context) error {
	if c.calls.Add(1) <= c.failures {
		return fmt.Errorf("transient failure")
	}
	close(c.done)
	return nil
}

func waitFor(t *testing.T, done <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("Timed out waiting for task")
	}
}

func emptyConfigCache(t *testing.T) *feed.ConfigCache {
	t.Helper()
	configCache := feed.NewConfigCache(t.TempDir())
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	return configCache
}

func TestSchedulerExecutesTasks(t *testing.T) {
	s := newScheduler(Dependencies{ConfigCache: emptyConfigCache(t)}, time.Hour, 2, "")
	s.Start()
	defer s.Stop()

	task := newCountingTask(0)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	waitFor(t, task.done, 2*time.Second)
	if task.calls.Load() != 1 {
		t.Errorf("Expected 1 execution, got %d", task.calls.Load())
	}
}

func TestSchedulerRetriesFailedTasks(t *testing.T) {
	s := newScheduler(Dependencies{ConfigCache: emptyConfigCache(t)}, time.Hour, 1, "")
	s.Start()
	defer s.Stop()

	task := newCountingTask(1)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	waitFor(t, task.done, 5*time.Second)
	if task.GetRetryCount() != 1 {
		t.Errorf("Expected 1 retry, got %d", task.GetRetryCount())
	}
}

func TestSchedulerQueueFullAndStopped(t *testing.T) {
	s := newScheduler(Dependencies{ConfigCache: emptyConfigCache(t)}, time.Hour, 0, "")

	for i := 0; i < taskQueueSize; i++ {
		if err := s.EnqueueTask(newCountingTask(0)); err != nil {
			t.Fatalf("Expected task %d to be queued, got %v", i, err)
		}
	}
	if err := s.EnqueueTask(newCountingTask(0)); err == nil {
		t.Error("Expected error when queue is full")
	}

	s.Stop()
	if err := s.EnqueueTask(newCountingTask(0)); err == nil {
		t.Error("Expected error after stop")
	}
}

func TestSchedulerStartupProcessesFeeds(t *testing.T) {
	now := time.Now().Format(time.RFC1123Z)
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed(rssItem("1", "Central bank raises rates", "https://example.com/1", now))))
	}))

	dir := t.TempDir()
	configCache := feed.NewConfigCache(dir)
	writeFeedConfig(t, dir, "test", "url: \""+env.server.URL+"/feed.xml\"\nsettings:\n  enabled: true\n")
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	s := newScheduler(Dependencies{
		ConfigCache: configCache,
		FeedRepo:    env.feedRepo,
		ItemRepo:    env.itemRepo,
		ClusterRepo: env.clusterRepo,
		Fetcher:     env.fetcher,
		Parser:      env.parser,
		Filterer:    env.filterer,
		Tagger:      env.tagger,
		Clusterer:   newTestClusterer(t, 15, 4),
		ClusterSettings: ClusterSettings{
			Window: 24 * time.Hour,
		},
	}, time.Hour, 1, "")
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		count, err := env.itemRepo.GetItemCount("test")
		if err == nil && count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected startup tasks to store 1 item, got %d (%v)", count, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	task := s.NewClusterTask()
	if task.GetType() != TaskTypeCluster {
		t.Errorf("Expected cluster task, got %s", task.GetType())
	}
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	run, err := env.clusterRepo.GetLatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.EntryCount != 1 {
		t.Errorf("Expected a run with 1 entry, got %+v", run)
	}
}

func TestSchedulerInvalidCronSchedule(t *testing.T) {
	s := newScheduler(Dependencies{ConfigCache: emptyConfigCache(t)}, time.Hour, 1, "not a schedule")
	s.Start()

	task := newCountingTask(0)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}
	waitFor(t, task.done, 2*time.Second)
	s.Stop()
}
