package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeCluster        TaskType = "cluster"
	TaskTypeExtractContent TaskType = "extract_content"
	TaskTypeProcessFeed    TaskType = "process_feed"
	TaskTypeRefilterFeed   TaskType = "refilter_feed"
	TaskTypeSyncFeedConfig TaskType = "sync_feed_config"
)

const (
	DefaultMaxRetries = 3
	baseRetryDelay    = time.Second
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetFeedName() string
	GetRetryCount() int
	GetMaxRetries() int
	NextRetry(maxDelay time.Duration) (time.Duration, bool)
	LogAttrs() []any
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by all task types. Feed-independent tasks
// (clustering) have an empty FeedName.
type Task struct {
	ID         string
	Type       TaskType
	FeedName   string
	RetryCount int
	MaxRetries int
	CreatedAt  time.Time
	StartedAt  *time.Time
}

func NewTask(taskType TaskType, feedName string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		FeedName:   feedName,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}
}

func (t *Task) GetID() string { return t.ID }
func (t *Task) GetType() TaskType { return t.Type }
func (t *Task) GetFeedName() string { return t.FeedName }
func (t *Task) GetRetryCount() int { return t.RetryCount }
func (t *Task) GetMaxRetries() int { return t.MaxRetries }

// NextRetry counts a retry and returns its exponential backoff (1s, 2s, 4s, ...)
// capped at maxDelay. It reports false once MaxRetries is used up.
func (t *Task) NextRetry(maxDelay time.Duration) (time.Duration, bool) {
	if t.RetryCount >= t.MaxRetries {
		return 0, false
	}
	delay := baseRetryDelay << t.RetryCount
	t.RetryCount++
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay, true
}

// LogAttrs identifies the task in log records
func (t *Task) LogAttrs() []any {
	attrs := []any{"type", string(t.Type), "id", t.ID}
	if t.FeedName != "" {
		attrs = append(attrs, "feed", t.FeedName)
	}
	if t.RetryCount > 0 {
		attrs = append(attrs, "retry_count", t.RetryCount)
	}
	return attrs
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
