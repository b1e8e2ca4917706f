package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
)

// RefilterFeedTask re-applies a feed's filters to its stored items after the config
// changed
type RefilterFeedTask struct {
	Task
	FeedConfig *feed.Config
	filterer   *feed.Filterer
	tagger     *feed.Tagger
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
}

func NewRefilterFeedTask(feedName string, feedConfig *feed.Config, filterer *feed.Filterer, tagger *feed.Tagger, feedRepo database.FeedRepository, itemRepo database.ItemRepository) *RefilterFeedTask {
	return &RefilterFeedTask{
		Task:       NewTask(TaskTypeRefilterFeed, feedName),
		FeedConfig: feedConfig,
		filterer:   filterer,
		tagger:     tagger,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
	}
}

type refilterStats struct {
	changed, tagged, failed int
}

func (t *RefilterFeedTask) Execute(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	stored, err := t.itemRepo.GetAllItems(t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed items: %w", err)
	}

	items := make([]feed.Item, len(stored))
	for i, item := range stored {
		items[i] = fromStoredItem(item)
	}
	refiltered := t.filterer.Run(items, t.FeedConfig)

	language := feedLanguage(t.feedRepo, t.FeedConfig)

	var stats refilterStats
	for i, item := range refiltered {
		if err := checkContext(ctx); err != nil {
			return err
		}
		t.apply(stored[i], item, language, &stats)
	}

	logCompleted(t, "items", len(stored), "changed", stats.changed, "tagged", stats.tagged, "errors", stats.failed)

	return nil
}

// apply stores a changed filter verdict. Items that became visible without keywords
// are tagged so the next cluster run picks them up.
func (t *RefilterFeedTask) apply(stored database.Item, item feed.Item, language string, stats *refilterStats) {
	if stored.IsFiltered != item.IsFiltered || stored.FilterReason != item.FilterReason {
		if err := t.itemRepo.UpdateItemFilterStatus(stored.ID, item.IsFiltered, item.FilterReason); err != nil {
			slog.Error("Failed to update item filter status", "item_id", stored.ID, "error", err)
			stats.failed++
			return
		}
		stats.changed++
	}

	if item.IsFiltered || len(stored.Keywords) > 0 {
		return
	}

	keywords, err := t.tagger.Tag(stored.Title, stored.ExtractedContent, language)
	if err == nil {
		err = t.itemRepo.UpdateItemKeywords(stored.ID, keywords)
	}
	if err != nil {
		slog.Error("Failed to tag item", "item_id", stored.ID, "error", err)
		stats.failed++
		return
	}
	stats.tagged++
}
