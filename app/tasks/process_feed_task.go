package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
)

type ProcessFeedTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    *feed.Fetcher
	parser     *feed.Parser
	filterer   *feed.Filterer
	tagger     *feed.Tagger
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
}

func NewProcessFeedTask(feedName string, feedConfig *feed.Config, fetcher *feed.Fetcher, parser *feed.Parser, filterer *feed.Filterer, tagger *feed.Tagger, feedRepo database.FeedRepository, itemRepo database.ItemRepository) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, feedName),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		parser:     parser,
		filterer:   filterer,
		tagger:     tagger,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
	}
}

// Execute fetches the feed, drops items already stored, applies filters, tags the
// remaining headlines with keywords and stores everything.
func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	timeout := time.Duration(t.FeedConfig.Settings.Timeout) * time.Second
	data, err := t.fetcher.FetchFeed(ctx, t.FeedConfig.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if err := t.storeFeedMetadata(metadata); err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	if limit := t.FeedConfig.Settings.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	duplicateCount := 0
	filteredCount := 0
	newCount := 0

	var nonDuplicateItems []feed.Item
	for _, item := range items {
		isDuplicate, _, err := t.itemRepo.CheckDuplicate(t.FeedName, item.ContentHash)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		if isDuplicate {
			duplicateCount++
		} else {
			nonDuplicateItems = append(nonDuplicateItems, item)
		}
	}

	if len(nonDuplicateItems) > 0 {
		filteredItems := t.filterer.Run(nonDuplicateItems, t.FeedConfig)

		taggedItems, err := t.tagger.Run(filteredItems, t.FeedConfig, metadata.Language)
		if err != nil {
			return fmt.Errorf("failed to tag items: %w", err)
		}

		for _, item := range taggedItems {
			if item.IsFiltered {
				filteredCount++
			} else {
				newCount++
			}
		}

		if err := t.storeItems(taggedItems); err != nil {
			return fmt.Errorf("failed to store items: %w", err)
		}
	}

	logCompleted(t, "total", len(items), "duplicates", duplicateCount, "filtered", filteredCount, "new", newCount)

	return nil
}

func (t *ProcessFeedTask) storeFeedMetadata(metadata *feed.Metadata) error {
	nextFetch := time.Now().UTC().Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)

	err := t.feedRepo.UpdateFeedMetadata(t.FeedName, metadata.Title, metadata.Link, metadata.Description,
		metadata.ImageURL, metadata.Language, metadata.FeedPublishedAt, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata and next fetch time: %w", err)
	}

	return nil
}

func (t *ProcessFeedTask) storeItems(items []feed.Item) error {
	for _, item := range items {
		err := t.itemRepo.UpsertItem(t.FeedName, toFeedItem(item))
		if err != nil {
			return fmt.Errorf("failed to upsert item: %w", err)
		}
	}

	return nil
}
