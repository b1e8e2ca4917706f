package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
)

type ExtractContentTask struct {
	Task
	FeedConfig       *feed.Config
	fetcher          *feed.Fetcher
	contentExtractor *feed.ContentExtractor
	tagger           *feed.Tagger
	feedRepo         database.FeedRepository
	itemRepo         database.ItemRepository
}

func NewExtractContentTask(feedName string, feedConfig *feed.Config, fetcher *feed.Fetcher, contentExtractor *feed.ContentExtractor, tagger *feed.Tagger, feedRepo database.FeedRepository, itemRepo database.ItemRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, feedName),
		FeedConfig:       feedConfig,
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		tagger:           tagger,
		feedRepo:         feedRepo,
		itemRepo:         itemRepo,
	}
}

// Execute downloads article pages of pending items and re-tags each item from its
// title plus the lead of the article text.
func (t *ExtractContentTask) Execute(ctx context.Context) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	if !t.FeedConfig.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for feed", "feed", t.FeedName)
		return nil
	}

	items, err := t.itemRepo.GetItemsForExtraction(t.FeedName, t.FeedConfig.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get items for content extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items need content extraction", "feed", t.FeedName)
		return nil
	}

	language := feedLanguage(t.feedRepo, t.FeedConfig)
	timeout := time.Duration(t.FeedConfig.Settings.Timeout) * time.Second

	var extracted, failed int
	for _, item := range items {
		if err := checkContext(ctx); err != nil {
			return err
		}

		if err := t.extract(ctx, item, language, timeout); err != nil {
			failed++
			t.recordFailure(item, err)
			continue
		}
		extracted++
	}

	logCompleted(t, "success", extracted, "errors", failed)

	return nil
}

func (t *ExtractContentTask) extract(ctx context.Context, item database.ItemForExtraction, language string, timeout time.Duration) error {
	if item.Link == "" {
		return fmt.Errorf("item has no link")
	}

	page, err := t.fetcher.FetchPage(ctx, item.Link, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	text, err := t.contentExtractor.Run(page, item.Link)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	keywords, err := t.tagger.Tag(item.Title, text, language)
	if err != nil {
		return fmt.Errorf("failed to tag item: %w", err)
	}

	now := time.Now().UTC()
	if err := t.itemRepo.UpdateExtractedContentAndStatus(item.ID, text, "success", &now, ""); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}
	if err := t.itemRepo.UpdateItemKeywords(item.ID, keywords); err != nil {
		return fmt.Errorf("failed to update item keywords: %w", err)
	}

	slog.Debug("Content extracted", "item_id", item.ID, "url", item.Link, "content_length", len(text), "keywords", len(keywords))
	return nil
}

// recordFailure marks the attempt so the item is retried until the repository gives up on it
func (t *ExtractContentTask) recordFailure(item database.ItemForExtraction, cause error) {
	slog.Error("Failed to extract content for item", "item_id", item.ID, "url", item.Link, "error", cause)

	now := time.Now().UTC()
	if err := t.itemRepo.UpdateExtractionStatus(item.ID, "failed", &now, cause.Error()); err != nil {
		slog.Error("Failed to update content extraction status", "item_id", item.ID, "error", err)
	}
}
