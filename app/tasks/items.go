package tasks

import (
	"log/slog"

	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
)

func toFeedItem(item feed.Item) database.FeedItem {
	return database.FeedItem{
		GUID:         item.GUID,
		Title:        item.Title,
		Link:         item.Link,
		Description:  item.Description,
		Content:      item.Content,
		PublishedAt:  item.PublishedAt,
		UpdatedAt:    item.UpdatedAt,
		Authors:      item.Authors,
		Categories:   item.Categories,
		Keywords:     item.Keywords,
		ContentHash:  item.ContentHash,
		IsFiltered:   item.IsFiltered,
		FilterReason: item.FilterReason,
	}
}

func fromStoredItem(item database.Item) feed.Item {
	return feed.Item{
		GUID:         item.GUID,
		Title:        item.Title,
		Link:         item.Link,
		Description:  item.Description,
		Content:      item.Content,
		PublishedAt:  item.PublishedAt,
		UpdatedAt:    item.UpdatedAt,
		Authors:      item.Authors,
		Categories:   item.Categories,
		ContentHash:  item.ContentHash,
		IsFiltered:   item.IsFiltered,
		FilterReason: item.FilterReason,
		Keywords:     item.Keywords,
	}
}

// feedLanguage prefers the configured language over the one the feed declared
func feedLanguage(feedRepo database.FeedRepository, feedConfig *feed.Config) string {
	if lang := feedConfig.Settings.Language; lang != "" {
		return lang
	}
	dbFeed, err := feedRepo.GetFeed(feedConfig.Name)
	if err != nil || dbFeed == nil {
		return ""
	}
	return dbFeed.Language
}

func logCompleted(task TaskInterface, attrs ...any) {
	attrs = append(task.LogAttrs(), append([]any{"duration", task.GetDuration()}, attrs...)...)
	slog.Info("Task completed", attrs...)
}
