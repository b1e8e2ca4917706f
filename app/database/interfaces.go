package database

import (
	"time"
)

// FeedRepository keeps one row per configured feed, keyed by its configuration name
type FeedRepository interface {
	UpsertFeed(feedName, feedURL string) error
	UpdateFeedMetadata(feedName string, title string, link string, description string, imageURL string, language string, feedPublishedAt *time.Time, nextFetch time.Time) error

	GetFeed(feedName string) (*Feed, error)
	GetFeedCount() (int, error)
}

// ItemRepository stores feed items. Items are unique per feed by GUID; ContentHash
// catches re-published headlines with a new GUID.
type ItemRepository interface {
	UpsertItem(feedName string, item FeedItem) error
	CheckDuplicate(feedName, contentHash string) (bool, *string, error)

	UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error
	UpdateItemKeywords(itemID string, keywords []string) error

	GetAllItems(feedName string) ([]Item, error)
	GetVisibleItems(feedName string, limit int) ([]Item, error)
	GetItemCount(feedName string) (int, error)
	GetItemStats(feedName string) (ItemStats, error)

	// GetClusterableItems returns visible items of all feeds published after since,
	// newest first
	GetClusterableItems(since time.Time, limit int) ([]Item, error)

	GetItemsForExtraction(feedName string, limit int) ([]ItemForExtraction, error)
	UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error
	UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error
}

// ClusterRepository persists cluster runs together with their member snapshots
type ClusterRepository interface {
	SaveRun(run ClusterRun, members []ClusterMember) error
	PruneRuns(keep int) (int64, error)

	GetRun(runID string) (*ClusterRun, error)
	GetLatestRun() (*ClusterRun, error)
	GetRunMembers(runID string) ([]ClusterMember, error)
	GetRunCount() (int, error)
}
