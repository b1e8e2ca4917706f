package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*FeedRepo)(nil)

type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `id, name, feed_url, link, title, description, image_url, language,
	last_fetched_at, next_fetch_at, feed_published_at, created_at, updated_at`

func (r *FeedRepo) GetFeed(feedName string) (*Feed, error) {
	var feed Feed
	var lastFetchedAt, nextFetchAt, feedPublishedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName).Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Link, &feed.Title, &feed.Description,
		&feed.ImageURL, &feed.Language, &lastFetchedAt, &nextFetchAt, &feedPublishedAt,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	feed.LastFetchedAt = fromNullMillis(lastFetchedAt)
	feed.NextFetchAt = fromNullMillis(nextFetchAt)
	feed.FeedPublishedAt = fromNullMillis(feedPublishedAt)
	feed.CreatedAt = fromMillis(createdAt)
	feed.UpdatedAt = fromMillis(updatedAt)

	return &feed, nil
}

func (r *FeedRepo) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a feed by name or updates its URL
func (r *FeedRepo) UpsertFeed(feedName, feedURL string) error {
	now := toMillis(time.Now())

	_, err := r.db.Exec(`
		INSERT INTO feeds (id, name, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			updated_at = excluded.updated_at
	`, uuid.NewString(), feedName, feedURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *FeedRepo) UpdateFeedMetadata(feedName string, title string, link string, description string, imageURL string, language string, feedPublishedAt *time.Time, nextFetch time.Time) error {
	now := toMillis(time.Now())

	result, err := r.db.Exec(`
		UPDATE feeds
		SET title = ?, link = ?, description = ?, image_url = ?, language = ?,
		    feed_published_at = ?, next_fetch_at = ?, last_fetched_at = ?, updated_at = ?
		WHERE name = ?
	`, title, link, description, imageURL, language,
		toNullMillis(feedPublishedAt), toMillis(nextFetch), now, now, feedName)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("feed not found: %s", feedName)
	}

	return nil
}
