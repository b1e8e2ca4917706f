package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxExtractionAttempts = 3

var _ ItemRepository = (*ItemRepo)(nil)

type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `i.id, i.feed_id, f.name, i.guid, i.link, i.title, i.description, i.content,
	i.published_at, i.updated_at, i.authors, i.categories, i.keywords,
	i.is_filtered, i.filter_reason, i.content_hash, i.extracted_content,
	i.content_extracted_at, i.content_extraction_status, i.content_extraction_error,
	i.extraction_attempts, i.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var publishedAt, createdAt int64
	var updatedAt, extractedAt sql.NullInt64
	var authors, categories, keywords string

	err := row.Scan(
		&item.ID, &item.FeedID, &item.FeedName, &item.GUID, &item.Link, &item.Title,
		&item.Description, &item.Content, &publishedAt, &updatedAt,
		&authors, &categories, &keywords,
		&item.IsFiltered, &item.FilterReason, &item.ContentHash, &item.ExtractedContent,
		&extractedAt, &item.ContentExtractionStatus, &item.ContentExtractionError,
		&item.ExtractionAttempts, &createdAt,
	)
	if err != nil {
		return Item{}, err
	}

	item.PublishedAt = fromMillis(publishedAt)
	item.UpdatedAt = fromNullMillis(updatedAt)
	item.ContentExtractedAt = fromNullMillis(extractedAt)
	item.CreatedAt = fromMillis(createdAt)
	item.Authors = decodeList(authors)
	item.Categories = decodeList(categories)
	item.Keywords = decodeList(keywords)

	return item, nil
}

func (r *ItemRepo) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) GetVisibleItems(feedName string, limit int) ([]Item, error) {
	items, err := r.queryItems(`
		SELECT `+itemColumns+`
		FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.is_filtered = 0
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get visible items: %w", err)
	}
	return items, nil
}

func (r *ItemRepo) GetAllItems(feedName string) ([]Item, error) {
	items, err := r.queryItems(`
		SELECT `+itemColumns+`
		FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		ORDER BY i.published_at DESC
	`, feedName)
	if err != nil {
		return nil, fmt.Errorf("failed to get all items: %w", err)
	}
	return items, nil
}

// GetClusterableItems returns visible items of all feeds published at or after since,
// newest first. A non-positive limit means no limit.
func (r *ItemRepo) GetClusterableItems(since time.Time, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = -1
	}

	items, err := r.queryItems(`
		SELECT `+itemColumns+`
		FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE i.is_filtered = 0 AND i.published_at >= ?
		ORDER BY i.published_at DESC, i.id
		LIMIT ?
	`, toMillis(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get clusterable items: %w", err)
	}
	return items, nil
}

func (r *ItemRepo) GetItemCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM items i JOIN feeds f ON f.id = i.feed_id WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepo) GetItemStats(feedName string) (ItemStats, error) {
	var stats ItemStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN i.is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&stats.Total, &stats.Visible, &stats.Filtered)
	if err != nil {
		return ItemStats{}, fmt.Errorf("failed to get item stats: %w", err)
	}
	return stats, nil
}

// UpsertItem stores an item, updating the mutable fields when the feed already has its GUID
func (r *ItemRepo) UpsertItem(feedName string, item FeedItem) error {
	result, err := r.db.Exec(`
		INSERT INTO items (
			id, feed_id, guid, link, title, description, content,
			published_at, updated_at, authors, categories, keywords,
			is_filtered, filter_reason, content_hash, created_at
		)
		SELECT ?, f.id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM feeds f WHERE f.name = ?
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			link = excluded.link,
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			updated_at = excluded.updated_at,
			authors = excluded.authors,
			categories = excluded.categories,
			keywords = excluded.keywords,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason,
			content_hash = excluded.content_hash
	`, uuid.NewString(), item.GUID, item.Link, item.Title, item.Description, item.Content,
		toMillis(item.PublishedAt), toNullMillis(item.UpdatedAt),
		encodeList(item.Authors), encodeList(item.Categories), encodeList(item.Keywords),
		item.IsFiltered, item.FilterReason, item.ContentHash, toMillis(time.Now()),
		feedName)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("feed not found: %s", feedName)
	}

	return nil
}

func (r *ItemRepo) UpdateItemFilterStatus(itemID string, isFiltered bool, filterReason string) error {
	_, err := r.db.Exec(`
		UPDATE items SET is_filtered = ?, filter_reason = ? WHERE id = ?
	`, isFiltered, filterReason, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item filter status: %w", err)
	}
	return nil
}

func (r *ItemRepo) UpdateItemKeywords(itemID string, keywords []string) error {
	_, err := r.db.Exec(`UPDATE items SET keywords = ? WHERE id = ?`, encodeList(keywords), itemID)
	if err != nil {
		return fmt.Errorf("failed to update item keywords: %w", err)
	}
	return nil
}

// CheckDuplicate reports whether the feed already stores an item with the content hash
func (r *ItemRepo) CheckDuplicate(feedName, contentHash string) (bool, *string, error) {
	var duplicateID string
	err := r.db.QueryRow(`
		SELECT i.id FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.content_hash = ?
		LIMIT 1
	`, feedName, contentHash).Scan(&duplicateID)
	if err == sql.ErrNoRows {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, &duplicateID, nil
}

// GetItemsForExtraction returns visible items with a link whose content is still pending
// or failed fewer than maxExtractionAttempts times
func (r *ItemRepo) GetItemsForExtraction(feedName string, limit int) ([]ItemForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT i.id, i.link, i.title
		FROM items i JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		  AND i.is_filtered = 0
		  AND i.link != ''
		  AND (i.content_extraction_status = 'pending'
		       OR (i.content_extraction_status = 'failed' AND i.extraction_attempts < ?))
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, maxExtractionAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	var items []ItemForExtraction
	for rows.Next() {
		var item ItemForExtraction
		if err := rows.Scan(&item.ID, &item.Link, &item.Title); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET content_extraction_status = ?, content_extracted_at = ?, content_extraction_error = ?,
		    extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, status, toNullMillis(extractedAt), errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}
	return nil
}

func (r *ItemRepo) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET extracted_content = ?, content_extraction_status = ?, content_extracted_at = ?,
		    content_extraction_error = ?, extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, content, status, toNullMillis(extractedAt), errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}
