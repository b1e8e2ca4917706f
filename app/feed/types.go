package feed

import (
	"time"
)

type Metadata struct {
	Title           string
	Link            string
	Description     string
	ImageURL        string
	Language        string
	FeedPublishedAt *time.Time
}

// Item is a normalized feed entry. Missing fields are empty strings, never absent.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	UpdatedAt   *time.Time
	Authors     []string // "email (name)", "name" or "email"
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
	Keywords     []string
}
