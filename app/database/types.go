package database

import (
	"time"
)

type Feed struct {
	ID              string
	Name            string
	FeedURL         string
	Link            string
	Title           string
	Description     string
	ImageURL        string
	Language        string
	LastFetchedAt   *time.Time
	NextFetchAt     *time.Time
	FeedPublishedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Item struct {
	ID                      string
	FeedID                  string
	FeedName                string
	GUID                    string
	Link                    string
	Title                   string
	Description             string
	Content                 string
	PublishedAt             time.Time
	UpdatedAt               *time.Time
	Authors                 []string
	Categories              []string
	Keywords                []string
	IsFiltered              bool
	FilterReason            string
	ContentHash             string
	ExtractedContent        string
	ContentExtractedAt      *time.Time
	ContentExtractionStatus string // pending, success, failed
	ContentExtractionError  string
	ExtractionAttempts      int
	CreatedAt               time.Time
}

// FeedItem is what the ingestion tasks write; the remaining Item columns are owned by
// the repository and the content extraction
type FeedItem struct {
	GUID         string
	Title        string
	Link         string
	Description  string
	Content      string
	PublishedAt  time.Time
	UpdatedAt    *time.Time
	Authors      []string
	Categories   []string
	Keywords     []string
	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

type ItemForExtraction struct {
	ID    string
	Link  string
	Title string
}

type ItemStats struct {
	Total    int `json:"total"`
	Visible  int `json:"visible"`
	Filtered int `json:"filtered"`
}

// ClusterRun is one persisted clustering result
type ClusterRun struct {
	ID           string
	Similarity   string
	MaxSize      int
	AvgSize      int
	Seed         int64
	EntryCount   int
	ClusterCount int
	Duration     time.Duration
	CreatedAt    time.Time
}

// ClusterMember is a snapshot of one clustered headline. Position is the entry's index
// in the run input; ItemID is empty once the source item is gone.
type ClusterMember struct {
	RunID    string
	Position int
	Label    int
	ItemID   string
	Title    string
	Link     string
	Keywords []string
}
