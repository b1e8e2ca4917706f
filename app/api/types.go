package api

import (
	"time"

	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/render"
	"github.com/lysyi3m/rss-clusters/app/tasks"
)

type RSSRendererInterface interface {
	Run(channel render.Channel, snapshot render.Snapshot) (string, error)
}

var _ RSSRendererInterface = (*render.RSS)(nil)

type Handler struct {
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	clusterRepo database.ClusterRepository
	configCache *feed.ConfigCache
	filterer    *feed.Filterer
	tagger      *feed.Tagger
	scheduler   tasks.Enqueuer
	rss         RSSRendererInterface
	html        *render.HTML
	channel     render.Channel
}

type runResponse struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Similarity   string    `json:"similarity"`
	MaxSize      int       `json:"max_size"`
	AvgSize      int       `json:"avg_size"`
	Seed         int64     `json:"seed"`
	EntryCount   int       `json:"entry_count"`
	ClusterCount int       `json:"cluster_count"`
	Duration     string    `json:"duration"`
}

type entryResponse struct {
	Title    string   `json:"title"`
	Link     string   `json:"link,omitempty"`
	Keywords []string `json:"keywords"`
}

type clusterResponse struct {
	Label       int             `json:"label"`
	Size        int             `json:"size"`
	TopKeywords []string        `json:"top_keywords"`
	Entries     []entryResponse `json:"entries"`
}

type clustersResponse struct {
	Run      runResponse       `json:"run"`
	Clusters []clusterResponse `json:"clusters"`
}
