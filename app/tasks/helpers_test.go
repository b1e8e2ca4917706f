package tasks

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/keywords"
	"github.com/lysyi3m/rss-clusters/app/similarity"
	"github.com/lysyi3m/rss-clusters/app/spectral"
)

type testEnv struct {
	feedRepo    *database.FeedRepo
	itemRepo    *database.ItemRepo
	clusterRepo *database.ClusterRepo
	fetcher     *feed.Fetcher
	parser      *feed.Parser
	filterer    *feed.Filterer
	tagger      *feed.Tagger
	extractor   *feed.ContentExtractor
	server      *httptest.Server
}

func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		feedRepo:    database.NewFeedRepository(db),
		itemRepo:    database.NewItemRepository(db),
		clusterRepo: database.NewClusterRepository(db),
		parser:      feed.NewParser(),
		filterer:    feed.NewFilterer(),
		tagger:      feed.NewTagger(keywords.NewRegistry("en")),
		extractor:   feed.NewContentExtractor(),
	}

	if handler != nil {
		env.server = httptest.NewServer(handler)
		t.Cleanup(env.server.Close)
		env.fetcher = feed.NewFetcher(env.server.Client(), "RSS-Clusters/test")
	}

	return env
}

func (e *testEnv) feedConfig(name string, filters ...feed.ConfigFilter) *feed.Config {
	return &feed.Config{
		Name: name,
		URL:  e.server.URL + "/feed.xml",
		Settings: feed.ConfigSettings{
			Enabled:         true,
			RefreshInterval: 3600,
			MaxItems:        100,
			Timeout:         5,
		},
		Filters: filters,
	}
}

func newTestClusterer(t *testing.T, maxSize, avgSize int) *cluster.Clusterer {
	t.Helper()

	clusterer, err := cluster.NewClusterer(
		cluster.NewPartitioner(spectral.New(spectral.DefaultSeed)),
		similarity.NewJaccard(),
		cluster.WithMaxSize(maxSize),
		cluster.WithAvgSize(avgSize),
	)
	if err != nil {
		t.Fatal(err)
	}
	return clusterer
}

func rssFeed(items ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Test News</title><link>https://example.com</link><language>en</language>`)
	for _, item := range items {
		b.WriteString(item)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func rssItem(guid, title, link, pubDate string) string {
	return `<item><guid>` + guid + `</guid><title>` + title + `</title><link>` + link + `</link><pubDate>` + pubDate + `</pubDate></item>`
}

func writeFeedConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
