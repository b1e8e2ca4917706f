package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("Expected clean migration version 1, got %d (dirty=%v)", version, dirty)
	}

	return db
}

func TestNewConnectionEmptyPath(t *testing.T) {
	if _, err := NewConnection(""); err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestRunMigrationsTwice(t *testing.T) {
	db := newTestDB(t)

	version, _, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected repeated migration to be a no-op, got: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestResetSchema(t *testing.T) {
	db := newTestDB(t)

	if err := ResetSchema(db); err != nil {
		t.Fatalf("Expected rollback to succeed, got: %v", err)
	}
	if _, err := NewFeedRepository(db).GetFeedCount(); err == nil {
		t.Error("Expected feeds table to be dropped")
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected migrations to re-apply, got: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected clean version 1, got %d (dirty=%v)", version, dirty)
	}
}

func TestFeedRepository(t *testing.T) {
	repo := NewFeedRepository(newTestDB(t))

	feed, err := repo.GetFeed("lenta")
	if err != nil {
		t.Fatal(err)
	}
	if feed != nil {
		t.Fatal("Expected no feed before upsert")
	}

	if err := repo.UpsertFeed("lenta", "https://lenta.ru/rss/news"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertFeed("lenta", "https://lenta.ru/rss/top7"); err != nil {
		t.Fatal(err)
	}

	count, err := repo.GetFeedCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 feed after repeated upsert, got %d", count)
	}

	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	nextFetch := time.Now().Add(time.Hour)
	err = repo.UpdateFeedMetadata("lenta", "Lenta.ru", "https://lenta.ru", "Новости", "", "ru", &published, nextFetch)
	if err != nil {
		t.Fatal(err)
	}

	feed, err = repo.GetFeed("lenta")
	if err != nil {
		t.Fatal(err)
	}
	if feed.FeedURL != "https://lenta.ru/rss/top7" {
		t.Errorf("Expected updated feed URL, got %s", feed.FeedURL)
	}
	if feed.Title != "Lenta.ru" || feed.Language != "ru" {
		t.Errorf("Expected metadata to be stored, got title=%q language=%q", feed.Title, feed.Language)
	}
	if feed.FeedPublishedAt == nil || !feed.FeedPublishedAt.Equal(published) {
		t.Errorf("Expected feed published at %v, got %v", published, feed.FeedPublishedAt)
	}
	if feed.NextFetchAt == nil || feed.NextFetchAt.Before(time.Now()) {
		t.Errorf("Expected next fetch in the future, got %v", feed.NextFetchAt)
	}
	if feed.LastFetchedAt == nil {
		t.Error("Expected last fetched time to be set")
	}

	if err := repo.UpdateFeedMetadata("missing", "", "", "", "", "", nil, nextFetch); err == nil {
		t.Error("Expected error for unknown feed")
	}
}

func seedItems(t *testing.T, db *DB) *ItemRepo {
	t.Helper()

	if err := NewFeedRepository(db).UpsertFeed("lenta", "https://lenta.ru/rss/news"); err != nil {
		t.Fatal(err)
	}

	repo := NewItemRepository(db)
	now := time.Now().UTC()
	items := []FeedItem{
		{GUID: "1", Title: "Центробанк повысил ставку", Link: "https://lenta.ru/1", PublishedAt: now.Add(-time.Hour), ContentHash: "h1", Keywords: []string{"центробанк", "ставк"}},
		{GUID: "2", Title: "Гороскоп", Link: "https://lenta.ru/2", PublishedAt: now.Add(-2 * time.Hour), ContentHash: "h2", IsFiltered: true, FilterReason: "horoscope"},
		{GUID: "3", Title: "Старая новость", Link: "", PublishedAt: now.Add(-72 * time.Hour), ContentHash: "h3", Authors: []string{"Редакция"}},
	}
	for _, item := range items {
		if err := repo.UpsertItem("lenta", item); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func TestItemRepositoryUpsertAndQuery(t *testing.T) {
	db := newTestDB(t)
	repo := seedItems(t, db)

	stats, err := repo.GetItemStats("lenta")
	if err != nil {
		t.Fatal(err)
	}
	if stats != (ItemStats{Total: 3, Visible: 2, Filtered: 1}) {
		t.Errorf("Expected stats 3/2/1, got %+v", stats)
	}

	items, err := repo.GetVisibleItems("lenta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 visible items, got %d", len(items))
	}
	if items[0].GUID != "1" {
		t.Errorf("Expected newest item first, got %s", items[0].GUID)
	}
	if items[0].FeedName != "lenta" {
		t.Errorf("Expected feed name 'lenta', got %q", items[0].FeedName)
	}
	if len(items[0].Keywords) != 2 || items[0].Keywords[0] != "центробанк" {
		t.Errorf("Expected keywords to round-trip, got %v", items[0].Keywords)
	}
	if items[1].Authors[0] != "Редакция" {
		t.Errorf("Expected authors to round-trip, got %v", items[1].Authors)
	}
	if items[0].ContentExtractionStatus != "pending" {
		t.Errorf("Expected pending extraction status, got %s", items[0].ContentExtractionStatus)
	}

	err = repo.UpsertItem("lenta", FeedItem{GUID: "1", Title: "Центробанк повысил ключевую ставку", PublishedAt: time.Now(), ContentHash: "h1b"})
	if err != nil {
		t.Fatal(err)
	}
	count, err := repo.GetItemCount("lenta")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("Expected upsert by GUID not to add items, got %d", count)
	}

	if err := repo.UpsertItem("unknown", FeedItem{GUID: "x", ContentHash: "x"}); err == nil {
		t.Error("Expected error for unknown feed")
	}
}

func TestItemRepositoryDuplicates(t *testing.T) {
	repo := seedItems(t, newTestDB(t))

	isDuplicate, id, err := repo.CheckDuplicate("lenta", "h2")
	if err != nil {
		t.Fatal(err)
	}
	if !isDuplicate || id == nil || *id == "" {
		t.Error("Expected stored hash to be reported as duplicate")
	}

	isDuplicate, _, err = repo.CheckDuplicate("lenta", "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if isDuplicate {
		t.Error("Expected unknown hash not to be a duplicate")
	}

	isDuplicate, _, err = repo.CheckDuplicate("other", "h1")
	if err != nil {
		t.Fatal(err)
	}
	if isDuplicate {
		t.Error("Expected duplicates to be scoped to the feed")
	}
}

func TestItemRepositoryClusterableItems(t *testing.T) {
	repo := seedItems(t, newTestDB(t))

	items, err := repo.GetClusterableItems(time.Now().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].GUID != "1" {
		t.Fatalf("Expected only the recent visible item, got %d items", len(items))
	}

	items, err = repo.GetClusterableItems(time.Now().Add(-96*time.Hour), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("Expected limit to apply, got %d items", len(items))
	}
}

func TestItemRepositoryUpdates(t *testing.T) {
	repo := seedItems(t, newTestDB(t))

	items, err := repo.GetAllItems("lenta")
	if err != nil {
		t.Fatal(err)
	}
	first := items[0]

	if err := repo.UpdateItemKeywords(first.ID, []string{"ставк"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateItemFilterStatus(first.ID, true, "manual"); err != nil {
		t.Fatal(err)
	}

	items, err = repo.GetAllItems("lenta")
	if err != nil {
		t.Fatal(err)
	}
	if !items[0].IsFiltered || items[0].FilterReason != "manual" {
		t.Errorf("Expected filter status to be updated, got %v %q", items[0].IsFiltered, items[0].FilterReason)
	}
	if len(items[0].Keywords) != 1 || items[0].Keywords[0] != "ставк" {
		t.Errorf("Expected keywords to be updated, got %v", items[0].Keywords)
	}
}

func TestItemRepositoryExtractionQueue(t *testing.T) {
	repo := seedItems(t, newTestDB(t))

	queue, err := repo.GetItemsForExtraction("lenta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 1 || queue[0].Link != "https://lenta.ru/1" {
		t.Fatalf("Expected only the visible item with a link, got %+v", queue)
	}

	now := time.Now()
	for i := 0; i < maxExtractionAttempts; i++ {
		if err := repo.UpdateExtractionStatus(queue[0].ID, "failed", &now, "timeout"); err != nil {
			t.Fatal(err)
		}
	}

	remaining, err := repo.GetItemsForExtraction("lenta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("Expected item to leave the queue after %d failures, got %d items", maxExtractionAttempts, len(remaining))
	}

	if err := repo.UpdateExtractedContentAndStatus(queue[0].ID, "Текст статьи", "success", &now, ""); err != nil {
		t.Fatal(err)
	}
	items, err := repo.GetVisibleItems("lenta", 1)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].ExtractedContent != "Текст статьи" || items[0].ContentExtractionStatus != "success" {
		t.Errorf("Expected extracted content to be stored, got %q %q", items[0].ExtractedContent, items[0].ContentExtractionStatus)
	}
}

func TestClusterRepository(t *testing.T) {
	db := newTestDB(t)
	itemRepo := seedItems(t, db)
	repo := NewClusterRepository(db)

	latest, err := repo.GetLatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatal("Expected no run before saving")
	}

	items, err := itemRepo.GetVisibleItems("lenta", 10)
	if err != nil {
		t.Fatal(err)
	}

	partition := cluster.Partition{
		0: {Label: 0, Members: []cluster.Entry{{Title: "a", Keywords: []string{"x"}}}, Indices: []int{1}},
		3: {Label: 3, Members: []cluster.Entry{{Title: "b", Link: "https://b"}, {Title: "c"}}, Indices: []int{0, 2}},
	}
	itemIDs := []string{items[0].ID, items[1].ID, ""}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := ClusterRun{
			ID:           id,
			Similarity:   "jaccard",
			MaxSize:      15,
			AvgSize:      4,
			Seed:         42,
			EntryCount:   3,
			ClusterCount: 2,
			Duration:     1500 * time.Millisecond,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.SaveRun(run, MembersFromPartition(id, partition, itemIDs)); err != nil {
			t.Fatal(err)
		}
	}

	latest, err = repo.GetLatestRun()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "run-3" {
		t.Errorf("Expected latest run 'run-3', got %s", latest.ID)
	}
	if latest.Duration != 1500*time.Millisecond || latest.Seed != 42 {
		t.Errorf("Expected run fields to round-trip, got %+v", latest)
	}

	members, err := repo.GetRunMembers("run-3")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 3 {
		t.Fatalf("Expected 3 members, got %d", len(members))
	}
	if members[0].Label != 0 || members[0].ItemID != items[1].ID {
		t.Errorf("Expected members ordered by label with item IDs, got %+v", members[0])
	}
	if members[2].ItemID != "" {
		t.Errorf("Expected empty item ID for unlinked member, got %q", members[2].ItemID)
	}

	rebuilt := PartitionFromMembers(members)
	if len(rebuilt) != 2 || rebuilt.EntryCount() != 3 {
		t.Fatalf("Expected rebuilt partition with 2 clusters and 3 entries, got %d/%d", len(rebuilt), rebuilt.EntryCount())
	}
	if got := rebuilt[3].Indices; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Expected indices [0 2] for label 3, got %v", got)
	}
	if rebuilt[0].Members[0].Keywords[0] != "x" {
		t.Error("Expected keywords to survive the round-trip")
	}

	removed, err := repo.PruneRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 pruned runs, got %d", removed)
	}
	count, err := repo.GetRunCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining run, got %d", count)
	}

	gone, err := repo.GetRunMembers("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gone) != 0 {
		t.Errorf("Expected members of pruned runs to be deleted, got %d", len(gone))
	}

	if _, err := repo.PruneRuns(0); err == nil {
		t.Error("Expected error for keep < 1")
	}
}
