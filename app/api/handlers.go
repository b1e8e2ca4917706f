package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/render"
	"github.com/lysyi3m/rss-clusters/app/tasks"
)

const clusterTopKeywords = 5

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	itemRepo database.ItemRepository, clusterRepo database.ClusterRepository,
	filterer *feed.Filterer, tagger *feed.Tagger,
	scheduler tasks.Enqueuer, channel render.Channel) *Handler {
	return &Handler{
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		clusterRepo: clusterRepo,
		configCache: configCache,
		filterer:    filterer,
		tagger:      tagger,
		scheduler:   scheduler,
		rss:         render.NewRSS(),
		html:        render.NewHTML(render.DefaultCloudSize),
		channel:     channel,
	}
}

// loadSnapshot returns the run named by the "run" query parameter, or the latest run.
// A nil run means there is nothing to show yet.
func (h *Handler) loadSnapshot(c *gin.Context) (*database.ClusterRun, render.Snapshot, bool) {
	var run *database.ClusterRun
	var err error

	if runID := c.Query("run"); runID != "" {
		run, err = h.clusterRepo.GetRun(runID)
	} else {
		run, err = h.clusterRepo.GetLatestRun()
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_cluster_run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, render.Snapshot{}, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No cluster run found"})
		return nil, render.Snapshot{}, false
	}

	members, err := h.clusterRepo.GetRunMembers(run.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_cluster_members", "run_id", run.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, render.Snapshot{}, false
	}

	snapshot := render.Snapshot{
		ID:          run.ID,
		GeneratedAt: run.CreatedAt,
		Partition:   database.PartitionFromMembers(members),
	}

	c.Header("X-Cluster-Run", run.ID)
	c.Header("X-Cluster-Count", strconv.Itoa(run.ClusterCount))
	c.Header("X-Cluster-Entries", strconv.Itoa(run.EntryCount))
	c.Header("X-Last-Updated", run.CreatedAt.In(time.Local).Format(time.RFC3339))

	return run, snapshot, true
}

func (h *Handler) GetClusters(c *gin.Context) {
	run, snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	response := clustersResponse{
		Run: runResponse{
			ID:           run.ID,
			CreatedAt:    run.CreatedAt,
			Similarity:   run.Similarity,
			MaxSize:      run.MaxSize,
			AvgSize:      run.AvgSize,
			Seed:         run.Seed,
			EntryCount:   run.EntryCount,
			ClusterCount: run.ClusterCount,
			Duration:     run.Duration.String(),
		},
		Clusters: make([]clusterResponse, 0, len(snapshot.Partition)),
	}

	for _, cl := range snapshot.Partition.Clusters() {
		entries := make([]entryResponse, len(cl.Members))
		for i, entry := range cl.Members {
			entries[i] = entryResponse{Title: entry.Title, Link: entry.Link, Keywords: entry.Keywords}
		}

		top := render.KeywordFrequencies(cluster.Partition{cl.Label: cl}, clusterTopKeywords)
		topKeywords := make([]string, len(top))
		for i, kw := range top {
			topKeywords[i] = kw.Name
		}

		response.Clusters = append(response.Clusters, clusterResponse{
			Label:       cl.Label,
			Size:        cl.Size(),
			TopKeywords: topKeywords,
			Entries:     entries,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetClustersHTML(c *gin.Context) {
	_, snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.html.Render(&buf, h.channel, snapshot); err != nil {
		slog.Error("HTML rendering error", "run_id", snapshot.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) GetClustersRSS(c *gin.Context) {
	_, snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	rss, err := h.rss.Run(h.channel, snapshot)
	if err != nil {
		slog.Error("RSS generation error", "run_id", snapshot.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.channel.Version,
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	if runCount, err := h.clusterRepo.GetRunCount(); err == nil {
		health["cluster_runs"] = runCount
	}

	if run, err := h.clusterRepo.GetLatestRun(); err == nil && run != nil {
		health["last_cluster_run"] = run.CreatedAt.In(time.Local).Format(time.RFC3339)
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, name := range h.configCache.Names() {
		feedConfig, ok := configs[name]
		if !ok {
			continue
		}
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"language":         feedConfig.Settings.Language,
			"max_items":        feedConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(feedConfig.Filters),
		}

		if dbFeed, err := h.feedRepo.GetFeed(feedConfig.Name); err == nil && dbFeed != nil {
			feedInfo["title"] = dbFeed.Title
			feedInfo["last_fetched_at"] = dbFeed.LastFetchedAt
			feedInfo["next_fetch_at"] = dbFeed.NextFetchAt
			feedInfo["updated_at"] = dbFeed.UpdatedAt
			if feedConfig.Settings.Language == "" {
				feedInfo["language"] = dbFeed.Language
			}
		}

		if itemCount, err := h.itemRepo.GetItemCount(feedConfig.Name); err == nil {
			feedInfo["item_count"] = itemCount
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            dbFeed.Title,
		"language":         dbFeed.Language,
		"enabled":          feedConfig.Settings.Enabled,
		"extract_content":  feedConfig.Settings.ExtractContent,
		"max_items":        feedConfig.Settings.MaxItems,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"filters":          feedConfig.Filters,
	}

	details["database"] = map[string]interface{}{
		"id":              dbFeed.ID,
		"name":            dbFeed.Name,
		"last_fetched_at": dbFeed.LastFetchedAt,
		"next_fetch_at":   dbFeed.NextFetchAt,
		"created_at":      dbFeed.CreatedAt,
		"updated_at":      dbFeed.UpdatedAt,
	}

	if stats, err := h.itemRepo.GetItemStats(name); err == nil {
		details["items"] = stats
	}

	c.JSON(http.StatusOK, details)
}

// APIReloadFeed re-reads the feed's yaml file, then syncs it and re-applies its filters
func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncFeedTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncFeedTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	refilterFeedTask := tasks.NewRefilterFeedTask(name, feedConfig, h.filterer, h.tagger, h.feedRepo, h.itemRepo)
	if err := h.scheduler.EnqueueTask(refilterFeedTask); err != nil {
		slog.Error("Error enqueueing refilter task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue refilter task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued successfully",
		"feed": gin.H{
			"name": name,
			"url":  feedConfig.URL,
		},
		"tasks": []gin.H{
			{"id": syncFeedTask.ID, "type": syncFeedTask.Type},
			{"id": refilterFeedTask.ID, "type": refilterFeedTask.Type},
		},
	})
}

func (h *Handler) APIRunClusters(c *gin.Context) {
	clusterTask := h.scheduler.NewClusterTask()
	if err := h.scheduler.EnqueueTask(clusterTask); err != nil {
		slog.Error("Error enqueueing cluster task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue cluster task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   clusterTask.ID,
			"type": clusterTask.Type,
		},
	})
}
