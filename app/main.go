package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-clusters/app/api"
	"github.com/lysyi3m/rss-clusters/app/cache"
	"github.com/lysyi3m/rss-clusters/app/cfg"
	"github.com/lysyi3m/rss-clusters/app/cluster"
	"github.com/lysyi3m/rss-clusters/app/database"
	"github.com/lysyi3m/rss-clusters/app/feed"
	"github.com/lysyi3m/rss-clusters/app/keywords"
	"github.com/lysyi3m/rss-clusters/app/render"
	"github.com/lysyi3m/rss-clusters/app/similarity"
	"github.com/lysyi3m/rss-clusters/app/spectral"
	"github.com/lysyi3m/rss-clusters/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.Once {
		if err := runOnce(c); err != nil {
			slog.Error("Clustering failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(c); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// components are shared by the CLI and the service
type components struct {
	configCache *feed.ConfigCache
	fetcher     *feed.Fetcher
	parser      *feed.Parser
	filterer    *feed.Filterer
	tagger      *feed.Tagger
	clusterer   *cluster.Clusterer
	oracle      similarity.Oracle
	fetchLimit  int
	closers     []func() error
}

func (cs *components) Close() {
	for _, closeFn := range cs.closers {
		if err := closeFn(); err != nil {
			slog.Warn("Failed to close component", "error", err)
		}
	}
}

func buildComponents(ctx context.Context, c *cfg.Cfg) (*components, error) {
	cs := &components{
		configCache: feed.NewConfigCache(c.FeedsDir),
		fetcher:     feed.NewFetcher(&http.Client{}, c.UserAgent),
		parser:      feed.NewParser(),
		filterer:    feed.NewFilterer(),
		tagger:      feed.NewTagger(keywords.NewRegistry(c.DefaultLanguage)),
		fetchLimit:  c.WorkerCount,
	}

	if err := cs.configCache.Run(); err != nil {
		return nil, fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "count", cs.configCache.GetConfigCount(), "dir", c.FeedsDir)

	oracle, err := cs.buildOracle(ctx, c)
	if err != nil {
		cs.Close()
		return nil, err
	}
	cs.oracle = oracle

	clusterer, err := cluster.NewClusterer(
		cluster.NewPartitioner(spectral.New(c.ClusterSeed)),
		oracle,
		cluster.WithMaxSize(c.MaxClusterSize),
		cluster.WithAvgSize(c.AvgClusterSize),
	)
	if err != nil {
		cs.Close()
		return nil, fmt.Errorf("failed to create clusterer: %w", err)
	}
	cs.clusterer = clusterer

	return cs, nil
}

func (cs *components) buildOracle(ctx context.Context, c *cfg.Cfg) (similarity.Oracle, error) {
	var oracle similarity.Oracle = similarity.NewJaccard()

	if c.Similarity == cfg.SimilarityEmbedding {
		embedder, err := similarity.NewOpenAIEmbedder(similarity.OpenAIConfig{
			BaseURL: c.EmbeddingURL,
			Model:   c.EmbeddingModel,
			APIKey:  c.EmbeddingAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}

		var vectors similarity.VectorCache
		if c.RedisAddr != "" {
			redisCache, err := cache.NewCache(ctx, c.RedisAddr, cache.DefaultVectorTTL)
			if err != nil {
				// Vectors are still memoized in process
				slog.Warn("Redis unavailable, vector cache disabled", "addr", c.RedisAddr, "error", err)
			} else {
				vectors = redisCache
				cs.closers = append(cs.closers, redisCache.Close)
			}
		}

		oracle, err = similarity.NewEmbeddingOracle(embedder, vectors, c.EmbeddingCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding oracle: %w", err)
		}
		slog.Info("Using embedding similarity", "model", c.EmbeddingModel, "url", c.EmbeddingURL)
	} else {
		slog.Info("Using jaccard similarity")
	}

	if c.SimilarityCacheSize > 0 {
		cached, err := similarity.NewCached(oracle, c.SimilarityCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create similarity cache: %w", err)
		}
		oracle = cached
	}

	return oracle, nil
}

func serve(c *cfg.Cfg) error {
	slog.Info("Starting RSS Clusters server", "version", c.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", c.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	cs, err := buildComponents(ctx, c)
	if err != nil {
		return err
	}
	defer cs.Close()

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	clusterRepo := database.NewClusterRepository(db)

	scheduler := tasks.NewScheduler(tasks.Dependencies{
		ConfigCache:      cs.configCache,
		FeedRepo:         feedRepo,
		ItemRepo:         itemRepo,
		ClusterRepo:      clusterRepo,
		Fetcher:          cs.fetcher,
		Parser:           cs.parser,
		Filterer:         cs.filterer,
		Tagger:           cs.tagger,
		ContentExtractor: feed.NewContentExtractor(),
		Clusterer:        cs.clusterer,
		Oracle:           cs.oracle,
		ClusterSettings: tasks.ClusterSettings{
			Window:     c.ClusterWindow,
			Limit:      c.ClusterLimit,
			KeepRuns:   c.ClusterKeepRuns,
			Similarity: c.Similarity,
			Seed:       c.ClusterSeed,
		},
	})
	slog.Info("Starting background scheduler", "workers", c.WorkerCount, "interval", c.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + c.Port
	}

	handler := api.NewHandler(cs.configCache, feedRepo, itemRepo, clusterRepo, cs.filterer, cs.tagger, scheduler,
		render.Channel{
			Title:    "News clusters",
			Link:     baseURL + "/clusters.html",
			SelfLink: baseURL + "/clusters.rss",
			Language: c.DefaultLanguage,
			Version:  c.Version,
		})

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port)
		slog.Info("Endpoints available",
			"clusters", baseURL+"/clusters",
			"html", baseURL+"/clusters.html",
			"rss", baseURL+"/clusters.rss",
			"health", baseURL+"/health")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("RSS Clusters server shutdown complete")
	return nil
}
