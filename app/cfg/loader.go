package cfg

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	SimilarityJaccard   = "jaccard"
	SimilarityEmbedding = "embedding"
)

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/rss-clusters.db" description:"Path to the sqlite database file"`

	// Application configuration
	FeedsDir          string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Clustering
	MaxClusterSize  int           `long:"max-cluster-size" env:"MAX_CLUSTER_SIZE" default:"15" description:"Largest allowed cluster"`
	AvgClusterSize  int           `long:"avg-cluster-size" env:"AVG_CLUSTER_SIZE" default:"4" description:"Expected cluster size used to pick the number of clusters"`
	ClusterSeed     int64         `long:"seed" env:"CLUSTER_SEED" default:"42" description:"Random seed of the spectral clustering"`
	ClusterWindow   time.Duration `long:"cluster-window" env:"CLUSTER_WINDOW" default:"24h" description:"Only cluster items published within this window"`
	ClusterLimit    int           `long:"cluster-limit" env:"CLUSTER_LIMIT" default:"500" description:"Maximum number of items per cluster run (0 for no limit)"`
	ClusterKeepRuns int           `long:"cluster-keep-runs" env:"CLUSTER_KEEP_RUNS" default:"48" description:"Number of cluster runs to keep (0 keeps all)"`
	ClusterSchedule string        `long:"cluster-schedule" env:"CLUSTER_SCHEDULE" default:"*/15 * * * *" description:"Cron schedule of cluster runs (empty disables)"`
	DefaultLanguage string        `long:"language" env:"DEFAULT_LANGUAGE" default:"ru" description:"Keyword language for feeds that do not declare one (en, ru, ja)"`

	// Similarity
	Similarity          string `long:"similarity" env:"SIMILARITY" default:"jaccard" choice:"jaccard" choice:"embedding" description:"Keyword set similarity"`
	SimilarityCacheSize int    `long:"similarity-cache-size" env:"SIMILARITY_CACHE_SIZE" default:"100000" description:"Memoized similarity scores (0 disables)"`
	EmbeddingURL        string `long:"embedding-url" env:"EMBEDDING_URL" description:"OpenAI-compatible embeddings endpoint"`
	EmbeddingModel      string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Embedding model name"`
	EmbeddingAPIKey     string `long:"embedding-api-key" env:"EMBEDDING_API_KEY" description:"Embedding API key"`
	EmbeddingCacheSize  int    `long:"embedding-cache-size" env:"EMBEDDING_CACHE_SIZE" default:"20000" description:"Keyword-set vectors kept in memory, must exceed the distinct sets of one cluster run"`
	RedisAddr           string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the embedding vector cache (optional)"`

	// CLI mode
	Once    bool `long:"once" description:"Fetch all enabled feeds once, print clusters and exit"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"Disable colored console output"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS-Clusters/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables. It returns nil without
// an error when help was requested.
func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		FeedsDir:            raw.FeedsDir,
		Port:                raw.Port,
		BaseUrl:             strings.TrimRight(raw.BaseUrl, "/"),
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		APIAccessKey:        raw.APIAccessKey,
		MaxClusterSize:      raw.MaxClusterSize,
		AvgClusterSize:      raw.AvgClusterSize,
		ClusterSeed:         raw.ClusterSeed,
		ClusterWindow:       raw.ClusterWindow,
		ClusterLimit:        raw.ClusterLimit,
		ClusterKeepRuns:     raw.ClusterKeepRuns,
		ClusterSchedule:     strings.TrimSpace(raw.ClusterSchedule),
		DefaultLanguage:     raw.DefaultLanguage,
		Similarity:          raw.Similarity,
		SimilarityCacheSize: raw.SimilarityCacheSize,
		EmbeddingURL:        raw.EmbeddingURL,
		EmbeddingModel:      raw.EmbeddingModel,
		EmbeddingAPIKey:     raw.EmbeddingAPIKey,
		EmbeddingCacheSize:  raw.EmbeddingCacheSize,
		RedisAddr:           raw.RedisAddr,
		Once:                raw.Once,
		NoColor:             raw.NoColor,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.MaxClusterSize < 1 {
		return fmt.Errorf("max cluster size must be at least 1, got %d", cfg.MaxClusterSize)
	}
	if cfg.AvgClusterSize < 1 {
		return fmt.Errorf("avg cluster size must be at least 1, got %d", cfg.AvgClusterSize)
	}
	if cfg.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval < 1 {
		return fmt.Errorf("scheduler interval must be at least 1 second, got %d", cfg.SchedulerInterval)
	}
	if cfg.ClusterWindow <= 0 {
		return fmt.Errorf("cluster window must be positive, got %s", cfg.ClusterWindow)
	}
	if cfg.Similarity == SimilarityEmbedding && cfg.EmbeddingURL == "" {
		return fmt.Errorf("embedding similarity requires an embedding URL")
	}
	if cfg.EmbeddingCacheSize < 1 {
		return fmt.Errorf("embedding cache size must be at least 1, got %d", cfg.EmbeddingCacheSize)
	}
	if cfg.Similarity == SimilarityEmbedding && cfg.ClusterLimit > 0 && cfg.EmbeddingCacheSize < cfg.ClusterLimit {
		return fmt.Errorf("embedding cache size %d is smaller than the cluster limit %d", cfg.EmbeddingCacheSize, cfg.ClusterLimit)
	}
	return nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
