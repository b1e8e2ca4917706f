package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Clustering
	MaxClusterSize  int
	AvgClusterSize  int
	ClusterSeed     int64
	ClusterWindow   time.Duration
	ClusterLimit    int
	ClusterKeepRuns int
	ClusterSchedule string
	DefaultLanguage string

	// Similarity
	Similarity          string
	SimilarityCacheSize int
	EmbeddingURL        string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingCacheSize  int
	RedisAddr           string

	// CLI mode
	Once    bool
	NoColor bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
