package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sashabaranov/go-openai"
)

// DefaultVectorCacheSize is the default number of keyword-set vectors held in memory
const DefaultVectorCacheSize = 20000

// Embedder turns texts into vectors
type Embedder interface {
	Generate(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache stores vectors by keyword-set key across runs
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float32, bool, error)
	SetVector(ctx context.Context, key string, vector []float32) error
}

// Warmer is implemented by oracles that must load state before scoring
type Warmer interface {
	Warm(ctx context.Context, sets [][]string) error
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// Self-hosted endpoints ignore the key but the client requires one
		apiKey = "unused"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}, nil
}

func (e *OpenAIEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API call failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("API returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		vectors[idx] = data.Embedding
	}

	return vectors, nil
}

// EmbeddingOracle scores keyword sets by the cosine of the embeddings of their
// space-joined keywords. Sets must be loaded with Warm first; unknown sets score 0.
// At most size vectors are kept, least recently warmed first out.
type EmbeddingOracle struct {
	embedder Embedder
	cache    VectorCache
	logger   *slog.Logger
	vectors  *lru.Cache[string, []float32]
	size     int
}

func NewEmbeddingOracle(embedder Embedder, cache VectorCache, size int) (*EmbeddingOracle, error) {
	if size <= 0 {
		size = DefaultVectorCacheSize
	}

	vectors, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector cache: %w", err)
	}

	return &EmbeddingOracle{
		embedder: embedder,
		cache:    cache,
		logger:   slog.Default(),
		vectors:  vectors,
		size:     size,
	}, nil
}

// Warm loads vectors for every set not already known, from the vector cache first
// and then from the embedder in a single batch. A call with more distinct sets than
// the oracle holds fails, since the first vectors would be evicted before scoring.
func (o *EmbeddingOracle) Warm(ctx context.Context, sets [][]string) error {
	var missingKeys []string
	var missingTexts []string
	queued := make(map[string]bool)

	for _, set := range sets {
		if len(set) == 0 {
			continue
		}
		key := Key(set)
		if queued[key] {
			continue
		}
		queued[key] = true

		if len(queued) > o.size {
			return fmt.Errorf("more than %d distinct keyword sets to warm", o.size)
		}

		// Get marks the vector recently used so this batch does not evict it
		if _, ok := o.vectors.Get(key); ok {
			continue
		}

		if o.cache != nil {
			vector, ok, err := o.cache.GetVector(ctx, key)
			if err != nil {
				o.logger.Warn("Vector cache lookup failed", "error", err)
			} else if ok {
				o.vectors.Add(key, vector)
				continue
			}
		}

		missingKeys = append(missingKeys, key)
		missingTexts = append(missingTexts, strings.Join(set, " "))
	}

	if len(missingTexts) == 0 {
		return nil
	}

	vectors, err := o.embedder.Generate(ctx, missingTexts)
	if err != nil {
		return fmt.Errorf("failed to embed keyword sets: %w", err)
	}

	for i, key := range missingKeys {
		o.vectors.Add(key, vectors[i])
		if o.cache != nil {
			if err := o.cache.SetVector(ctx, key, vectors[i]); err != nil {
				o.logger.Warn("Vector cache store failed", "error", err)
			}
		}
	}

	o.logger.Debug("Embedding oracle warmed", "embedded", len(missingKeys), "requested", len(sets))
	return nil
}

func (o *EmbeddingOracle) Similarity(a, b []string) float64 {
	va, okA := o.vectors.Peek(Key(a))
	vb, okB := o.vectors.Peek(Key(b))
	if !okA || !okB {
		return 0
	}

	return math.Max(0, CosineSimilarity(va, vb))
}

// Len returns the number of vectors held in memory
func (o *EmbeddingOracle) Len() int {
	return o.vectors.Len()
}

// Warm forwards to the memoized oracle when it needs warming
func (c *Cached) Warm(ctx context.Context, sets [][]string) error {
	if w, ok := c.oracle.(Warmer); ok {
		return w.Warm(ctx, sets)
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched lengths and zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
