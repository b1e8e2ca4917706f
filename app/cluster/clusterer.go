package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lysyi3m/rss-clusters/app/similarity"
)

const (
	// DefaultMaxSize is the default upper bound on cluster cardinality
	DefaultMaxSize = 15

	// DefaultAvgSize is the default expected cluster size used to pick k
	DefaultAvgSize = 4
)

// Clusterer recursively partitions entries until every cluster holds at most
// maxSize entries or cannot be split further.
type Clusterer struct {
	partitioner *Partitioner
	oracle      similarity.Oracle
	maxSize     int
	avgSize     int
	logger      *slog.Logger
}

type Option func(*Clusterer)

func WithMaxSize(size int) Option {
	return func(c *Clusterer) {
		c.maxSize = size
	}
}

func WithAvgSize(size int) Option {
	return func(c *Clusterer) {
		c.avgSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClusterer(partitioner *Partitioner, oracle similarity.Oracle, opts ...Option) (*Clusterer, error) {
	c := &Clusterer{
		partitioner: partitioner,
		oracle:      oracle,
		maxSize:     DefaultMaxSize,
		avgSize:     DefaultAvgSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.partitioner == nil || c.oracle == nil {
		return nil, fmt.Errorf("%w: partitioner and oracle are required", ErrInvalidOptions)
	}
	if c.maxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be at least 1, got %d", ErrInvalidOptions, c.maxSize)
	}
	if c.avgSize < 1 {
		return nil, fmt.Errorf("%w: avg size must be at least 1, got %d", ErrInvalidOptions, c.avgSize)
	}

	return c, nil
}

func (c *Clusterer) MaxSize() int {
	return c.maxSize
}

func (c *Clusterer) AvgSize() int {
	return c.avgSize
}

// Run partitions entries into clusters with pairwise distinct labels.
// Any error aborts the whole call; no partial partition is returned.
func (c *Clusterer) Run(ctx context.Context, entries []Entry) (Partition, error) {
	indices := make([]int, len(entries))
	for i := range indices {
		indices[i] = i
	}

	groups, err := c.cluster(ctx, entries, indices, 0)
	if err != nil {
		return nil, err
	}

	partition := make(Partition, len(groups))
	for label, members := range groups {
		cl := Cluster{
			Label:   label,
			Members: make([]Entry, len(members)),
			Indices: members,
		}
		for i, idx := range members {
			cl.Members[i] = entries[idx]
		}
		partition[label] = cl
	}

	return partition, nil
}

// cluster returns label -> input positions for the entries at indices.
// The renumbering counter is local to each call.
func (c *Clusterer) cluster(ctx context.Context, entries []Entry, indices []int, depth int) (map[int][]int, error) {
	if len(indices) == 0 {
		return map[int][]int{}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	k := max(1, len(indices)/c.avgSize)

	groups, k, err := c.split(entries, indices, k)
	if err != nil {
		return nil, err
	}

	result := make(map[int][]int, len(groups))
	var large []int
	for label, members := range groups {
		if len(members) > c.maxSize {
			large = append(large, label)
			continue
		}
		result[label] = members
	}
	sort.Ints(large)

	next := k
	for _, label := range large {
		c.logger.Debug("Splitting oversized cluster",
			"depth", depth,
			"label", label,
			"size", len(groups[label]),
			"max_size", c.maxSize)

		sub, err := c.cluster(ctx, entries, groups[label], depth+1)
		if err != nil {
			return nil, err
		}

		highest := next - 1
		for subLabel, members := range sub {
			newLabel := subLabel + next
			result[newLabel] = members
			highest = max(highest, newLabel)
		}
		next = highest + 1
	}

	return result, nil
}

// split partitions indices into k groups. When an oversized set comes back as a
// single group, k is raised until the primitive splits it or k reaches the set size.
func (c *Clusterer) split(entries []Entry, indices []int, k int) (map[int][]int, int, error) {
	subset := make([]Entry, len(indices))
	for i, idx := range indices {
		subset[i] = entries[idx]
	}
	affinity := BuildAffinityMatrix(subset, c.oracle)
	size := len(indices)

	for {
		labels, err := c.partitioner.Partition(affinity, k)
		if err != nil {
			return nil, 0, err
		}

		groups := groupByLabel(indices, labels)
		if size <= c.maxSize || len(groups) > 1 {
			return groups, k, nil
		}

		if k >= size {
			return nil, 0, fmt.Errorf("%w: %d entries stayed in one cluster with k=%d", ErrNoProgress, size, k)
		}

		next := min(size, max(k+1, 2, ceilDiv(size, c.maxSize)))
		c.logger.Debug("Partition left oversized cluster intact, raising k",
			"size", size,
			"k", k,
			"next_k", next)
		k = next
	}
}

func groupByLabel(indices []int, labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, label := range labels {
		groups[label] = append(groups[label], indices[i])
	}
	return groups
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
