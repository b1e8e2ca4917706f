package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Primitive is a graph-partitioning algorithm splitting a weighted similarity graph
// into k groups. Implementations must return one label in [0, k) per row.
type Primitive interface {
	Fit(affinity mat.Symmetric, k int) ([]int, error)
}

// Partitioner validates requests to a Primitive and the labels it returns.
// Labels are stable across runs only if the primitive is deterministic (seeded).
type Partitioner struct {
	primitive Primitive
}

func NewPartitioner(primitive Primitive) *Partitioner {
	return &Partitioner{primitive: primitive}
}

func (p *Partitioner) Partition(affinity mat.Symmetric, k int) ([]int, error) {
	n := 0
	if affinity != nil {
		n = affinity.SymmetricDim()
	}

	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d for %d entries", ErrInvalidClusterCount, k, n)
	}

	if k == 1 {
		return make([]int, n), nil
	}

	labels, err := p.primitive.Fit(affinity, k)
	if err != nil {
		return nil, fmt.Errorf("failed to partition affinity matrix: %w", err)
	}

	if len(labels) != n {
		return nil, fmt.Errorf("%w: got %d labels for %d entries", ErrInvalidLabels, len(labels), n)
	}
	for i, label := range labels {
		if label < 0 || label >= k {
			return nil, fmt.Errorf("%w: label %d at row %d outside [0, %d)", ErrInvalidLabels, label, i, k)
		}
	}

	return labels, nil
}
