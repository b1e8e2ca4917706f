package cluster

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

type funcPrimitive func(affinity mat.Symmetric, k int) ([]int, error)

func (f funcPrimitive) Fit(affinity mat.Symmetric, k int) ([]int, error) {
	return f(affinity, k)
}

func roundRobin() funcPrimitive {
	return func(affinity mat.Symmetric, k int) ([]int, error) {
		labels := make([]int, affinity.SymmetricDim())
		for i := range labels {
			labels[i] = i % k
		}
		return labels, nil
	}
}

func TestPartitionerInvalidClusterCount(t *testing.T) {
	p := NewPartitioner(roundRobin())
	m := mat.NewSymDense(3, nil)

	for _, k := range []int{0, -1, 4} {
		_, err := p.Partition(m, k)
		if !errors.Is(err, ErrInvalidClusterCount) {
			t.Errorf("Expected ErrInvalidClusterCount for k=%d, got %v", k, err)
		}
	}

	_, err := p.Partition(&mat.SymDense{}, 1)
	if !errors.Is(err, ErrInvalidClusterCount) {
		t.Errorf("Expected ErrInvalidClusterCount for empty matrix, got %v", err)
	}
}

func TestPartitionerLabelsEveryRow(t *testing.T) {
	p := NewPartitioner(roundRobin())
	m := mat.NewSymDense(5, nil)

	for k := 1; k <= 5; k++ {
		labels, err := p.Partition(m, k)
		if err != nil {
			t.Fatalf("Expected no error for k=%d, got %v", k, err)
		}
		if len(labels) != 5 {
			t.Fatalf("Expected 5 labels, got %d", len(labels))
		}
		for i, label := range labels {
			if label < 0 || label >= k {
				t.Errorf("Expected label in [0,%d) at row %d, got %d", k, i, label)
			}
		}
	}
}

func TestPartitionerSingleClusterSkipsPrimitive(t *testing.T) {
	called := false
	p := NewPartitioner(funcPrimitive(func(mat.Symmetric, int) ([]int, error) {
		called = true
		return nil, nil
	}))

	labels, err := p.Partition(mat.NewSymDense(2, nil), 1)
	if err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("Expected primitive not to be called for k=1")
	}
	if labels[0] != 0 || labels[1] != 0 {
		t.Errorf("Expected all zero labels, got %v", labels)
	}
}

func TestPartitionerRejectsBrokenPrimitive(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
	}{
		{"too few labels", []int{0}},
		{"label out of range", []int{0, 2}},
		{"negative label", []int{-1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPartitioner(funcPrimitive(func(mat.Symmetric, int) ([]int, error) {
				return tt.labels, nil
			}))
			_, err := p.Partition(mat.NewSymDense(2, nil), 2)
			if !errors.Is(err, ErrInvalidLabels) {
				t.Errorf("Expected ErrInvalidLabels, got %v", err)
			}
		})
	}
}

func TestPartitionerPropagatesPrimitiveError(t *testing.T) {
	boom := errors.New("eigendecomposition failed")
	p := NewPartitioner(funcPrimitive(func(mat.Symmetric, int) ([]int, error) {
		return nil, boom
	}))

	_, err := p.Partition(mat.NewSymDense(2, nil), 2)
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped primitive error, got %v", err)
	}
}
