package spectral

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// blocks builds an affinity matrix with strong links inside each group and weak links across
func blocks(sizes []int, inside, across float64) *mat.SymDense {
	n := 0
	for _, s := range sizes {
		n += s
	}

	group := make([]int, 0, n)
	for g, s := range sizes {
		for i := 0; i < s; i++ {
			group = append(group, g)
		}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if group[i] == group[j] {
				m.SetSym(i, j, inside)
			} else {
				m.SetSym(i, j, across)
			}
		}
	}
	return m
}

func TestFitSeparatesBlocks(t *testing.T) {
	sizes := []int{4, 3, 5}
	m := blocks(sizes, 0.9, 0.02)

	labels, err := New(DefaultSeed).Fit(m, 3)
	if err != nil {
		t.Fatal(err)
	}

	start := 0
	seen := make(map[int]bool)
	for _, size := range sizes {
		label := labels[start]
		for i := start; i < start+size; i++ {
			if labels[i] != label {
				t.Errorf("Expected row %d in cluster %d, got %d (labels %v)", i, label, labels[i], labels)
			}
		}
		if seen[label] {
			t.Errorf("Expected distinct label per block, got %v", labels)
		}
		seen[label] = true
		start += size
	}
}

func TestFitUsesEveryLabel(t *testing.T) {
	tests := []struct {
		name string
		m    *mat.SymDense
		k    int
	}{
		{"zero affinity", mat.NewSymDense(5, nil), 3},
		{"uniform affinity", blocks([]int{6}, 1, 1), 4},
		{"k equals n", blocks([]int{2, 2}, 0.8, 0.1), 4},
		{"negative affinity", blocks([]int{3, 3}, 0.5, -0.7), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := New(7).Fit(tt.m, tt.k)
			if err != nil {
				t.Fatal(err)
			}

			if len(labels) != tt.m.SymmetricDim() {
				t.Fatalf("Expected %d labels, got %d", tt.m.SymmetricDim(), len(labels))
			}

			used := make(map[int]bool)
			for _, l := range labels {
				if l < 0 || l >= tt.k {
					t.Fatalf("Expected labels in [0,%d), got %v", tt.k, labels)
				}
				used[l] = true
			}
			if len(used) != tt.k {
				t.Errorf("Expected all %d labels used, got %v", tt.k, labels)
			}
		})
	}
}

func TestFitDeterministicForSeed(t *testing.T) {
	m := blocks([]int{5, 5, 5, 5}, 0.6, 0.3)

	first, err := New(42).Fit(m, 4)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(42).Fit(m, 4)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical labels for the same seed, got %v and %v", first, second)
	}
}

func TestFitSingleCluster(t *testing.T) {
	labels, err := New(DefaultSeed).Fit(blocks([]int{3}, 0.5, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, l := range labels {
		if l != 0 {
			t.Errorf("Expected label 0 at row %d, got %d", i, l)
		}
	}
}

func TestFitInvalidK(t *testing.T) {
	s := New(DefaultSeed, WithRestarts(2), WithMaxIterations(50))
	m := mat.NewSymDense(3, nil)

	for _, k := range []int{0, 4} {
		if _, err := s.Fit(m, k); err == nil {
			t.Errorf("Expected error for k=%d", k)
		}
	}
}
