package cluster

import (
	"testing"

	"github.com/lysyi3m/rss-clusters/app/similarity"
)

// asymmetricOracle would produce an asymmetric matrix if both triangles were computed
type asymmetricOracle struct{}

func (asymmetricOracle) Similarity(a, b []string) float64 {
	return float64(len(a)) + 10*float64(len(b))
}

func TestBuildAffinityMatrixSymmetric(t *testing.T) {
	entries := []Entry{
		{Title: "Central bank raises key rate", Keywords: []string{"bank", "rate"}},
		{Title: "Rate decision surprises markets", Keywords: []string{"rate", "decision", "market"}},
		{Title: "Football club wins cup", Keywords: []string{"football", "club", "cup"}},
		{Title: "No keywords", Keywords: nil},
	}

	for _, oracle := range []similarity.Oracle{similarity.NewJaccard(), asymmetricOracle{}} {
		m := BuildAffinityMatrix(entries, oracle)

		if m.SymmetricDim() != len(entries) {
			t.Fatalf("Expected dimension %d, got %d", len(entries), m.SymmetricDim())
		}

		for i := range entries {
			for j := range entries {
				if m.At(i, j) != m.At(j, i) {
					t.Errorf("Expected M[%d][%d] == M[%d][%d], got %f and %f", i, j, j, i, m.At(i, j), m.At(j, i))
				}
			}
		}
	}
}

func TestBuildAffinityMatrixValues(t *testing.T) {
	entries := []Entry{
		{Keywords: []string{"a", "b"}},
		{Keywords: []string{"b", "c"}},
		{Keywords: []string{}},
	}
	original := []Entry{
		{Keywords: []string{"a", "b"}},
		{Keywords: []string{"b", "c"}},
		{Keywords: []string{}},
	}
	oracle := similarity.NewJaccard()

	m := BuildAffinityMatrix(entries, oracle)

	for i := range entries {
		for j := range entries {
			expected := oracle.Similarity(entries[i].Keywords, entries[j].Keywords)
			if m.At(i, j) != expected {
				t.Errorf("Expected M[%d][%d] = %f, got %f", i, j, expected, m.At(i, j))
			}
		}
	}

	for i := range entries {
		if len(entries[i].Keywords) != len(original[i].Keywords) {
			t.Errorf("Expected entry %d to be unchanged", i)
		}
		for j := range entries[i].Keywords {
			if entries[i].Keywords[j] != original[i].Keywords[j] {
				t.Errorf("Expected entry %d keywords to be unchanged", i)
			}
		}
	}
}

func TestBuildAffinityMatrixEmpty(t *testing.T) {
	m := BuildAffinityMatrix(nil, similarity.NewJaccard())
	if m.SymmetricDim() != 0 {
		t.Errorf("Expected empty matrix, got dimension %d", m.SymmetricDim())
	}
}
