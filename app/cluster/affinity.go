package cluster

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lysyi3m/rss-clusters/app/similarity"
)

// BuildAffinityMatrix scores every pair of entries with the oracle.
// Row and column i correspond to entries[i]. The oracle is symmetric, so only the
// upper triangle is computed; SymDense mirrors it.
func BuildAffinityMatrix(entries []Entry, oracle similarity.Oracle) *mat.SymDense {
	n := len(entries)
	if n == 0 {
		return &mat.SymDense{}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, oracle.Similarity(entries[i].Keywords, entries[j].Keywords))
		}
	}

	return m
}
