// Package spectral implements normalized spectral clustering over a precomputed
// affinity matrix.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSeed          = 42
	DefaultMaxIterations = 300
	DefaultRestarts      = 10
)

var ErrFactorization = errors.New("eigendecomposition did not converge")

// Spectral embeds the affinity graph with the top eigenvectors of its normalized
// adjacency matrix and groups the embedded rows with k-means.
// Results are reproducible for a fixed seed.
type Spectral struct {
	seed          int64
	maxIterations int
	restarts      int
}

type Option func(*Spectral)

func WithMaxIterations(n int) Option {
	return func(s *Spectral) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

func WithRestarts(n int) Option {
	return func(s *Spectral) {
		if n > 0 {
			s.restarts = n
		}
	}
}

func New(seed int64, opts ...Option) *Spectral {
	s := &Spectral{
		seed:          seed,
		maxIterations: DefaultMaxIterations,
		restarts:      DefaultRestarts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit returns one label in [0, k) per row of affinity. Every label is used.
func (s *Spectral) Fit(affinity mat.Symmetric, k int) ([]int, error) {
	n := affinity.SymmetricDim()
	if k < 1 || k > n {
		return nil, fmt.Errorf("cannot split %d rows into %d clusters", n, k)
	}
	if k == 1 {
		return make([]int, n), nil
	}

	embedding, err := embed(affinity, k)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.seed))

	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < s.restarts; r++ {
		labels, inertia := s.kmeans(embedding, k, rng)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	return best, nil
}

// embed returns the row-normalized top-k eigenvectors of D^-1/2 W D^-1/2,
// one point per row.
func embed(affinity mat.Symmetric, k int) ([][]float64, error) {
	n := affinity.SymmetricDim()

	degree := make([]float64, n)
	weights := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := math.Max(0, affinity.At(i, j))
			weights.SetSym(i, j, w)
			degree[i] += w
			degree[j] += w
		}
	}

	invSqrt := make([]float64, n)
	for i, d := range degree {
		if d > 0 {
			invSqrt[i] = 1 / math.Sqrt(d)
		}
	}

	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			laplacian.SetSym(i, j, invSqrt[i]*weights.At(i, j)*invSqrt[j])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(laplacian, true); !ok {
		return nil, ErrFactorization
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// eigenvalues are ascending, so the top k are the last k columns
	points := make([][]float64, n)
	for i := range points {
		row := make([]float64, k)
		for c := 0; c < k; c++ {
			row[c] = vectors.At(i, n-1-c)
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		points[i] = row
	}

	return points, nil
}

func (s *Spectral) kmeans(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < s.maxIterations; iter++ {
		changed := assign(points, centroids, labels)
		fillEmpty(points, centroids, labels, k)
		updateCentroids(points, labels, centroids)
		if !changed && iter > 0 {
			break
		}
	}

	assign(points, centroids, labels)
	fillEmpty(points, centroids, labels, k)

	inertia := 0.0
	for i, p := range points {
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}

	return labels, inertia
}

// seedCentroids picks initial centroids with k-means++
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	chosen := make([]bool, n)

	first := rng.Intn(n)
	chosen[first] = true
	centroids = append(centroids, clone(points[first]))

	dist := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, sqDistance(p, c))
			}
			dist[i] = d
			total += d
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 && d > 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// all remaining points coincide with a centroid
			for i := range points {
				if !chosen[i] {
					next = i
					break
				}
			}
		}

		chosen[next] = true
		centroids = append(centroids, clone(points[next]))
	}

	return centroids
}

func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDistance(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// fillEmpty moves into each empty cluster the point farthest from its centroid
// among clusters that have more than one member.
func fillEmpty(points, centroids [][]float64, labels []int, k int) {
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			continue
		}

		far, farDist := -1, -1.0
		for i, p := range points {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := sqDistance(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}

		sizes[labels[far]]--
		sizes[c]++
		labels[far] = c
		centroids[c] = clone(points[far])
	}
}

func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dim := len(centroids[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		centroids[c] = sums[c]
	}
}

func sqDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
