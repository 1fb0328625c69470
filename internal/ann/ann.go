// Package ann implements in-memory cosine similarity search: a brute
// force scanner for small corpora and an HNSW graph for larger ones.
// Vectors are normalized at build time so scoring reduces to a dot
// product; all scores are clamped to [-1, 1], higher = more similar.
package ann

import (
	"fmt"
	"math"
)

// Hit is one scored match, identifying a vector by its build position.
type Hit struct {
	Index int
	Score float64
}

// Searcher answers top-k similarity queries over a fixed vector set.
// Implementations are safe for concurrent Search calls.
type Searcher interface {
	Search(query []float32, k int) ([]Hit, error)
	Len() int
	Dimension() int
}

// Config tunes the HNSW graph. Zero values fall back to defaults.
type Config struct {
	// M is the number of bidirectional links per node above layer 0.
	M int

	// EfConstruction is the candidate pool size during insertion.
	EfConstruction int

	// EfSearch is the candidate pool size during queries; raised to k
	// when k is larger.
	EfSearch int
}

const (
	defaultM              = 16
	defaultEfConstruction = 200
	defaultEfSearch       = 64
)

func (c Config) withDefaults() Config {
	if c.M <= 0 {
		c.M = defaultM
	}
	if c.EfConstruction <= 0 {
		c.EfConstruction = defaultEfConstruction
	}
	if c.EfSearch <= 0 {
		c.EfSearch = defaultEfSearch
	}
	return c
}

// New builds a searcher for the given vectors: a brute force scanner
// when the corpus is smaller than threshold, an HNSW graph otherwise.
// Graph construction below a few hundred vectors costs more than it
// saves, so small collections always scan.
func New(vectors [][]float32, threshold int, cfg Config) (Searcher, error) {
	if len(vectors) < threshold {
		return NewExact(vectors)
	}
	return NewHNSW(vectors, cfg)
}

// checkUniform verifies all vectors share one nonzero dimension.
func checkUniform(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 has zero dimension")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return dim, nil
}

// normalize returns a unit-length copy of v. A zero vector is returned
// as a zero copy and scores 0 against everything.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// clampScore bounds a similarity to [-1, 1]; float32 rounding can push
// the dot product of unit vectors slightly outside.
func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
