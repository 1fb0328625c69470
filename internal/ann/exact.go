package ann

import (
	"container/heap"
	"fmt"
	"sort"
)

// Exact scans every vector per query. At small corpus sizes this beats
// any graph structure and returns perfect results.
type Exact struct {
	dim  int
	rows [][]float32
}

// NewExact builds a brute force searcher over normalized copies of the
// input vectors.
func NewExact(vectors [][]float32) (*Exact, error) {
	dim, err := checkUniform(vectors)
	if err != nil {
		return nil, err
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		rows[i] = normalize(v)
	}
	return &Exact{dim: dim, rows: rows}, nil
}

func (e *Exact) Len() int       { return len(e.rows) }
func (e *Exact) Dimension() int { return e.dim }

// Search returns the k most similar vectors, ordered by non-increasing
// score.
func (e *Exact) Search(query []float32, k int) ([]Hit, error) {
	if len(e.rows) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != e.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), e.dim)
	}
	q := normalize(query)

	// Min-heap of the k best so far; the root is the worst keeper.
	best := make(hitMinHeap, 0, k+1)
	for i, row := range e.rows {
		s := clampScore(dot(q, row))
		if len(best) < k {
			heap.Push(&best, Hit{Index: i, Score: s})
		} else if s > best[0].Score {
			best[0] = Hit{Index: i, Score: s}
			heap.Fix(&best, 0)
		}
	}

	hits := []Hit(best)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}
