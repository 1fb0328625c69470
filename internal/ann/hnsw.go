package ann

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// HNSW is a hierarchical navigable small world graph over normalized
// vectors. Construction is deterministic: the level generator is
// seeded with a fixed value so identical input always yields an
// identical graph.
type HNSW struct {
	dim      int
	rows     [][]float32
	nodes    []hnswNode
	entry    int32
	maxLevel int

	m      int
	maxM0  int
	efCons int
	efSrch int
	mult   float64
}

type hnswNode struct {
	// links[l] holds the neighbor indices at level l. A node
	// participates in levels 0..len(links)-1.
	links [][]int32
}

// NewHNSW builds the graph over normalized copies of the input
// vectors.
func NewHNSW(vectors [][]float32, cfg Config) (*HNSW, error) {
	dim, err := checkUniform(vectors)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	h := &HNSW{
		dim:      dim,
		rows:     make([][]float32, len(vectors)),
		nodes:    make([]hnswNode, len(vectors)),
		entry:    -1,
		maxLevel: -1,
		m:        cfg.M,
		maxM0:    cfg.M * 2,
		efCons:   cfg.EfConstruction,
		efSrch:   cfg.EfSearch,
		mult:     1 / math.Log(float64(cfg.M)),
	}
	for i, v := range vectors {
		h.rows[i] = normalize(v)
	}

	rng := rand.New(rand.NewSource(42))
	for i := range h.rows {
		h.insert(int32(i), h.randomLevel(rng))
	}
	return h, nil
}

func (h *HNSW) Len() int       { return len(h.rows) }
func (h *HNSW) Dimension() int { return h.dim }

// Search returns up to k approximate nearest neighbors, ordered by
// non-increasing score.
func (h *HNSW) Search(query []float32, k int) ([]Hit, error) {
	if len(h.rows) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != h.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), h.dim)
	}
	q := normalize(query)

	cur := h.entry
	for l := h.maxLevel; l > 0; l-- {
		cur = h.greedy(q, cur, l)
	}
	ef := h.efSrch
	if k > ef {
		ef = k
	}
	hits := h.searchLayer(q, cur, ef, 0)
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Score = clampScore(hits[i].Score)
	}
	return hits, nil
}

func (h *HNSW) randomLevel(rng *rand.Rand) int {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return int(-math.Log(u) * h.mult)
}

func (h *HNSW) insert(id int32, level int) {
	h.nodes[id].links = make([][]int32, level+1)
	if h.entry < 0 {
		h.entry = id
		h.maxLevel = level
		return
	}

	cur := h.entry
	for l := h.maxLevel; l > level; l-- {
		cur = h.greedy(h.rows[id], cur, l)
	}
	top := level
	if h.maxLevel < top {
		top = h.maxLevel
	}
	for l := top; l >= 0; l-- {
		cands := h.searchLayer(h.rows[id], cur, h.efCons, l)
		maxM := h.m
		if l == 0 {
			maxM = h.maxM0
		}
		n := len(cands)
		if n > h.m {
			n = h.m
		}
		neighbors := make([]int32, n)
		for i := 0; i < n; i++ {
			neighbors[i] = int32(cands[i].Index)
		}
		h.nodes[id].links[l] = neighbors
		for _, nb := range neighbors {
			h.linkBack(nb, id, l, maxM)
		}
		if len(cands) > 0 {
			cur = int32(cands[0].Index)
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entry = id
	}
}

// linkBack adds id to nb's neighbor list at level l, pruning to the
// maxM closest when the list overflows.
func (h *HNSW) linkBack(nb, id int32, l, maxM int) {
	links := append(h.nodes[nb].links[l], id)
	if len(links) > maxM {
		sort.Slice(links, func(i, j int) bool {
			return dot(h.rows[nb], h.rows[links[i]]) > dot(h.rows[nb], h.rows[links[j]])
		})
		links = links[:maxM]
	}
	h.nodes[nb].links[l] = links
}

// greedy walks one level toward the query, stopping at a local
// maximum.
func (h *HNSW) greedy(q []float32, start int32, level int) int32 {
	cur := start
	best := dot(q, h.rows[cur])
	for {
		improved := false
		for _, nb := range h.nodes[cur].links[level] {
			if s := dot(q, h.rows[nb]); s > best {
				best, cur, improved = s, nb, true
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer performs a best-first expansion at one level, keeping
// the ef best results. Returns hits sorted by non-increasing score.
func (h *HNSW) searchLayer(q []float32, entry int32, ef, level int) []Hit {
	visited := make([]bool, len(h.rows))
	visited[entry] = true

	start := Hit{Index: int(entry), Score: dot(q, h.rows[entry])}
	candidates := hitMaxHeap{start}
	results := hitMinHeap{start}

	for len(candidates) > 0 {
		c := heap.Pop(&candidates).(Hit)
		if len(results) >= ef && c.Score < results[0].Score {
			break
		}
		for _, nb := range h.nodes[c.Index].links[level] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			s := dot(q, h.rows[nb])
			if len(results) < ef || s > results[0].Score {
				hit := Hit{Index: int(nb), Score: s}
				heap.Push(&candidates, hit)
				heap.Push(&results, hit)
				if len(results) > ef {
					heap.Pop(&results)
				}
			}
		}
	}

	hits := []Hit(results)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}
