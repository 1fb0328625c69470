package ann

// hitMinHeap orders hits by ascending score: the root is the worst hit
// in the set, cheap to evict.
type hitMinHeap []Hit

func (h hitMinHeap) Len() int           { return len(h) }
func (h hitMinHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h hitMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitMinHeap) Push(x any)        { *h = append(*h, x.(Hit)) }

func (h *hitMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// hitMaxHeap orders hits by descending score: the root is the most
// promising candidate to expand next.
type hitMaxHeap []Hit

func (h hitMaxHeap) Len() int           { return len(h) }
func (h hitMaxHeap) Less(i, j int) bool { return h[i].Score > h[j].Score }
func (h hitMaxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitMaxHeap) Push(x any)        { *h = append(*h, x.(Hit)) }

func (h *hitMaxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
