package tui

// LoadQueue sequences diff-file loads one at a time. Loading serially
// bounds network concurrency and lets anchors index file-by-file in
// document order; the model calls Done as the explicit advance signal when
// a load's message arrives.
type LoadQueue struct {
	pending []int
	active  int
	busy    bool
}

// NewLoadQueue queues the given file indices in order.
func NewLoadQueue(fileIndices ...int) *LoadQueue {
	return &LoadQueue{pending: append([]int(nil), fileIndices...), active: -1}
}

// Enqueue appends a file index to the queue.
func (q *LoadQueue) Enqueue(fileIndex int) {
	q.pending = append(q.pending, fileIndex)
}

// Next pops the next file to load. It returns false while a load is in
// flight or when the queue is drained.
func (q *LoadQueue) Next() (int, bool) {
	if q.busy || len(q.pending) == 0 {
		return 0, false
	}
	q.active = q.pending[0]
	q.pending = q.pending[1:]
	q.busy = true
	return q.active, true
}

// Done marks the in-flight load finished. Results for a file that is no
// longer the active one are stale and reported as such; the queue state is
// untouched so the real in-flight load can still land.
func (q *LoadQueue) Done(fileIndex int) (stale bool) {
	if !q.busy || fileIndex != q.active {
		return true
	}
	q.busy = false
	q.active = -1
	return false
}

// Reset drops all pending and in-flight work, superseding the current
// revision's loads. In-flight results arriving later are treated as stale
// by Done.
func (q *LoadQueue) Reset() {
	q.pending = nil
	q.busy = false
	q.active = -1
}

// Idle reports whether nothing is loading and nothing is queued.
func (q *LoadQueue) Idle() bool {
	return !q.busy && len(q.pending) == 0
}
