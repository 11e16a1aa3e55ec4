package isp

import (
	"sort"
	"sync"
)

// rebuildQueue serializes rebuilds and coalesces requests. Any number of
// pushes between two takes become a single rebuild carrying the union of
// the changed paths.
type rebuildQueue struct {
	mu        sync.Mutex
	requested bool
	pending   map[string]struct{}

	// Capacity 1: at most one rebuild is ever waiting behind the running one.
	signal chan struct{}
}

func newRebuildQueue() *rebuildQueue {
	return &rebuildQueue{
		pending: make(map[string]struct{}),
		signal:  make(chan struct{}, 1),
	}
}

// push requests a rebuild. paths may be empty, e.g. for the build on start.
func (q *rebuildQueue) push(paths ...string) {
	q.mu.Lock()
	q.requested = true
	for _, p := range paths {
		q.pending[p] = struct{}{}
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// take claims everything pushed so far. ok is false if nothing was.
func (q *rebuildQueue) take() (paths []string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.requested {
		return nil, false
	}
	for p := range q.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	q.requested = false
	q.pending = make(map[string]struct{})
	return paths, true
}
