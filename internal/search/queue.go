package search

import "sync"

// dirQueue is the shared work queue of pending directories. Workers pop a
// directory, walk it depth-first, and push subdirectories they are not going
// to process themselves so idle workers can steal them.
//
// pending counts directories that are queued or still being chained through
// by a worker; pop blocks while it is nonzero, so the queue only reports
// empty when the whole traversal is finished.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	pending int
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push adds a directory and accounts for it in pending.
func (q *dirQueue) push(dir string) {
	q.mu.Lock()
	q.items = append(q.items, dir)
	q.pending++
	q.mu.Unlock()
	q.cond.Signal()
}

// pop removes a directory, blocking while the queue is empty but work is
// still outstanding. ok is false once the traversal has fully drained.
func (q *dirQueue) pop() (dir string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.pending > 0 {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	// LIFO keeps workers near the bottom of the tree
	dir = q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return dir, true
}

// done marks one popped directory (and its locally chained descendants) as
// fully processed.
func (q *dirQueue) done() {
	q.mu.Lock()
	q.pending--
	finished := q.pending == 0
	q.mu.Unlock()
	if finished {
		q.cond.Broadcast()
	}
}
