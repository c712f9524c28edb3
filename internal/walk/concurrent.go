package walk

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/yegor-usoltsev/chownmap/internal/fsys"
)

// Concurrent expands directories on a fixed pool of workers. Every directory
// found is pushed back onto a shared queue instead of being recursed into.
// Symlinks have their own ownership changed and are never followed, even
// when Config.FollowSymlinks is set, and a symlink root is not refused.
type Concurrent struct {
	v *visitor
}

var _ Walker = (*Concurrent)(nil)

type task struct {
	dir   string
	depth int
}

// Walk seeds the queue with every directory root and blocks until all
// directories transitively discovered from them have been expanded.
func (c *Concurrent) Walk(ctx context.Context, roots ...string) Status {
	q := newWorkQueue()
	st := StatusOK
	for _, root := range roots {
		if ctx.Err() != nil {
			return worst(st, StatusCanceled)
		}
		n, ok := c.v.classify(root)
		if !ok {
			st = worst(st, StatusFailed)
			continue
		}
		switch n.Kind {
		case fsys.KindDir:
			c.v.remap(n, 0)
			q.push(task{dir: root, depth: 0})
		case fsys.KindFile, fsys.KindSymlink:
			c.v.remap(n, 0)
		}
	}

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			t, ok := q.pop()
			if !ok {
				return
			}
			// After cancellation remaining tasks are only drained so the
			// outstanding count can still reach zero.
			if ctx.Err() == nil {
				c.expand(t, q)
			}
			q.done()
		}
	}
	workers := max(c.v.cfg.Workers, 1)
	wg.Add(workers)
	for range workers {
		go worker()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return worst(st, StatusCanceled)
	}
	return st
}

// expand applies every immediate child of t.dir and enqueues subdirectories.
func (c *Concurrent) expand(t task, q *workQueue) {
	if !c.v.expandable(t.dir, t.depth) {
		return
	}
	names, ok := c.v.list(t.dir)
	if !ok {
		return
	}
	for _, name := range names {
		path := filepath.Join(t.dir, name)
		n, ok := c.v.classify(path)
		if !ok {
			continue
		}
		switch n.Kind {
		case fsys.KindDir:
			c.v.remap(n, t.depth+1)
			q.push(task{dir: path, depth: t.depth + 1})
		case fsys.KindFile, fsys.KindSymlink:
			c.v.remap(n, t.depth+1)
		}
	}
}

// workQueue is an unbounded FIFO of directories plus the number of tasks
// pushed but not yet done. pop blocks while the queue is empty and tasks
// are outstanding, since a running task may still push more.
type workQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []task
	pending int
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) push(t task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.pending++
	q.mu.Unlock()
	q.cond.Signal()
}

// pop returns false once the queue is empty and nothing is outstanding.
func (q *workQueue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.pending > 0 {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return task{}, false
	}
	t := q.items[0]
	q.items[0] = task{}
	q.items = q.items[1:]
	return t, true
}

// done marks one popped task finished.
func (q *workQueue) done() {
	q.mu.Lock()
	q.pending--
	idle := q.pending == 0
	q.mu.Unlock()
	if idle {
		q.cond.Broadcast()
	}
}

// outstanding returns the number of tasks not yet done.
func (q *workQueue) outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}
