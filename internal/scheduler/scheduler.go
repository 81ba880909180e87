// Package scheduler provides cancellable delayed tasks owned by a controller.
package scheduler

import (
	"sync"
	"time"
)

// Group owns a set of delayed tasks. A cancelled task never runs; a task that
// already started is not interrupted.
type Group struct {
	mu     sync.Mutex
	next   uint64
	timers map[uint64]*time.Timer
	closed bool
}

// Task is a handle to one scheduled function.
type Task struct {
	id    uint64
	group *Group
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{timers: make(map[uint64]*time.Timer)}
}

// After runs fn in its own goroutine once d has elapsed, unless cancelled first.
// On a closed group nothing is scheduled and the zero Task is returned.
func (g *Group) After(d time.Duration, fn func()) Task {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return Task{}
	}

	g.next++
	id := g.next
	g.timers[id] = time.AfterFunc(d, func() {
		g.mu.Lock()
		_, ok := g.timers[id]
		delete(g.timers, id)
		g.mu.Unlock()

		if ok {
			fn()
		}
	})

	return Task{id: id, group: g}
}

// Cancel stops the task. Returns false if it already ran or was cancelled.
func (t Task) Cancel() bool {
	if t.group == nil {
		return false
	}
	return t.group.cancel(t.id)
}

func (g *Group) cancel(id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	timer, ok := g.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(g.timers, id)
	return true
}

// CancelAll stops every pending task and returns how many were stopped.
func (g *Group) CancelAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.timers)
	for id, timer := range g.timers {
		timer.Stop()
		delete(g.timers, id)
	}
	return n
}

// Close cancels all pending tasks and rejects new ones.
func (g *Group) Close() {
	g.CancelAll()

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Pending returns the number of tasks waiting to run.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.timers)
}
