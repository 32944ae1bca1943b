// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package notiq implements a notification queue: a single worker's
// pending-task container with lock-protected FIFO push/pop, a non-blocking
// try-pop used by work stealing, and a blocking pop used when a worker has
// run out of alternatives.
package notiq

import (
	"sync"

	"github.com/gammazero/deque"
)

// PopResult reports the outcome of a [Queue.TryPop] call.
type PopResult int

const (
	// Popped means a task was removed from the head of the queue.
	Popped PopResult = iota
	// Empty means the lock was acquired but the queue held no tasks.
	Empty
	// Unavailable means the queue's lock was held by another goroutine. It
	// is distinct from Empty so that a stealing worker can move on to the
	// next queue instead of spinning on a contended one.
	Unavailable
)

// Queue is a FIFO of pending tasks owned by a single worker. All mutation
// happens under the queue's own lock. A Queue must be initialized with
// [Queue.Init] before use because the condition variable needs a reference
// to the lock. An Init method is provided instead of a New function because
// Queue is expected to be an element of a System's queue slice.
type Queue struct {
	mu     sync.Mutex
	ready  sync.Cond
	tasks  deque.Deque[func()]
	closed bool
}

// Init prepares the zero value for use and must be called exactly once
// before any other method.
func (q *Queue) Init() {
	q.ready.L = &q.mu
}

// Push appends a task to the tail of the queue and, if the queue was empty,
// wakes one blocked waiter. Pushing to a closed queue is a programming error
// and panics: shutdown stops accepting new submissions before any queue is
// closed, so this cannot occur in a correct program.
func (q *Queue) Push(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		panic("push to a closed queue")
	}
	wasEmpty := q.tasks.Len() == 0
	q.tasks.PushBack(task)
	if wasEmpty {
		q.ready.Signal()
	}
}

// TryPop attempts to remove the task at the head of the queue without
// blocking. It acquires the lock only if it is immediately available,
// reporting [Unavailable] otherwise.
func (q *Queue) TryPop() (func(), PopResult) {
	if !q.mu.TryLock() {
		return nil, Unavailable
	}
	defer q.mu.Unlock()
	if q.tasks.Len() == 0 {
		return nil, Empty
	}
	return q.tasks.PopFront(), Popped
}

// PopOrWait removes and returns the task at the head of the queue, blocking
// while the queue is empty and open. It returns ok=false only once the queue
// has been closed by [Queue.Quit] and fully drained.
func (q *Queue) PopOrWait() (task func(), ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.tasks.Len() == 0 && !q.closed {
		q.ready.Wait()
	}
	if q.tasks.Len() == 0 {
		return nil, false
	}
	return q.tasks.PopFront(), true
}

// Quit marks the queue closed and wakes all waiters. Tasks still queued
// remain poppable; only Push is invalid afterwards.
func (q *Queue) Quit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.ready.Broadcast()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}
