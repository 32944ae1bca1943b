// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// A Group is a fork-join handle: it counts how many tasks forked with
// [Group.Run] are still outstanding and lets any goroutine block in
// [Group.Wait] until the count reaches zero. A Group may fork an unbounded
// number of tasks, and its tasks may themselves create groups and wait on
// them; such nested parallelism cannot deadlock because a pool worker that
// waits participates in the scheduler instead of sleeping.
//
// After a successful Wait the group is reset and may be reused for a new
// batch. A Group must not be abandoned while tasks are outstanding; the
// counter bookkeeping treats an underflow as a fatal programming error.
type Group struct {
	sys         *System
	outstanding atomic.Int64
	firstErr    atomic.Pointer[error]
	mu          sync.Mutex
	idle        sync.Cond
}

// NewGroup creates an empty group that forks its tasks into the given
// system. A nil system means the process-wide [Default] system.
func NewGroup(sys *System) *Group {
	if sys == nil {
		sys = Default()
	}
	g := &Group{sys: sys}
	g.idle.L = &g.mu
	return g
}

// Run forks a task into the group's system and increments the outstanding
// count. The task's error return, or a panic recovered from it (reported as
// an error wrapping [ErrTaskPanic]), is recorded if it is the first failure
// in the current batch; failures after the first are discarded. The recorded
// failure is returned by the matching [Group.Wait].
func (g *Group) Run(task TaskFunc) {
	if task == nil {
		panic("task must be non-nil")
	}
	g.outstanding.Add(1)
	g.sys.Async(func() {
		defer g.finish()
		if err := protect(task); err != nil {
			g.record(err)
		}
	})
}

// Wait blocks the calling goroutine until every task forked into the group
// has finished executing, then returns the first error recorded in the batch
// (nil if all tasks succeeded) and resets the group for reuse.
//
// When the caller is itself a pool worker, Wait does not sleep: it
// repeatedly performs the scheduler's non-blocking work-stealing step so
// that pending tasks, including the ones this group is waiting on, keep
// making progress. A caller outside the pool has no queue to steal from and
// blocks until the count reaches zero.
//
// The only ordering contract Wait provides is that all tasks Run on the
// group before the call have completed, and their side effects are visible,
// once it returns. A helping wait may execute tasks belonging to unrelated
// groups along the way.
func (g *Group) Wait() error {
	if i, ok := g.sys.CurrentWorkerIndex(); ok {
		for g.outstanding.Load() > 0 {
			if !g.sys.tryRunOne(i) {
				// Every queue was empty or contended; yield rather than spin
				// hot while the remaining tasks run on other workers.
				runtime.Gosched()
			}
		}
	} else {
		g.mu.Lock()
		for g.outstanding.Load() > 0 {
			g.idle.Wait()
		}
		g.mu.Unlock()
	}
	if errp := g.firstErr.Swap(nil); errp != nil {
		return *errp
	}
	return nil
}

// finish is deferred by every task wrapper; it is the only place the
// outstanding count decreases.
func (g *Group) finish() {
	n := g.outstanding.Add(-1)
	switch {
	case n < 0:
		panic("there were no tasks outstanding")
	case n == 0:
		// The broadcast must happen under the lock so that a waiter cannot
		// observe a nonzero count, lose the CPU, and then miss the wakeup.
		g.mu.Lock()
		g.idle.Broadcast()
		g.mu.Unlock()
	}
}

func (g *Group) record(err error) {
	g.firstErr.CompareAndSwap(nil, &err)
}

// protect invokes a task function, converting a panic into an error so that
// a failing task never terminates the worker executing it.
func protect(task TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return task()
}
