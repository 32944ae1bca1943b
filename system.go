// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/petenewcomb/fjs-go/internal/notiq"
)

// A System owns a fixed set of worker goroutines, one pending-task queue per
// worker, and the work-stealing protocol that keeps the workers busy. Tasks
// enter through [System.Async] (directly or via a [Group]) and are placed on
// queues round-robin; each worker prefers draining its own queue and steals
// from the others when it has nothing local to do.
//
// Most programs use the process-wide [Default] system rather than creating
// their own. Creating a System is nevertheless cheap enough for tests that
// need specific pool sizes.
type System struct {
	queues  []notiq.Queue
	next    atomic.Uint64
	closed  atomic.Bool
	joined  sync.WaitGroup
	workers sync.Map // goroutine id -> worker index
}

// NewSystem creates a system with n workers and starts them immediately. If
// n is not positive, the number of workers defaults to the hardware
// concurrency available to the process.
func NewSystem(n int) *System {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	s := &System{
		queues: make([]notiq.Queue, n),
	}
	for i := range s.queues {
		s.queues[i].Init()
	}
	s.joined.Add(n)
	for i := range n {
		go s.worker(i)
	}
	return s
}

// Async submits a task for fire-and-forget execution on some pool worker.
// The destination queue is chosen round-robin across all submitters, which
// keeps load roughly balanced without any global lock. Tasks pushed to the
// same queue by the same submitter run in FIFO order relative to each other,
// but stealing means no order is guaranteed across queues.
//
// Async is safe to call from any goroutine, including a pool worker. Calling
// Async after [System.Shutdown] is a programming error and panics.
func (s *System) Async(task Task) {
	if task == nil {
		panic("task must be non-nil")
	}
	if s.closed.Load() {
		panic("async on a shut down system")
	}
	k := s.next.Add(1) - 1
	s.queues[k%uint64(len(s.queues))].Push(task)
}

// NumWorkers returns the fixed number of workers in the system.
func (s *System) NumWorkers() int {
	return len(s.queues)
}

// CurrentWorkerIndex reports whether the calling goroutine is one of the
// system's pool workers and, if so, its stable index in
// [0, [System.NumWorkers]). A goroutine outside the pool has no identity.
func (s *System) CurrentWorkerIndex() (int, bool) {
	v, ok := s.workers.Load(goid.Get())
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Shutdown closes every worker queue and blocks until all workers have
// exited. Workers finish the task they are currently executing and drain any
// tasks still queued before exiting; callers must nevertheless [Group.Wait]
// all groups before shutting down, since nothing else guarantees that
// submitted work has completed. Shutdown is idempotent, and submitting new
// work after it has been called is a programming error.
func (s *System) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	for i := range s.queues {
		s.queues[i].Quit()
	}
	s.joined.Wait()
}

// worker is the top-level function of pool worker i.
func (s *System) worker(i int) {
	defer s.joined.Done()
	id := goid.Get()
	s.workers.Store(id, i)
	defer s.workers.Delete(id)
	for {
		if s.tryRunOne(i) {
			continue
		}
		// Nothing runnable anywhere on a full sweep: block on the worker's
		// own queue until it receives work or the system shuts down.
		task, ok := s.queues[i].PopOrWait()
		if !ok {
			return
		}
		task()
	}
}

// tryRunOne performs one non-blocking scheduling step on behalf of worker i:
// try the worker's own queue first, then probe the other queues in a fixed
// rotating order starting just after i. Queues whose locks are contended are
// skipped rather than waited on. Reports whether a task was executed.
//
// This is also the body of the helping wait: a worker blocked in
// [Group.Wait] calls tryRunOne in a loop instead of sleeping, so that
// pending tasks (including the ones the group is waiting on) keep making
// progress.
func (s *System) tryRunOne(i int) bool {
	n := len(s.queues)
	for k := range n {
		task, res := s.queues[(i+k)%n].TryPop()
		if res == notiq.Popped {
			task()
			return true
		}
	}
	return false
}

const concurrencyEnvVar = "FJS_NUM_WORKERS"

var (
	defaultMu          sync.Mutex
	defaultSystem      *System
	defaultConcurrency int
)

// Default returns the process-wide system, constructing it on first use. The
// pool size is taken from [SetDefaultConcurrency] if it was called before
// the first use, otherwise from the FJS_NUM_WORKERS environment variable,
// otherwise from the hardware concurrency available to the process. The
// default system lives for the remainder of the process and is never shut
// down.
func Default() *System {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSystem == nil {
		n := defaultConcurrency
		if n <= 0 {
			n = concurrencyFromEnv()
		}
		defaultSystem = NewSystem(n)
	}
	return defaultSystem
}

// SetDefaultConcurrency configures the pool size used when the [Default]
// system is first constructed. Calling it after the default system exists
// has no effect; the pool size is fixed at construction. This is a
// documented limitation, not an error.
func SetDefaultConcurrency(n int) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultConcurrency = n
}

func concurrencyFromEnv() int {
	v := os.Getenv(concurrencyEnvVar)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		panic(fmt.Sprintf("%s must be a positive integer, got %q", concurrencyEnvVar, v))
	}
	return n
}
