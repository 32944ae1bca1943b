// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

import (
	"iter"
	"sync/atomic"
)

// A ThreadLocal holds one private value per worker of a [System], used to
// accumulate per-worker results without synchronization. A task obtains its
// worker's slot with [ThreadLocal.Local] and mutates it freely: no other
// worker ever touches that slot, so steady-state access needs no lock. After
// the forking work has been joined, the touched slots can be visited with
// [ThreadLocal.All] to combine the per-worker results.
//
// The slot array is sized to the system's worker count at construction.
// Slots are lazily initialized to the store's initial value on first access
// from the owning worker; a worker that never calls Local contributes no
// entry to iteration.
type ThreadLocal[T any] struct {
	sys     *System
	initial T
	slots   []tlSlot[T]
}

type tlSlot[T any] struct {
	touched atomic.Bool
	value   T
	// Keep adjacent slots off the same cache line; each slot is written
	// exclusively by its owning worker on the hot path.
	_ [64]byte
}

// NewThreadLocal creates a per-worker store over the given system's worker
// identities, with every slot lazily initialized to a copy of initial on
// first access. A nil system means the process-wide [Default] system.
func NewThreadLocal[T any](sys *System, initial T) *ThreadLocal[T] {
	if sys == nil {
		sys = Default()
	}
	return &ThreadLocal[T]{
		sys:     sys,
		initial: initial,
		slots:   make([]tlSlot[T], sys.NumWorkers()),
	}
}

// Local returns the calling worker's private slot, initializing it to the
// store's initial value on first access. Concurrent Local calls from
// different workers never contend. Local panics when called from a
// goroutine outside the store's pool, since such a goroutine has no worker
// identity.
//
// It is a usage error to call Local concurrently with [ThreadLocal.All] or
// [ThreadLocal.Clear] on the same store.
func (tl *ThreadLocal[T]) Local() *T {
	i, ok := tl.sys.CurrentWorkerIndex()
	if !ok {
		panic("Local called from outside the worker pool")
	}
	s := &tl.slots[i]
	if !s.touched.Load() {
		s.value = tl.initial
		s.touched.Store(true)
	}
	return &s.value
}

// All returns a lazy sequence over the slots that have been touched by at
// least one [ThreadLocal.Local] call, in unspecified order. The store must
// be quiescent during iteration: visiting slots while workers are still
// calling Local on the same store is a usage error.
func (tl *ThreadLocal[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := range tl.slots {
			s := &tl.slots[i]
			if !s.touched.Load() {
				continue
			}
			if !yield(&s.value) {
				return
			}
		}
	}
}

// Clear resets every touched slot to the store's initial value without
// removing it; slots remain touched and continue to appear in iteration.
func (tl *ThreadLocal[T]) Clear() {
	for i := range tl.slots {
		s := &tl.slots[i]
		if s.touched.Load() {
			s.value = tl.initial
		}
	}
}
