// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

// A Collector accumulates values into per-worker append buffers and
// concatenates them on demand. It is the scatter/gather pattern most callers
// want from [ThreadLocal]: tasks running across the pool call
// [Collector.Add] with no synchronization, and once the forking work has
// been joined the caller drains everything with [Collector.Gather].
//
// The same quiescence rule as ThreadLocal applies: Add must not run
// concurrently with Gather or Clear on the same collector.
type Collector[T any] struct {
	buffers *ThreadLocal[[]T]
}

// NewCollector creates a collector with one empty buffer per worker of the
// given system. A nil system means the process-wide [Default] system.
func NewCollector[T any](sys *System) *Collector[T] {
	return &Collector[T]{
		buffers: NewThreadLocal[[]T](sys, nil),
	}
}

// Add appends a value to the calling worker's private buffer. Like
// [ThreadLocal.Local], it panics when called from outside the pool.
func (c *Collector[T]) Add(v T) {
	b := c.buffers.Local()
	*b = append(*b, v)
}

// Gather concatenates all per-worker buffers into a single slice. The
// relative order of values added by different workers is unspecified; values
// added by the same worker appear in insertion order.
func (c *Collector[T]) Gather() []T {
	total := 0
	for b := range c.buffers.All() {
		total += len(*b)
	}
	out := make([]T, 0, total)
	for b := range c.buffers.All() {
		out = append(out, *b...)
	}
	return out
}

// Clear empties every per-worker buffer while retaining its capacity, so a
// collector can be drained and refilled across repeated gather cycles
// without reallocating.
func (c *Collector[T]) Clear() {
	for b := range c.buffers.All() {
		*b = (*b)[:0]
	}
}
