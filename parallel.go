// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

// ForEach invokes body(i) exactly once for every i in [begin, end), with the
// iterations spread across the system's workers. The range is partitioned
// into at most [System.NumWorkers] contiguous chunks, each forked as one
// task into a fresh [Group]; within a chunk the body runs sequentially in
// index order. ForEach returns when every iteration has completed. An empty
// range performs no work and forks no tasks.
//
// The body may itself call ForEach over any range, recursively to arbitrary
// depth: the enclosing worker's wait steals pending work instead of
// blocking, so inner loops always make progress even when every worker is
// already inside an outer ForEach.
//
// A panic raised by the body is recovered and returned as an error wrapping
// [ErrTaskPanic]; the first such failure in the loop wins and the remaining
// chunks still run to completion.
func (s *System) ForEach(begin, end int, body func(int)) error {
	if begin >= end {
		return nil
	}
	n := end - begin
	chunks := min(s.NumWorkers(), n)
	size := (n + chunks - 1) / chunks
	g := NewGroup(s)
	for lo := begin; lo < end; lo += size {
		hi := min(lo+size, end)
		g.Run(func() error {
			for i := lo; i < hi; i++ {
				body(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// ForEach runs a data-parallel loop over [begin, end) on the process-wide
// [Default] system. See [System.ForEach].
func ForEach(begin, end int, body func(int)) error {
	return Default().ForEach(begin, end, body)
}
