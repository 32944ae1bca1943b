// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package fjs provides a fork-join task scheduler backed by a fixed pool of
// worker goroutines with per-worker work queues and work stealing. Work is
// submitted either fire-and-forget through [System.Async] or in logical
// batches through a [Group], which tracks how many submitted tasks are still
// outstanding and lets any goroutine block until the batch has drained.
//
// The defining property of the scheduler is that [Group.Wait] never idles a
// worker. When a task running on a pool worker waits for a batch, the waiting
// worker reenters the scheduling loop and executes pending tasks from its own
// or other workers' queues until the batch completes. Nested parallelism
// therefore cannot deadlock: even when every worker in the pool is inside an
// enclosing wait, the inner batches keep making progress on the waiters
// themselves. [System.ForEach] builds on this to provide data-parallel loops
// over index ranges that may nest to arbitrary depth.
//
// [ThreadLocal] complements the scheduler with a per-worker storage container
// for scatter/gather accumulation: each worker gets a private slot it can
// mutate without synchronization, and the slots can be visited after a join
// to combine the per-worker results. [Collector] packages the most common
// such pattern, per-worker append buffers gathered into a single slice.
//
// The scheduler deliberately has no notion of task priority, cancellation, or
// deadlines. Once submitted, a task always executes exactly once, and a wait
// has no timeout. Callers that need cancellation should make their task
// bodies observe their own signal.
package fjs
