// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

// A Task represents a single deferred unit of work. Ownership of a Task
// transfers into a worker queue when it is submitted and back out to
// whichever worker executes it; a Task is invoked exactly once and is never
// retained after it returns. Any inputs to the task are expected to be
// provided by specifying the Task as a [function literal] that references and
// therefore captures local variables via [lexical closure].
//
// Tasks submitted directly with [System.Async] run as plain deferred calls:
// if one panics, the worker goroutine and therefore the whole program will
// terminate as per [Handling panics] in The Go Programming Language
// Specification. If you need to avoid this behavior, recover from the panic
// within the task itself, or submit the work through a [Group], which
// recovers task panics and reports them from [Group.Wait].
//
// [function literal]: https://go.dev/ref/spec#Function_literals
// [lexical closure]: https://en.wikipedia.org/wiki/Closure_(computer_programming)
// [Handling panics]: https://go.dev/ref/spec#Handling_panics
type Task = func()

// A TaskFunc represents a unit of work forked into a [Group] with
// [Group.Run]. It differs from [Task] only in that it returns an error value:
// the first non-nil error (or recovered panic, reported as an error wrapping
// [ErrTaskPanic]) among a group's tasks is returned by the matching
// [Group.Wait]. Errors after the first within the same batch are discarded.
//
// A TaskFunc is executed on an arbitrary pool worker and must therefore be
// thread-safe, including access to any captured variables.
type TaskFunc = func() error
