// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package fjs

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrTaskPanic wraps the recovered value of a panic raised inside a task
// function submitted via [Group.Run]. It is surfaced as the error returned by
// the matching [Group.Wait].
const ErrTaskPanic = constError("task panicked")
