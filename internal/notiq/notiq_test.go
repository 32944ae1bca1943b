// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package notiq_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/petenewcomb/fjs-go/internal/notiq"
)

func TestQueueFIFO(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()

	var order []int
	for i := range 3 {
		q.Push(func() { order = append(order, i) })
	}

	for range 3 {
		task, res := q.TryPop()
		chk.Equal(notiq.Popped, res)
		task()
	}
	chk.Equal([]int{0, 1, 2}, order)

	_, res := q.TryPop()
	chk.Equal(notiq.Empty, res)
}

func TestQueuePopOrWaitBlocksUntilPush(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()

	ran := make(chan struct{})
	go func() {
		task, ok := q.PopOrWait()
		if ok {
			task()
		}
	}()

	// Give the popper a chance to block before the push arrives.
	time.Sleep(time.Millisecond)
	q.Push(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		chk.Fail("blocked pop never received the pushed task")
	}
}

func TestQueueQuitWakesAllWaiters(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()

	const waiters = 4
	var wg sync.WaitGroup
	var closedCount atomic.Int64
	wg.Add(waiters)
	for range waiters {
		go func() {
			defer wg.Done()
			if _, ok := q.PopOrWait(); !ok {
				closedCount.Add(1)
			}
		}()
	}

	time.Sleep(time.Millisecond)
	q.Quit()
	wg.Wait()
	chk.Equal(int64(waiters), closedCount.Load())
}

func TestQueueQuitDrainsPendingTasks(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()

	ran := 0
	q.Push(func() { ran++ })
	q.Push(func() { ran++ })
	q.Quit()

	for range 2 {
		task, ok := q.PopOrWait()
		chk.True(ok)
		task()
	}
	chk.Equal(2, ran)

	_, ok := q.PopOrWait()
	chk.False(ok)
}

func TestQueuePushAfterQuitPanics(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()
	q.Quit()
	chk.PanicsWithValue("push to a closed queue", func() {
		q.Push(func() {})
	})
}

// A stealing consumer must never lose or duplicate a task even when TryPop
// races with the producer and reports Unavailable under contention.
func TestQueueTryPopUnderContention(t *testing.T) {
	chk := require.New(t)
	var q notiq.Queue
	q.Init()

	const total = 10000
	var executed atomic.Int64

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range total {
			q.Push(func() { executed.Add(1) })
		}
	}()

	drained := 0
	for drained < total {
		task, res := q.TryPop()
		if res == notiq.Popped {
			task()
			drained++
		}
	}
	wg.Wait()
	chk.Equal(int64(total), executed.Load())

	_, res := q.TryPop()
	chk.Equal(notiq.Empty, res)
}

// TestQueueWithRapid uses rapid state machine testing to verify that the
// queue behaves like a FIFO slice model under arbitrary operation sequences.
func TestQueueWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// The system under test
		var q notiq.Queue
		q.Init()

		// The model (reference implementation)
		var model []int
		var popped []int

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				val := rapid.Int().Draw(t, "value")
				q.Push(func() { popped = append(popped, val) })
				model = append(model, val)
			},
			"tryPop": func(t *rapid.T) {
				task, res := q.TryPop()
				if len(model) == 0 {
					require.Equal(t, notiq.Empty, res)
					return
				}
				require.Equal(t, notiq.Popped, res)
				expected := model[0]
				model = model[1:]
				popped = popped[:0]
				task()
				require.Equal(t, []int{expected}, popped)
			},
			"len": func(t *rapid.T) {
				require.Equal(t, len(model), q.Len())
			},
		})
	})
}
