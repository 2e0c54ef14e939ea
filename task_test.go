package arachne

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestYieldPingPong(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	const rounds = 50
	var turn atomic.Int32 // 0 = a's turn, 1 = b's turn
	var aDone, bDone atomic.Bool

	CreateThreadOn(0, func(task *Task) {
		for i := 0; i < rounds; i++ {
			for turn.Load() != 0 {
				task.Yield()
			}
			turn.Store(1)
		}
		aDone.Store(true)
	})
	CreateThreadOn(0, func(task *Task) {
		for i := 0; i < rounds; i++ {
			for turn.Load() != 1 {
				task.Yield()
			}
			turn.Store(0)
		}
		bDone.Store(true)
	})

	pollUntil(t, func() bool { return aDone.Load() && bDone.Load() })
}

func TestSleepDelaysResumption(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	start := time.Now()
	var elapsed atomic.Int64
	CreateThreadOn(0, func(task *Task) {
		task.Sleep(20 * time.Millisecond)
		elapsed.Store(int64(time.Since(start)))
	})

	pollUntil(t, func() bool { return elapsed.Load() != 0 })
	if got := time.Duration(elapsed.Load()); got < 15*time.Millisecond {
		t.Fatalf("task resumed after only %v, wanted at least ~20ms", got)
	}
}

func TestJoinWakesAllWaiters(t *testing.T) {
	if err := Init(WithCores(2)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	childDone := make(chan ThreadId, 1)
	CreateThreadOn(0, func(task *Task) {
		id := CreateThreadOn(0, func(inner *Task) {
			inner.Yield()
		})
		childDone <- id
	})
	childID := <-childDone

	const joiners = 4
	var joined atomic.Int32
	for i := 0; i < joiners; i++ {
		core := i % 2
		CreateThreadOn(core, func(task *Task) {
			task.Join(childID)
			joined.Add(1)
		})
	}

	pollUntil(t, func() bool { return joined.Load() == joiners })
}

func TestJoinOnAlreadyFinishedTaskReturnsImmediately(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	childDone := make(chan ThreadId, 1)
	CreateThreadOn(0, func(task *Task) {
		childDone <- CreateThreadOn(0, func(inner *Task) {})
	})
	childID := <-childDone

	pollUntil(t, func() bool { return CoreLoad(0) == 0 })

	var joined atomic.Bool
	CreateThreadOn(0, func(task *Task) {
		task.Join(childID)
		joined.Store(true)
	})
	pollUntil(t, joined.Load)
}
