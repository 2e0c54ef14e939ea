package arachne

import (
	"sync/atomic"
	"testing"

	"github.com/arachne-go/arachne/internal/cycles"
)

func TestCreateThreadGenericRunsWithArg(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	var got atomic.Int64
	id := CreateThread(0, func(task *Task, arg int64) {
		got.Store(arg)
	}, int64(42))
	if id.IsNull() {
		t.Fatalf("CreateThread returned NullThread")
	}
	pollUntil(t, func() bool { return got.Load() == 42 })
}

func TestSlotExhaustionReturnsNullThread(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	ids := make([]ThreadId, 0, MaxThreadsPerCore)
	for i := 0; i < MaxThreadsPerCore; i++ {
		id := CreateThreadOn(0, func(task *Task) {
			task.PrepareBlock().CommitBlock()
		})
		if id.IsNull() {
			t.Fatalf("slot %d: CreateThreadOn unexpectedly returned NullThread", i)
		}
		ids = append(ids, id)
	}

	pollUntil(t, func() bool { return CoreLoad(0) == MaxThreadsPerCore })

	if extra := CreateThreadOn(0, func(task *Task) {}); !extra.IsNull() {
		t.Fatalf("expected NullThread once every slot is occupied")
	}

	for _, id := range ids {
		pollUntil(t, func() bool { return id.slot.wakeup.Load() == cycles.Blocked })
	}
	for _, id := range ids {
		Signal(id)
	}
	pollUntil(t, func() bool { return CoreLoad(0) == 0 })
}

func TestCrossCoreSignal(t *testing.T) {
	if err := Init(WithCores(2)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	var woke atomic.Bool
	id := CreateThreadOn(0, func(task *Task) {
		task.PrepareBlock().CommitBlock()
		woke.Store(true)
	})
	if id.IsNull() {
		t.Fatalf("CreateThreadOn returned NullThread")
	}

	pollUntil(t, func() bool { return CoreLoad(0) == 1 })
	pollUntil(t, func() bool { return id.slot.wakeup.Load() == cycles.Blocked })

	// Signal from a task on core 1. Signal takes no Task receiver, so the
	// test goroutine itself could make the same call.
	var signaled atomic.Bool
	CreateThreadOn(1, func(task *Task) {
		Signal(id)
		signaled.Store(true)
	})

	pollUntil(t, signaled.Load)
	pollUntil(t, woke.Load)
}
