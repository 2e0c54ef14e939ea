package arachne

import (
	"sync/atomic"
	"testing"
	"time"
)

// pollUntil retries cond with a bounded number of short sleeps instead of a
// fixed delay, since dispatcher state changes asynchronously on other goroutines.
func pollUntil(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within timeout")
}

func TestInitRejectsDoubleInit(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() {
		Shutdown()
		WaitForTermination()
	}()

	if err := Init(WithCores(1)); err == nil {
		t.Fatalf("expected second Init to fail while already initialized")
	}
}

func TestSingleTaskRunsToCompletion(t *testing.T) {
	if err := Init(WithCores(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	var ran atomic.Bool
	id := CreateThreadOn(0, func(task *Task) {
		ran.Store(true)
	})
	if id.IsNull() {
		t.Fatalf("CreateThreadOn returned NullThread")
	}

	pollUntil(t, ran.Load)
	pollUntil(t, func() bool { return CoreLoad(0) == 0 })
}

func TestNumCoresReflectsInit(t *testing.T) {
	if err := Init(WithCores(3)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	if got := NumCores(); got != 3 {
		t.Fatalf("NumCores() = %d, want 3", got)
	}
}

func TestWithMaxCoresClampsCount(t *testing.T) {
	if err := Init(WithCores(8), WithMaxCores(2)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer WaitForTermination()
	defer Shutdown()

	if got := NumCores(); got != 2 {
		t.Fatalf("NumCores() = %d, want 2 (clamped)", got)
	}
}
