// internal/scheduler/scheduler_test.go
package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFiresJob(t *testing.T) {
	var fires atomic.Int32

	sched := New()
	if err := sched.Every("tick", time.Second, func() { fires.Add(1) }); err != nil {
		t.Fatal(err)
	}
	sched.Start()
	defer sched.Stop()

	// Wait up to 2.5 seconds for at least one fire
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("job did not fire within 2.5s, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}

func TestSchedulerStopCancelsAllJobs(t *testing.T) {
	var a, b atomic.Int32

	sched := New()
	if err := sched.Every("a", time.Second, func() { a.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if err := sched.Every("b", time.Second, func() { b.Add(1) }); err != nil {
		t.Fatal(err)
	}
	sched.Start()
	sched.Stop()

	time.Sleep(1500 * time.Millisecond)

	if a.Load() != 0 || b.Load() != 0 {
		t.Errorf("expected no fires after stop, got a=%d b=%d", a.Load(), b.Load())
	}
}

func TestSchedulerRejectsBadInterval(t *testing.T) {
	sched := New()
	if err := sched.Every("zero", 0, func() {}); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestSchedulerRejectsDuplicateName(t *testing.T) {
	sched := New()
	if err := sched.Every("sweep", time.Minute, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := sched.Every("sweep", time.Minute, func() {}); err == nil {
		t.Error("expected error for duplicate job name")
	}
	if got := len(sched.Jobs()); got != 1 {
		t.Errorf("expected 1 job, got %d", got)
	}
}
