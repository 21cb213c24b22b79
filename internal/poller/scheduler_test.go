package poller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shreyashguptas/pingboard/internal/probe"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProber returns canned results and can simulate slow probes. It also
// tracks how many probes are running at once.
type fakeProber struct {
	delay time.Duration

	mu      sync.Mutex
	calls   int
	running int32
	peak    int32
}

func (f *fakeProber) Probe(ctx context.Context, target probe.Target, timeout time.Duration) probe.Result {
	now := atomic.AddInt32(&f.running, 1)
	defer atomic.AddInt32(&f.running, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if now <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, now) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return probe.Result{Target: target, Reachable: true}
}

func (f *fakeProber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testTargets(n int) []probe.Target {
	targets := make([]probe.Target, n)
	for i := range targets {
		targets[i] = probe.Target{
			Address:     string(rune('a'+i)) + ".local",
			DisplayName: "target " + string(rune('a'+i)),
		}
	}
	return targets
}

// TestScheduler_ImmediateFirstCycle verifies the fleet is probed right away
// on Start, with no initial period delay.
func TestScheduler_ImmediateFirstCycle(t *testing.T) {
	prober := &fakeProber{}
	s := NewScheduler(testTargets(3), prober, time.Minute, time.Second, 10, testLogger())
	s.Start(context.Background())
	defer s.Stop()

	select {
	case cycle, ok := <-s.Cycles():
		if !ok {
			t.Fatal("cycles channel closed before first batch")
		}
		if len(cycle.Results) != 3 {
			t.Errorf("first cycle has %d results, want 3", len(cycle.Results))
		}
		if cycle.ID == "" {
			t.Error("cycle ID is empty")
		}
		if cycle.CheckedAt.IsZero() {
			t.Error("cycle CheckedAt is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for the immediate first cycle")
	}
}

// TestScheduler_ResultsInRegistryOrder verifies results keep the registry
// ordering no matter which probe finishes first.
func TestScheduler_ResultsInRegistryOrder(t *testing.T) {
	targets := testTargets(5)
	s := NewScheduler(targets, &fakeProber{}, time.Minute, time.Second, 2, testLogger())
	s.Start(context.Background())
	defer s.Stop()

	cycle := <-s.Cycles()
	if len(cycle.Results) != len(targets) {
		t.Fatalf("cycle has %d results, want %d", len(cycle.Results), len(targets))
	}
	for i, r := range cycle.Results {
		if r.Target.Address != targets[i].Address {
			t.Errorf("results[%d] is %q, want %q", i, r.Target.Address, targets[i].Address)
		}
	}
}

// TestScheduler_ProbesRunConcurrently verifies a cycle's latency is bounded
// by the slowest probe, not the sum: five 100ms probes must overlap.
func TestScheduler_ProbesRunConcurrently(t *testing.T) {
	prober := &fakeProber{delay: 100 * time.Millisecond}
	s := NewScheduler(testTargets(5), prober, time.Minute, time.Second, 10, testLogger())

	start := time.Now()
	s.Start(context.Background())
	defer s.Stop()

	<-s.Cycles()
	elapsed := time.Since(start)

	if elapsed > 400*time.Millisecond {
		t.Errorf("cycle took %s, want well under the 500ms serial cost", elapsed)
	}
	if peak := atomic.LoadInt32(&prober.peak); peak < 2 {
		t.Errorf("peak concurrent probes = %d, want at least 2", peak)
	}
}

// TestScheduler_NoOverlappingCycles verifies that a period shorter than the
// probe duration results in skipped ticks rather than concurrent cycles.
func TestScheduler_NoOverlappingCycles(t *testing.T) {
	prober := &fakeProber{delay: 80 * time.Millisecond}
	s := NewScheduler(testTargets(1), prober, 10*time.Millisecond, time.Second, 1, testLogger())
	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range s.Cycles() {
		}
	}()

	time.Sleep(250 * time.Millisecond)
	s.Stop()
	<-done

	// one probe may run at a time; overlap would have pushed peak above 1
	if peak := atomic.LoadInt32(&prober.peak); peak > 1 {
		t.Errorf("peak concurrent probes = %d, want 1 (cycles must not overlap)", peak)
	}
	// ~25 ticks fired but each cycle takes ~80ms, so far fewer cycles ran
	if calls := prober.callCount(); calls > 6 {
		t.Errorf("probe ran %d times in 250ms, want skipped ticks to cap it", calls)
	}
}

// TestScheduler_CheckedAtMonotonic verifies batch timestamps advance across
// cycles.
func TestScheduler_CheckedAtMonotonic(t *testing.T) {
	s := NewScheduler(testTargets(2), &fakeProber{}, 20*time.Millisecond, time.Second, 10, testLogger())
	s.Start(context.Background())
	defer s.Stop()

	first := <-s.Cycles()
	second := <-s.Cycles()

	if !second.CheckedAt.After(first.CheckedAt) {
		t.Errorf("CheckedAt did not advance: first=%v second=%v", first.CheckedAt, second.CheckedAt)
	}
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	s := NewScheduler(testTargets(1), &fakeProber{}, time.Minute, time.Second, 1, testLogger())

	// this must not panic
	s.Stop()

	if _, ok := <-s.Cycles(); ok {
		t.Error("cycles channel open after Stop before Start")
	}
}

func TestScheduler_StopTwice(t *testing.T) {
	s := NewScheduler(testTargets(1), &fakeProber{}, time.Minute, time.Second, 1, testLogger())
	s.Start(context.Background())

	go func() {
		for range s.Cycles() {
		}
	}()

	// both calls must complete without panic or deadlock
	s.Stop()
	s.Stop()
}

func TestScheduler_StartTwice(t *testing.T) {
	prober := &fakeProber{}
	s := NewScheduler(testTargets(1), prober, time.Minute, time.Second, 1, testLogger())

	s.Start(context.Background())
	s.Start(context.Background()) // second call should be no-op

	// exactly one immediate cycle despite two Start calls
	<-s.Cycles()
	select {
	case cycle, ok := <-s.Cycles():
		if ok {
			t.Errorf("unexpected second immediate cycle %q", cycle.ID)
		}
	case <-time.After(100 * time.Millisecond):
	}

	go func() {
		for range s.Cycles() {
		}
	}()
	s.Stop()
}

// TestScheduler_ConcurrentStartStop verifies that calling Start() and Stop()
// concurrently does not cause a race condition or panic.
// Run with: go test -race ./internal/poller/...
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := NewScheduler(testTargets(1), &fakeProber{}, time.Minute, time.Second, 1, testLogger())

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			s.Start(context.Background())
		}()

		go func() {
			defer wg.Done()
			s.Stop()
		}()

		wg.Wait()

		// drain any remaining batches
		for range s.Cycles() {
		}
	}
}

// TestScheduler_ContextCancelStops verifies cancelling the Start context
// shuts the loop down and closes the channel without an explicit Stop.
func TestScheduler_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(testTargets(1), &fakeProber{}, time.Minute, time.Second, 1, testLogger())
	s.Start(ctx)

	<-s.Cycles()
	cancel()

	select {
	case _, ok := <-s.Cycles():
		if ok {
			// a batch already in flight may still arrive; the close must follow
			if _, ok := <-s.Cycles(); ok {
				t.Error("cycles channel still open after context cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for cycles channel to close")
	}
}
