package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shreyashguptas/pingboard/internal/probe"
)

// Cycle is one completed probe round across the whole fleet.
//
// Results holds exactly one entry per target, in registry order, all produced
// within this cycle. CheckedAt is the completion time of the round and is
// shared by every result when merged downstream.
type Cycle struct {
	// ID is a correlation ID tying log lines of one round together.
	ID string

	// Results holds the per-target outcomes in registry order.
	Results []probe.Result

	// CheckedAt is when the round's last probe finished.
	CheckedAt time.Time
}

// Scheduler manages periodic probing of a fixed target fleet.
//
// On Start the fleet is probed immediately, then once per period. Each cycle
// probes every target concurrently (bounded by the concurrency cap), waits
// for all probes including their service checks, and emits one [Cycle] batch.
// Ticks that fire while a cycle is still running are skipped.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	targets        []probe.Target
	prober         probe.Prober
	period         time.Duration
	probeTimeout   time.Duration
	maxConcurrency int
	cycles         chan Cycle
	logger         *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	// inFlight guards against overlapping cycles when a round outlives the period
	inFlight atomic.Bool
	cycleWG  sync.WaitGroup
}

// NewScheduler creates a new polling [Scheduler].
//
// Parameters:
//   - targets: the fixed fleet to probe, in display order
//   - prober: probe executor, injectable for tests
//   - period: time between cycle starts
//   - probeTimeout: per-target reachability probe timeout
//   - maxConcurrency: cap on simultaneously running probes
//   - logger: logger for cycle events
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Batches are available via [Scheduler.Cycles].
func NewScheduler(targets []probe.Target, prober probe.Prober, period, probeTimeout time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Scheduler{
		targets:        targets,
		prober:         prober,
		period:         period,
		probeTimeout:   probeTimeout,
		maxConcurrency: maxConcurrency,
		cycles:         make(chan Cycle, 1),
		logger:         logger,
	}
}

// Cycles returns a receive-only channel emitting one [Cycle] per round.
//
// The channel is closed when the scheduler stops. Consumers should read
// until it is closed to receive all completed batches.
func (s *Scheduler) Cycles() <-chan Cycle {
	return s.cycles
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The scheduler will:
//  1. Probe the whole fleet immediately
//  2. Probe again every period, skipping ticks while a cycle is in flight
//  3. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.cycles) })
		// all cycle goroutines must finish before the channel closes
		defer s.cycleWG.Wait()

		s.launchCycle(pollCtx)

		ticker := time.NewTicker(s.period)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				s.launchCycle(pollCtx)
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the periodic timer immediately; an in-flight cycle is allowed
// to finish (its probes are bounded by their own timeouts, not force-killed)
// but its batch may be dropped. Stop blocks until the polling loop and any
// in-flight cycle have exited and the cycles channel is closed.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.cycles) })
}

// launchCycle starts one round in its own goroutine unless the previous
// round is still in flight, in which case the tick is skipped.
func (s *Scheduler) launchCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, previous cycle still in flight")
		return
	}

	s.cycleWG.Add(1)
	go func() {
		defer s.cycleWG.Done()
		defer s.inFlight.Store(false)
		s.runCycle(ctx)
	}()
}

// runCycle probes every target concurrently, joins all results, and emits
// the completed batch. A failing probe is data in its slot, never a reason
// to abort the round for the other targets.
func (s *Scheduler) runCycle(ctx context.Context) {
	id := uuid.NewString()
	started := time.Now()

	results := make([]probe.Result, len(s.targets))
	sem := make(chan struct{}, s.maxConcurrency)

	var wg sync.WaitGroup
	for i, target := range s.targets {
		wg.Add(1)
		go func(i int, target probe.Target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// probes run against the background context so Stop lets them
			// finish; each is bounded by its own timeout
			results[i] = s.prober.Probe(context.Background(), target, s.probeTimeout)
		}(i, target)
	}
	wg.Wait()

	cycle := Cycle{
		ID:        id,
		Results:   results,
		CheckedAt: time.Now(),
	}

	s.logger.Debug("cycle complete",
		"cycle_id", id,
		"targets", len(results),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	select {
	case s.cycles <- cycle:
	case <-ctx.Done():
		// consumer is gone; the batch is dropped on shutdown
	}
}
