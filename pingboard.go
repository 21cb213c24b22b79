package pingboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shreyashguptas/pingboard/internal/clip"
	"github.com/shreyashguptas/pingboard/internal/poller"
	"github.com/shreyashguptas/pingboard/internal/probe"
	"github.com/shreyashguptas/pingboard/internal/server"
	"github.com/shreyashguptas/pingboard/internal/store"
)

const (
	defaultPollInterval    = 30 * time.Second
	defaultProbeTimeout    = 1 * time.Second
	defaultServiceTimeout  = 2 * time.Second
	defaultCopyFeedbackTTL = 2 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 10
)

// ErrNotStarted is returned by operations that need a running engine.
var ErrNotStarted = errors.New("pingboard is not started")

// Pingboard is the main orchestrator for fleet polling and snapshot serving.
//
// Pingboard coordinates the probe scheduler, the status aggregator, the
// copy-action handler, and the HTTP API. It is created using [New] with
// functional options and started with [Pingboard.Start].
//
// The typical lifecycle is:
//
//	pb, err := pingboard.New(pingboard.WithTargets(targets...))
//	if err != nil {
//	    slog.Error("failed to create pingboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	pb.Start(ctx) // blocks until context cancelled
type Pingboard struct {
	targets           []Target
	pollInterval      time.Duration
	probeTimeout      time.Duration
	serviceTimeout    time.Duration
	copyFeedbackTTL   time.Duration
	port              int
	maxConcurrency    int
	logger            *slog.Logger
	prober            probe.Prober
	copier            clip.Copier
	snapshotCallbacks []func(FleetSnapshot)

	mu     sync.Mutex
	fleet  *store.FleetStore
	copies *clip.Handler
}

// New creates a new [Pingboard] instance with the given options.
//
// At least one target must be configured via [WithTargets], and target
// addresses must be unique. Other options have sensible defaults:
//   - Poll interval: 30 seconds
//   - Probe timeout: 1 second
//   - Service timeout: 2 seconds
//   - Copy feedback TTL: 2 seconds
//   - Port: 8080
//   - Max concurrency: 10
//
// Returns an error if no targets are configured or any option is invalid.
func New(opts ...Option) (*Pingboard, error) {
	cfg := &pbConfig{
		pollInterval:    defaultPollInterval,
		probeTimeout:    defaultProbeTimeout,
		serviceTimeout:  defaultServiceTimeout,
		copyFeedbackTTL: defaultCopyFeedbackTTL,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.targets) == 0 {
		return nil, errors.New("at least one target is required")
	}

	// address is identity; duplicates would make copy actions and merge
	// results ambiguous
	seen := make(map[string]bool, len(cfg.targets))
	for _, t := range cfg.targets {
		if seen[t.Address()] {
			return nil, fmt.Errorf("duplicate target address: %q", t.Address())
		}
		seen[t.Address()] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pingboard{
		targets:           cfg.targets,
		pollInterval:      cfg.pollInterval,
		probeTimeout:      cfg.probeTimeout,
		serviceTimeout:    cfg.serviceTimeout,
		copyFeedbackTTL:   cfg.copyFeedbackTTL,
		port:              cfg.port,
		maxConcurrency:    cfg.maxConcurrency,
		logger:            logger,
		prober:            cfg.prober,
		copier:            cfg.copier,
		snapshotCallbacks: cfg.snapshotCallbacks,
	}, nil
}

// Start begins probing the fleet and serving the snapshot API.
//
// Start is a blocking call that runs until the provided context is
// cancelled. During execution:
//
//   - The whole fleet is probed immediately, then every poll interval
//   - Each cycle's batch is merged into the fleet store and published
//   - The HTTP API serves snapshots and copy requests on the configured port
//   - Registered snapshot callbacks fire on every publish
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (pb *Pingboard) Start(ctx context.Context) error {
	pb.logger.Info("pingboard starting", "target_count", len(pb.targets))
	pb.logger.Info("polling configured",
		"interval", pb.pollInterval.String(),
		"probe_timeout", pb.probeTimeout.String(),
	)

	if ctx.Err() != nil {
		return nil
	}

	probeTargets := pb.toProbeTargets()
	fleet := store.NewFleetStore(probeTargets)

	prober := pb.prober
	if prober == nil {
		prober = probe.NewNetworkProber(pb.serviceTimeout)
	}

	copier := pb.copier
	if copier == nil {
		copier = clip.SystemClipboard{}
	}
	copies := clip.NewHandler(copier, fleet, pb.copyFeedbackTTL, pb.logger)

	pb.mu.Lock()
	pb.fleet = fleet
	pb.copies = copies
	pb.mu.Unlock()

	scheduler := poller.NewScheduler(probeTargets, prober, pb.pollInterval, pb.probeTimeout, pb.maxConcurrency, pb.logger)

	// callbacks observe every publish, including copy-feedback changes; the
	// subscription must exist before the first cycle can publish, or a fast
	// first cycle would slip past the callbacks
	var cbWG sync.WaitGroup
	var sub <-chan store.FleetSnapshot
	if len(pb.snapshotCallbacks) > 0 {
		sub = fleet.Subscribe()
		cbWG.Add(1)
		go func() {
			defer cbWG.Done()
			for snap := range sub {
				public := storeSnapshotToPublic(snap)
				for _, cb := range pb.snapshotCallbacks {
					invokeCallbackSafe(cb, public, pb.logger)
				}
			}
		}()
	}

	scheduler.Start(ctx)

	var wg sync.WaitGroup

	// merge each completed cycle into the fleet store
	wg.Add(1)
	go func() {
		defer wg.Done()
		for cycle := range scheduler.Cycles() {
			snap := fleet.Merge(cycle.Results, cycle.CheckedAt)
			pb.logger.Debug("snapshot published",
				"cycle_id", cycle.ID,
				"online", snap.OnlineCount,
				"total", snap.TotalCount,
			)
		}
	}()

	cleanup := func() {
		scheduler.Stop() // closes the cycles channel
		wg.Wait()        // wait for the final batch to be merged
		if sub != nil {
			fleet.Unsubscribe(sub)
			cbWG.Wait()
		}
		copies.Close()
		if closer, ok := prober.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	httpServer := server.NewServer(fleet, copies, pb.port, pb.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	pb.logger.Info("snapshot api available", "url", fmt.Sprintf("http://localhost:%d/api/fleet", pb.port))

	<-ctx.Done()
	cleanup()
	pb.logger.Info("pingboard stopped")
	return nil
}

// CopyAddress copies a target's address and raises its copy-feedback flag.
//
// The flag clears on its own after the configured TTL; copying the same
// address again restarts that timer. Returns [ErrNotStarted] before
// [Pingboard.Start] and an error for addresses outside the registry.
func (pb *Pingboard) CopyAddress(address string) error {
	pb.mu.Lock()
	copies := pb.copies
	pb.mu.Unlock()

	if copies == nil {
		return ErrNotStarted
	}
	return copies.Copy(address)
}

// Snapshot returns the most recently published [FleetSnapshot].
// Returns [ErrNotStarted] before [Pingboard.Start].
func (pb *Pingboard) Snapshot() (FleetSnapshot, error) {
	pb.mu.Lock()
	fleet := pb.fleet
	pb.mu.Unlock()

	if fleet == nil {
		return FleetSnapshot{}, ErrNotStarted
	}
	return storeSnapshotToPublic(fleet.Snapshot()), nil
}

// Targets returns a copy of the configured targets in registration order.
func (pb *Pingboard) Targets() []Target {
	cp := make([]Target, len(pb.targets))
	copy(cp, pb.targets)
	return cp
}

// Port returns the configured HTTP port for the snapshot API.
func (pb *Pingboard) Port() int {
	return pb.port
}

// PollInterval returns the configured period between probe cycles.
func (pb *Pingboard) PollInterval() time.Duration {
	return pb.pollInterval
}

// toProbeTargets converts the registry to the poller's target format.
func (pb *Pingboard) toProbeTargets() []probe.Target {
	result := make([]probe.Target, len(pb.targets))
	for i, t := range pb.targets {
		result[i] = probe.Target{
			Address:     t.address,
			DisplayName: t.name,
		}
		if t.service != nil {
			result[i].ServicePort = t.service.Port
			result[i].ServiceHint = t.service.MatchHint
		}
	}
	return result
}

// storeSnapshotToPublic converts a store snapshot to the public API type.
// Creates fresh copies of nested data so callers can hold snapshots freely.
func storeSnapshotToPublic(snap store.FleetSnapshot) FleetSnapshot {
	targets := make([]TargetStatus, len(snap.Statuses))
	for i, s := range snap.Statuses {
		ts := TargetStatus{
			Name:            s.Name,
			Address:         s.Address,
			Online:          s.Online,
			FailureReason:   FailureKind(s.FailureKind),
			Troubleshooting: s.Troubleshooting,
			Latency:         time.Duration(s.LatencyMs) * time.Millisecond,
			CheckedAt:       s.CheckedAt,
			CopyFeedback:    s.CopyFeedback,
		}
		if s.Service != nil {
			ts.Service = &ServiceStatus{
				Present:       s.Service.Present,
				FailureReason: FailureKind(s.Service.FailureKind),
				Detail:        s.Service.Detail,
			}
		}
		targets[i] = ts
	}

	return FleetSnapshot{
		Targets:     targets,
		OnlineCount: snap.OnlineCount,
		TotalCount:  snap.TotalCount,
		UpdatedAt:   snap.UpdatedAt,
	}
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// If the callback panics, the full stack is not rethrown; the panic is
// logged with a correlation ID and the engine keeps running.
func invokeCallbackSafe(cb func(FleetSnapshot), snap FleetSnapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
			)
		}
	}()
	cb(snap)
}
