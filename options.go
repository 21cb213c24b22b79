package pingboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/shreyashguptas/pingboard/internal/clip"
	"github.com/shreyashguptas/pingboard/internal/probe"
)

// pbConfig holds mutable state during Pingboard construction.
type pbConfig struct {
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
}

// Option is a function that configures a [Pingboard] instance during
// construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*pbConfig) error

// WithTargets adds targets to the polling registry.
//
// Can be called multiple times; targets keep their registration order in
// every snapshot. At least one target must be configured for [New] to
// succeed, and addresses must be unique.
func WithTargets(targets ...Target) Option {
	return func(cfg *pbConfig) error {
		cfg.targets = append(cfg.targets, targets...)
		return nil
	}
}

// WithPollInterval sets the period between probe cycles.
//
// All targets are probed concurrently each cycle. A cycle still running
// when the next period elapses causes that tick to be skipped, never an
// overlapping cycle. Defaults to 30 seconds if not specified.
//
// Returns an error if the duration is not positive.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithProbeTimeout sets the per-target reachability probe timeout.
// Defaults to 1 second if not specified.
//
// Returns an error if the duration is not positive.
func WithProbeTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("probe timeout must be positive")
		}
		cfg.probeTimeout = d
		return nil
	}
}

// WithServiceTimeout sets the HTTP service check timeout.
// Defaults to 2 seconds if not specified; values above 2 seconds are
// rejected to keep cycles short.
func WithServiceTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("service timeout must be positive")
		}
		if d > 2*time.Second {
			return errors.New("service timeout must not exceed 2s")
		}
		cfg.serviceTimeout = d
		return nil
	}
}

// WithCopyFeedbackTTL sets how long the copy-feedback flag stays raised
// after a copy action. Defaults to 2 seconds if not specified.
//
// Returns an error if the duration is not positive.
func WithCopyFeedbackTTL(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("copy feedback TTL must be positive")
		}
		cfg.copyFeedbackTTL = d
		return nil
	}
}

// WithPort sets the HTTP port for the snapshot API server.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *pbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets the maximum number of simultaneously running
// probes within a cycle. Defaults to 10 if not specified.
//
// Returns an error if the value is not positive.
func WithMaxConcurrency(n int) Option {
	return func(cfg *pbConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Pingboard instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithProber injects a custom probe executor.
//
// This is primarily for tests: a fake prober lets the whole engine run
// without touching the network or the system ping tool. If not specified,
// the real ping+HTTP prober is used.
//
// Returns an error if the prober is nil.
func WithProber(p probe.Prober) Option {
	return func(cfg *pbConfig) error {
		if p == nil {
			return errors.New("prober cannot be nil")
		}
		cfg.prober = p
		return nil
	}
}

// WithCopier injects a custom copy side effect, replacing the system
// clipboard. Useful for tests and headless deployments.
//
// Returns an error if the copier is nil.
func WithCopier(c clip.Copier) Option {
	return func(cfg *pbConfig) error {
		if c == nil {
			return errors.New("copier cannot be nil")
		}
		cfg.copier = c
		return nil
	}
}

// WithSnapshotCallback registers a function called after every published
// snapshot (cycle merges and copy-feedback changes alike).
//
// Multiple callbacks may be registered; they execute in registration order.
// Callbacks must be non-blocking: they run synchronously on the result
// consumer goroutine, so a slow callback delays snapshot processing.
// Panics within callbacks are recovered and logged with a correlation ID;
// they do not crash the engine.
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(FleetSnapshot)) Option {
	return func(cfg *pbConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}
