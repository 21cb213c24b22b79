// Package clip handles copy-address requests for pingboard.
//
// This package is internal to pingboard. Its [Handler] performs the
// clipboard side effect and drives the transient copy-feedback overlay in
// the fleet store: the flag is set on a successful copy and cleared by a
// per-address timer, entirely independent of polling cycles.
package clip

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/shreyashguptas/pingboard/internal/store"
)

// defaultFeedbackTTL is how long the copy-feedback flag stays set when the
// caller does not override it.
const defaultFeedbackTTL = 2 * time.Second

// Copier performs the external copy side effect. Injectable so tests and
// headless deployments can avoid the system clipboard.
type Copier interface {
	Copy(text string) error
}

// SystemClipboard is the default [Copier], writing to the OS clipboard.
type SystemClipboard struct{}

// Copy implements [Copier].
func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Handler exposes the one-shot copy-address operation.
//
// Each successful copy sets the target's feedback flag and arms a timer to
// clear it after the TTL. A second copy for the same address while feedback
// is active restarts that address's timer (last writer wins); copies for
// different addresses are fully independent.
type Handler struct {
	copier Copier
	fleet  *store.FleetStore
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	gens   map[string]uint64
	closed bool
}

// NewHandler creates a copy [Handler]. A non-positive ttl falls back to the
// 2 second default.
func NewHandler(copier Copier, fleet *store.FleetStore, ttl time.Duration, logger *slog.Logger) *Handler {
	if ttl <= 0 {
		ttl = defaultFeedbackTTL
	}
	return &Handler{
		copier: copier,
		fleet:  fleet,
		ttl:    ttl,
		logger: logger,
		timers: make(map[string]*time.Timer),
		gens:   make(map[string]uint64),
	}
}

// Copy copies the address, flips its feedback flag, and arms the clear
// timer.
//
// The flag is only set once the copy side effect succeeded, so a clipboard
// failure can never leave feedback active for an address that was not
// copied. Returns [store.ErrUnknownTarget] for addresses outside the
// registry.
func (h *Handler) Copy(address string) error {
	if !h.fleet.Registered(address) {
		return fmt.Errorf("copy %q: %w", address, store.ErrUnknownTarget)
	}

	if err := h.copier.Copy(address); err != nil {
		return fmt.Errorf("copy %q: %w", address, err)
	}

	if err := h.fleet.SetCopyFeedback(address); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if t := h.timers[address]; t != nil {
		t.Stop()
	}
	// Stop on a timer that already fired is a no-op and its callback still
	// runs, so each arming gets a generation and a stale callback is ignored
	h.gens[address]++
	gen := h.gens[address]
	h.timers[address] = time.AfterFunc(h.ttl, func() { h.expire(address, gen) })
	return nil
}

// expire clears one address's feedback flag when its timer fires. A callback
// from a timer that was superseded by a re-copy carries a stale generation
// and must leave the newer copy's flag alone.
func (h *Handler) expire(address string, gen uint64) {
	h.mu.Lock()
	if h.closed || h.gens[address] != gen {
		h.mu.Unlock()
		return
	}
	delete(h.timers, address)
	h.mu.Unlock()

	if err := h.fleet.ClearCopyFeedback(address); err != nil {
		h.logger.Warn("failed to clear copy feedback", "address", address, "error", err)
	}
}

// Close stops all pending feedback timers. Flags already set stay set;
// after Close the handler refuses to arm new timers.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for addr, t := range h.timers {
		t.Stop()
		delete(h.timers, addr)
	}
}
