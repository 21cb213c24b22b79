package store

import (
	"errors"
	"sync"
	"time"

	"github.com/shreyashguptas/pingboard/internal/probe"
)

// ErrUnknownTarget is returned for addresses outside the registry.
var ErrUnknownTarget = errors.New("unknown target address")

// subscriberBuffer is the per-subscriber channel capacity. A full buffer
// drops snapshots for that subscriber instead of blocking the publish path.
const subscriberBuffer = 16

// ServiceStatus is the storage representation of a service-check outcome,
// optimized for JSON serialization (used by the REST API and SSE).
type ServiceStatus struct {
	// Present is true when the service's marker was found.
	Present bool `json:"present"`

	// FailureKind classifies a check that could not complete; empty for a
	// clean check, present or not.
	FailureKind string `json:"failure_kind,omitempty"`

	// Detail carries the raw error text when the check failed.
	Detail string `json:"detail,omitempty"`
}

// TargetStatus is the published status of one target.
type TargetStatus struct {
	// Name is the target's display name.
	Name string `json:"name"`

	// Address is the probed address, the target's identity.
	Address string `json:"address"`

	// Online is true when the last reachability probe succeeded.
	Online bool `json:"online"`

	// FailureKind classifies the last failure; empty when online.
	FailureKind string `json:"failure_kind,omitempty"`

	// Troubleshooting is the human-readable hint for the failure kind;
	// empty when online.
	Troubleshooting string `json:"troubleshooting,omitempty"`

	// Service is the service-check outcome, nil when none is configured.
	Service *ServiceStatus `json:"service,omitempty"`

	// LatencyMs is the last probe's duration in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is the completion time of the cycle that produced this status.
	CheckedAt time.Time `json:"checked_at"`

	// CopyFeedback is the transient flag set after the address was copied.
	CopyFeedback bool `json:"copy_feedback"`
}

// FleetSnapshot is the immutable result set published after every mutation.
//
// Statuses follows registry order for deterministic display. Targets that
// have not been probed yet are absent from Statuses but still counted in
// TotalCount.
type FleetSnapshot struct {
	// Statuses holds one entry per probed target, in registry order.
	Statuses []TargetStatus `json:"targets"`

	// OnlineCount is the number of probed targets currently online.
	OnlineCount int `json:"online_count"`

	// TotalCount is the registry size.
	TotalCount int `json:"total_count"`

	// UpdatedAt is when this snapshot was built.
	UpdatedAt time.Time `json:"updated_at"`
}

// entry is the mutable per-target state surviving across cycles. The poll
// path writes every field except copyFeedback; the copy-feedback path
// writes only copyFeedback.
type entry struct {
	name         string
	online       bool
	failureKind  probe.FailureKind
	service      probe.ServiceStatus
	hasService   bool
	latency      time.Duration
	checkedAt    time.Time
	copyFeedback bool
}

// FleetStore aggregates probe results for a fixed target registry.
//
// The registry (order and names) is fixed at construction; per-target
// entries are created lazily when their first result or feedback write
// arrives. All methods are safe for concurrent use.
type FleetStore struct {
	order []string          // registry-ordered addresses
	names map[string]string // address → display name

	mu       sync.RWMutex
	entries  map[string]*entry
	snapshot FleetSnapshot

	subMu       sync.RWMutex
	subscribers map[chan FleetSnapshot]struct{}
}

// NewFleetStore creates a [FleetStore] over the given registry. Target
// order determines snapshot order for the process lifetime.
func NewFleetStore(targets []probe.Target) *FleetStore {
	order := make([]string, 0, len(targets))
	names := make(map[string]string, len(targets))
	for _, t := range targets {
		order = append(order, t.Address)
		names[t.Address] = t.DisplayName
	}
	return &FleetStore{
		order:       order,
		names:       names,
		entries:     make(map[string]*entry, len(targets)),
		snapshot:    FleetSnapshot{TotalCount: len(targets), UpdatedAt: time.Now()},
		subscribers: make(map[chan FleetSnapshot]struct{}),
	}
}

// Registered reports whether the address belongs to the registry.
func (f *FleetStore) Registered(address string) bool {
	_, ok := f.names[address]
	return ok
}

// Merge folds one cycle's results into the per-target entries and publishes
// the rebuilt snapshot.
//
// Only the poll-owned fields are written; copyFeedback is left untouched so
// a cycle landing mid-feedback cannot clear the flag early. Results for
// addresses outside the registry are ignored. The returned snapshot is the
// one published.
func (f *FleetStore) Merge(results []probe.Result, checkedAt time.Time) FleetSnapshot {
	f.mu.Lock()
	for _, r := range results {
		addr := r.Target.Address
		if _, ok := f.names[addr]; !ok {
			continue
		}
		e := f.entries[addr]
		if e == nil {
			e = &entry{name: f.names[addr]}
			f.entries[addr] = e
		}
		e.online = r.Reachable
		e.failureKind = r.FailureKind
		e.latency = r.Latency
		e.checkedAt = checkedAt
		if r.Service != nil {
			e.service = *r.Service
			e.hasService = true
		} else {
			e.hasService = false
		}
	}
	snap := f.rebuildLocked()
	f.mu.Unlock()

	f.notifySubscribers(snap)
	return snap
}

// SetCopyFeedback marks the target's address as recently copied and
// publishes the updated snapshot. Returns [ErrUnknownTarget] for addresses
// outside the registry.
func (f *FleetStore) SetCopyFeedback(address string) error {
	return f.setFeedback(address, true)
}

// ClearCopyFeedback clears the copy-feedback flag and publishes the updated
// snapshot. Returns [ErrUnknownTarget] for addresses outside the registry.
func (f *FleetStore) ClearCopyFeedback(address string) error {
	return f.setFeedback(address, false)
}

func (f *FleetStore) setFeedback(address string, active bool) error {
	name, ok := f.names[address]
	if !ok {
		return ErrUnknownTarget
	}

	f.mu.Lock()
	e := f.entries[address]
	if e == nil {
		e = &entry{name: name}
		f.entries[address] = e
	}
	e.copyFeedback = active
	snap := f.rebuildLocked()
	f.mu.Unlock()

	f.notifySubscribers(snap)
	return nil
}

// Snapshot returns the most recently published snapshot.
func (f *FleetStore) Snapshot() FleetSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// rebuildLocked builds a fresh snapshot from the entries. Caller holds mu.
func (f *FleetStore) rebuildLocked() FleetSnapshot {
	statuses := make([]TargetStatus, 0, len(f.entries))
	online := 0

	for _, addr := range f.order {
		e := f.entries[addr]
		if e == nil {
			continue // not probed or touched yet
		}

		status := TargetStatus{
			Name:         e.name,
			Address:      addr,
			Online:       e.online,
			LatencyMs:    e.latency.Milliseconds(),
			CheckedAt:    e.checkedAt,
			CopyFeedback: e.copyFeedback,
		}
		if !e.online {
			status.FailureKind = e.failureKind.String()
			status.Troubleshooting = e.failureKind.Message()
		}
		if e.hasService {
			status.Service = &ServiceStatus{
				Present:     e.service.Present,
				FailureKind: e.service.FailureKind.String(),
				Detail:      e.service.RawDetail,
			}
		}
		if e.online {
			online++
		}
		statuses = append(statuses, status)
	}

	snap := FleetSnapshot{
		Statuses:    statuses,
		OnlineCount: online,
		TotalCount:  len(f.order),
		UpdatedAt:   time.Now(),
	}
	f.snapshot = snap
	return snap
}

// Subscribe creates a new subscription and returns a channel receiving
// every published snapshot.
//
// The channel is buffered; if the buffer fills, snapshots are dropped for
// this subscriber. Caller must call [FleetStore.Unsubscribe] when done to
// prevent resource leaks.
func (f *FleetStore) Subscribe() <-chan FleetSnapshot {
	ch := make(chan FleetSnapshot, subscriberBuffer)

	f.subMu.Lock()
	f.subscribers[ch] = struct{}{}
	f.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (f *FleetStore) Unsubscribe(ch <-chan FleetSnapshot) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	for subCh := range f.subscribers {
		if subCh == ch {
			delete(f.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers without
// blocking the publish path.
func (f *FleetStore) notifySubscribers(snap FleetSnapshot) {
	f.subMu.RLock()
	defer f.subMu.RUnlock()

	for ch := range f.subscribers {
		select {
		case ch <- snap:
		default:
			// subscriber is slow, drop the snapshot
		}
	}
}
