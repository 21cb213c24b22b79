package pingboard

import "time"

// FailureKind categorizes why a target's probe failed so presentation
// layers can show an actionable hint instead of raw tool output.
//
// Using a string type allows for easy JSON serialization and human-readable
// logging while maintaining type safety through the defined constants.
// The values match the engine's internal classification, which is derived
// by textual pattern matching over the ping tool's report.
type FailureKind string

const (
	// FailureHostUnreachable means the ping ran but every packet was lost:
	// the host is likely powered off or disconnected.
	FailureHostUnreachable FailureKind = "host_unreachable"

	// FailureProbeToolUnavailable means the ping utility itself could not
	// be executed; the monitoring machine is misconfigured.
	FailureProbeToolUnavailable FailureKind = "probe_tool_unavailable"

	// FailureInvalidAddress means the target address did not resolve.
	FailureInvalidAddress FailureKind = "invalid_address"

	// FailureServiceCheckFailed means the HTTP service check could not
	// complete (network error or timeout).
	FailureServiceCheckFailed FailureKind = "service_check_failed"

	// FailureUnknown covers failures the other kinds do not explain.
	FailureUnknown FailureKind = "unknown"
)

// String returns the string representation of the failure kind.
// This implements the fmt.Stringer interface.
func (k FailureKind) String() string {
	return string(k)
}

// ServiceStatus is the outcome of a target's HTTP service check.
type ServiceStatus struct {
	// Present is true when the service's marker was found in the response.
	Present bool

	// FailureReason classifies a check that could not complete; empty for
	// a clean check, present or not.
	FailureReason FailureKind

	// Detail carries the raw error text when the check failed.
	Detail string
}

// TargetStatus is the published status of one target within a snapshot.
//
// TargetStatus is immutable: it is a copy taken at publish time, and later
// cycles never mutate an already-published value.
type TargetStatus struct {
	// Name is the target's display name.
	Name string

	// Address is the probed address.
	Address string

	// Online is true when the last reachability probe succeeded.
	Online bool

	// FailureReason classifies the last failure; empty when online.
	FailureReason FailureKind

	// Troubleshooting is the human-readable hint matching FailureReason;
	// empty when online.
	Troubleshooting string

	// Service is the service-check outcome, nil when none is configured.
	Service *ServiceStatus

	// Latency is the duration of the last probe.
	Latency time.Duration

	// CheckedAt is the completion time of the cycle that produced this
	// status. It advances monotonically across cycles.
	CheckedAt time.Time

	// CopyFeedback is the transient flag raised after the address was
	// copied, cleared by its own timer independent of polling.
	CopyFeedback bool
}

// FleetSnapshot is the immutable result set published after every cycle
// and after every copy-feedback change.
type FleetSnapshot struct {
	// Targets holds one status per probed target, in registration order.
	Targets []TargetStatus

	// OnlineCount is the number of targets currently online.
	OnlineCount int

	// TotalCount is the registry size. 0/TotalCount online is a valid
	// state, not an engine error.
	TotalCount int

	// UpdatedAt is when this snapshot was built.
	UpdatedAt time.Time
}
