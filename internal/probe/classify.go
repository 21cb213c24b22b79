package probe

import (
	"errors"
	"os/exec"
	"regexp"
	"strings"
)

// FailureKind categorizes why a probe failed, so the presentation layer can
// show an actionable hint instead of raw tool output.
type FailureKind string

const (
	// KindHostUnreachable means the ping ran but every packet was lost.
	KindHostUnreachable FailureKind = "host_unreachable"

	// KindProbeToolUnavailable means the ping utility itself could not be run.
	KindProbeToolUnavailable FailureKind = "probe_tool_unavailable"

	// KindInvalidAddress means the target address could not be resolved.
	KindInvalidAddress FailureKind = "invalid_address"

	// KindServiceCheckFailed means the HTTP service check could not complete.
	KindServiceCheckFailed FailureKind = "service_check_failed"

	// KindUnknown covers any failure the other kinds do not explain.
	KindUnknown FailureKind = "unknown"
)

// String returns the string representation of the failure kind.
// This implements the fmt.Stringer interface.
func (k FailureKind) String() string {
	return string(k)
}

// Message returns the troubleshooting hint shown for this failure kind.
// The empty kind (no failure) yields an empty message.
func (k FailureKind) Message() string {
	switch k {
	case KindHostUnreachable:
		return "Host is unreachable. Check that the device is powered on, connected to the network, and that the address is correct."
	case KindProbeToolUnavailable:
		return "The ping utility is missing or not executable. Check the system configuration."
	case KindInvalidAddress:
		return "The address could not be resolved. Check that the address is well formed."
	case KindServiceCheckFailed:
		return "The service check could not complete. Check that the service is running and reachable."
	case KindUnknown:
		return "Probe failed. Check network connectivity."
	default:
		return ""
	}
}

// totalLossPattern matches a ping report line claiming 100% packet loss,
// tolerating both "100%" and "100.0%" forms across ping implementations.
var totalLossPattern = regexp.MustCompile(`\b100(\.0+)?% packet loss`)

// resolutionPhrases are substrings different ping implementations emit when
// the target name cannot be resolved.
var resolutionPhrases = []string{
	"cannot resolve",
	"unknown host",
	"name or service not known",
	"temporary failure in name resolution",
	"could not find host",
}

// Classify maps raw ping output and the command error onto a [FailureKind].
//
// Classification is pure textual pattern matching so it can be tested without
// touching the network. Precedence is fixed: total packet loss wins over a
// missing ping binary, which wins over a resolution failure; anything else is
// [KindUnknown].
func Classify(output string, err error) FailureKind {
	lower := strings.ToLower(output)
	if err != nil {
		lower += "\n" + strings.ToLower(err.Error())
	}

	switch {
	case totalLossPattern.MatchString(lower):
		return KindHostUnreachable
	case isToolMissing(lower, err):
		return KindProbeToolUnavailable
	case containsAny(lower, resolutionPhrases):
		return KindInvalidAddress
	default:
		return KindUnknown
	}
}

// isToolMissing reports whether the error indicates the ping binary itself
// could not be executed.
func isToolMissing(lower string, err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	return strings.Contains(lower, "executable file not found") ||
		strings.Contains(lower, "command not found")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
