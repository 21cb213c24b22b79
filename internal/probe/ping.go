package probe

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

// pingGrace is added to the context deadline around the ping command so the
// tool's own timeout flag fires first and produces a parseable report; the
// context kill is only a backstop against a hung binary.
const pingGrace = 500 * time.Millisecond

var (
	transmittedPattern = regexp.MustCompile(`(\d+) packets? transmitted`)
	packetLossPattern  = regexp.MustCompile(`([\d.]+)% packet loss`)
)

// runner executes one ping against an address and returns the combined
// stdout/stderr report. Injectable so tests never touch the network.
type runner func(ctx context.Context, address string, timeout time.Duration) (string, error)

// Pinger runs a single-packet system ping and interprets its textual report.
//
// Pinger deliberately shells out to the platform ping tool rather than opening
// raw ICMP sockets: the tool runs without elevated privileges and its report
// carries the loss and resolution phrases the failure taxonomy is built on.
type Pinger struct {
	run runner
}

// NewPinger creates a [Pinger] backed by the system ping tool.
func NewPinger() *Pinger {
	return &Pinger{run: systemPing}
}

// Ping probes one address with a single packet and the given timeout.
//
// Reachable requires all of: the command completed without a transport error,
// the report shows exactly one packet transmitted, and the reported packet
// loss is not total. A missing loss phrase is treated as no loss, since some
// ping builds omit it on success. On failure, kind carries the classified
// reason and raw the report text for diagnostics.
func (p *Pinger) Ping(ctx context.Context, address string, timeout time.Duration) (reachable bool, kind FailureKind, raw string) {
	ctx, cancel := context.WithTimeout(ctx, timeout+pingGrace)
	defer cancel()

	output, err := p.run(ctx, address, timeout)

	transmitted, ok := parseTransmitted(output)
	loss, hasLoss := parsePacketLoss(output)

	if err == nil && ok && transmitted == 1 && (!hasLoss || loss < 100) {
		return true, "", output
	}
	return false, Classify(output, err), output
}

// systemPing is the default runner: one ping packet via the platform tool.
func systemPing(ctx context.Context, address string, timeout time.Duration) (string, error) {
	out, err := pingCommand(ctx, address, timeout).CombinedOutput()
	return string(out), err
}

// pingCommand builds the platform-specific single-packet ping invocation.
// Windows and macOS take the per-reply timeout in milliseconds, Linux in
// whole seconds.
func pingCommand(ctx context.Context, address string, timeout time.Duration) *exec.Cmd {
	millis := strconv.Itoa(int(timeout / time.Millisecond))

	switch runtime.GOOS {
	case "windows":
		return exec.CommandContext(ctx, "ping", "-n", "1", "-w", millis, address)
	case "darwin":
		return exec.CommandContext(ctx, "ping", "-c", "1", "-W", millis, address)
	default:
		secs := int(timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		return exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs), address)
	}
}

// parseTransmitted extracts the transmitted-packet count from a ping report.
func parseTransmitted(output string) (int, bool) {
	m := transmittedPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePacketLoss extracts the packet-loss percentage from a ping report.
func parsePacketLoss(output string) (float64, bool) {
	m := packetLossPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	loss, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return loss, true
}
