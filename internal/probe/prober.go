package probe

import (
	"context"
	"sync"
	"time"
)

// defaultServiceTimeout bounds the HTTP service check when the caller does
// not override it.
const defaultServiceTimeout = 2 * time.Second

// Target is the probe-internal view of one monitored host.
//
// This is decoupled from the main pingboard.Target type to avoid circular
// dependencies. A ServicePort of zero means no service check is configured.
type Target struct {
	// Address is the host to probe, the target's identity.
	Address string

	// DisplayName is the human-readable name for logs and status output.
	DisplayName string

	// ServicePort is the HTTP port of the optional service check.
	ServicePort uint16

	// ServiceHint is the substring whose presence in the service response
	// body marks the service as present.
	ServiceHint string
}

// HasServiceCheck reports whether a service check is configured.
func (t Target) HasServiceCheck() bool {
	return t.ServicePort != 0
}

// ServiceStatus is the outcome of the optional HTTP service check.
type ServiceStatus struct {
	// Present is true when the response body contained the match hint.
	Present bool

	// FailureKind is set when the check could not complete; empty for a
	// clean check, present or not.
	FailureKind FailureKind

	// RawDetail carries the raw error text when the check failed.
	RawDetail string
}

// Result is the outcome of one probe of one target within one cycle.
type Result struct {
	// Target is the probed target.
	Target Target

	// Reachable is true when the single-packet ping succeeded.
	Reachable bool

	// FailureKind classifies the ping failure; empty when reachable.
	FailureKind FailureKind

	// RawDetail is the raw ping report, kept for diagnostics.
	RawDetail string

	// Service is the service-check outcome, nil when none is configured.
	Service *ServiceStatus

	// Latency is the wall time of the whole probe call. Check time is not
	// recorded here; the scheduler stamps the whole cycle on emit.
	Latency time.Duration
}

// Prober probes a single target. Implementations must be safe for
// concurrent use; the scheduler probes a whole fleet in parallel.
type Prober interface {
	Probe(ctx context.Context, target Target, timeout time.Duration) Result
}

// NetworkProber is the default [Prober]: a system ping plus, when
// configured, the HTTP service check.
//
// The two checks run concurrently and are both joined before Probe returns.
// They are independent signals: the service check runs even when the ping
// fails, since a host that drops ICMP can still serve HTTP and vice versa.
type NetworkProber struct {
	pinger         *Pinger
	service        *serviceClient
	serviceTimeout time.Duration
}

// NewNetworkProber creates a [NetworkProber]. A non-positive serviceTimeout
// falls back to the 2 second default.
func NewNetworkProber(serviceTimeout time.Duration) *NetworkProber {
	if serviceTimeout <= 0 {
		serviceTimeout = defaultServiceTimeout
	}
	return &NetworkProber{
		pinger:         NewPinger(),
		service:        newServiceClient(),
		serviceTimeout: serviceTimeout,
	}
}

// Probe implements [Prober]. No retries happen here; retry cadence is owned
// entirely by the scheduler's period.
func (p *NetworkProber) Probe(ctx context.Context, target Target, timeout time.Duration) Result {
	start := time.Now()

	var (
		svc *ServiceStatus
		wg  sync.WaitGroup
	)
	if target.HasServiceCheck() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := p.service.Check(ctx, target.Address, target.ServicePort, target.ServiceHint, p.serviceTimeout)
			svc = &s
		}()
	}

	reachable, kind, raw := p.pinger.Ping(ctx, target.Address, timeout)
	wg.Wait()

	return Result{
		Target:      target,
		Reachable:   reachable,
		FailureKind: kind,
		RawDetail:   raw,
		Service:     svc,
		Latency:     time.Since(start),
	}
}

// Close releases the prober's idle HTTP connections.
func (p *NetworkProber) Close() {
	p.service.Close()
}
