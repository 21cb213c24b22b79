package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestProber builds a NetworkProber whose ping is faked but whose
// service check talks to a real test server.
func newTestProber(output string, err error) *NetworkProber {
	p := NewNetworkProber(time.Second)
	p.pinger = fakeRunner(output, err)
	return p
}

// TestNetworkProber_ServiceCheckRunsDespitePingFailure is the core
// independence property: the two checks are separate diagnostic signals for
// the same cycle, so a dead ping must not suppress the HTTP check.
func TestNetworkProber_ServiceCheckRunsDespitePingFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Zigbee2MQTT"))
	}))
	defer ts.Close()

	host, port := serviceAddr(t, ts)
	prober := newTestProber(unreachableReport, errors.New("exit status 2"))
	defer prober.Close()

	result := prober.Probe(context.Background(), Target{
		Address:     host,
		DisplayName: "pi",
		ServicePort: port,
		ServiceHint: "Zigbee2MQTT",
	}, time.Second)

	if result.Reachable {
		t.Error("Probe() Reachable = true, want false")
	}
	if result.FailureKind != KindHostUnreachable {
		t.Errorf("Probe() FailureKind = %v, want %v", result.FailureKind, KindHostUnreachable)
	}
	if result.Service == nil {
		t.Fatal("Probe() Service = nil, want a service status despite the ping failure")
	}
	if !result.Service.Present {
		t.Error("Probe() Service.Present = false, want true")
	}
}

func TestNetworkProber_NoServiceCheckConfigured(t *testing.T) {
	prober := newTestProber(successReport, nil)
	defer prober.Close()

	result := prober.Probe(context.Background(), Target{Address: "10.0.0.1", DisplayName: "pi"}, time.Second)

	if !result.Reachable {
		t.Error("Probe() Reachable = false, want true")
	}
	if result.Service != nil {
		t.Errorf("Probe() Service = %+v, want nil without a configured check", result.Service)
	}
	if result.RawDetail == "" {
		t.Error("Probe() RawDetail is empty, want the ping report retained")
	}
}

func TestTarget_HasServiceCheck(t *testing.T) {
	if (Target{Address: "10.0.0.1"}).HasServiceCheck() {
		t.Error("HasServiceCheck() = true for a target without a port")
	}
	if !(Target{Address: "10.0.0.1", ServicePort: 8080}).HasServiceCheck() {
		t.Error("HasServiceCheck() = false for a target with a port")
	}
}
