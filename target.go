package pingboard

import (
	"errors"
	"fmt"
	"strings"
)

// ServiceCheck describes the optional HTTP presence probe for a target.
//
// The check issues a GET to http://<address>:<Port>/ each cycle and reports
// the service present when the response body contains MatchHint.
type ServiceCheck struct {
	// Port is the HTTP port the service listens on.
	Port uint16

	// MatchHint is the substring identifying the service in the body.
	MatchHint string
}

// Target represents one monitored host.
//
// Target is immutable after creation via [NewTarget]. Its address is its
// identity: the registry rejects duplicates, and copy actions and snapshot
// entries are keyed by it.
type Target struct {
	name    string
	address string
	service *ServiceCheck
}

// Name returns the target's display name.
func (t Target) Name() string {
	return t.name
}

// Address returns the probed address, the target's identity.
func (t Target) Address() string {
	return t.address
}

// Service returns a copy of the target's service check, or nil when no
// secondary check is configured.
func (t Target) Service() *ServiceCheck {
	if t.service == nil {
		return nil
	}
	sc := *t.service
	return &sc
}

// NewTarget creates a [Target] with the given display name and address.
//
// The name is shown to users; the address is what gets pinged and must not
// contain whitespace or a URL scheme (it is a bare host or IP). Options are
// applied in order; see [WithServiceCheck].
//
// Example:
//
//	target, err := pingboard.NewTarget("Zigbee Pi", "10.0.0.2",
//	    pingboard.WithServiceCheck(8080, "Zigbee2MQTT"),
//	)
func NewTarget(name, address string, opts ...TargetOption) (Target, error) {
	if name == "" {
		return Target{}, errors.New("target name cannot be empty")
	}
	if address == "" {
		return Target{}, errors.New("target address cannot be empty")
	}
	if strings.ContainsAny(address, " \t") {
		return Target{}, fmt.Errorf("target address %q must not contain whitespace", address)
	}
	if strings.Contains(address, "://") {
		return Target{}, fmt.Errorf("target address %q must be a bare host, not a URL", address)
	}

	cfg := &targetConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Target{}, err
		}
	}

	return Target{
		name:    name,
		address: address,
		service: cfg.service,
	}, nil
}
