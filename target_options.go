package pingboard

import "errors"

// targetConfig holds mutable state during Target construction.
type targetConfig struct {
	service *ServiceCheck
}

// TargetOption configures a [Target] during construction via [NewTarget].
//
// Options return an error if validation fails.
type TargetOption func(*targetConfig) error

// WithServiceCheck adds the secondary HTTP presence probe to a target.
//
// Each cycle, pingboard issues a GET to http://<address>:<port>/ and marks
// the service present when the response body contains matchHint. The check
// runs independently of the ping: a host that drops ICMP can still report
// its service, and a pingable host can still be missing it.
//
// Example:
//
//	target, err := pingboard.NewTarget("Zigbee Pi", "10.0.0.2",
//	    pingboard.WithServiceCheck(8080, "Zigbee2MQTT"),
//	)
//
// Returns an error if port is zero or matchHint is empty.
func WithServiceCheck(port uint16, matchHint string) TargetOption {
	return func(cfg *targetConfig) error {
		if port == 0 {
			return errors.New("service check port cannot be zero")
		}
		if matchHint == "" {
			return errors.New("service check match hint cannot be empty")
		}
		cfg.service = &ServiceCheck{Port: port, MatchHint: matchHint}
		return nil
	}
}
