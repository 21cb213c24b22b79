// Package probe executes reachability and service-presence probes for pingboard.
//
// This package is internal to pingboard and implements a single probe of one
// target: a one-packet system ping plus, when configured, an HTTP check that
// looks for a known marker in the response body. Both checks run concurrently
// and are joined before the probe returns, so the two signals for a target
// always belong to the same polling cycle.
//
// The main components are:
//
//   - [Pinger]: runs the system ping tool and parses its report
//   - [Classify]: maps raw probe output onto the [FailureKind] taxonomy
//   - [NetworkProber]: the default [Prober] combining ping and service check
//   - [Result]: the outcome of probing a single target
//
// Users of the pingboard library should not need to interact with this
// package directly. A fake [Prober] can be injected through the main
// pingboard package for testing.
package probe
