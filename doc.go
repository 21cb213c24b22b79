// Package pingboard provides a lightweight status-polling engine for a
// fixed fleet of networked hosts.
//
// Pingboard periodically probes every target with a single-packet system
// ping and, optionally, an HTTP service-presence check, classifies failures
// into actionable categories, and publishes an immutable fleet snapshot
// after every cycle. Presentation layers (menu bars, trays, dashboards)
// consume the snapshot and the copy-address API; pingboard renders nothing
// itself.
//
// # Quick Start
//
// Create targets and start the engine with graceful shutdown:
//
//	target, _ := pingboard.NewTarget("Living Room Pi", "10.0.0.1")
//	pb, _ := pingboard.New(pingboard.WithTargets(target))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	pb.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Pingboard uses the functional options pattern for configuration:
//
//	pb, err := pingboard.New(
//	    pingboard.WithTargets(targets...),
//	    pingboard.WithPollInterval(30 * time.Second),
//	    pingboard.WithProbeTimeout(time.Second),
//	    pingboard.WithPort(9090),
//	)
//
// Targets can carry a secondary HTTP check that looks for a known marker in
// the response body, recognizing a specific application on the host:
//
//	target, err := pingboard.NewTarget("Zigbee Pi", "10.0.0.2",
//	    pingboard.WithServiceCheck(8080, "Zigbee2MQTT"),
//	)
//
// # Snapshots
//
// Each completed cycle produces a [FleetSnapshot]: per-target online state,
// failure classification with a troubleshooting hint, optional service
// presence, and the fleet-wide online/total summary, ordered as the targets
// were registered. Snapshots are also served over HTTP (JSON and SSE) and
// pushed to callbacks registered with [WithSnapshotCallback].
//
// # Copy actions
//
// [Pingboard.CopyAddress] copies a target's address to the system clipboard
// and raises that target's transient copy-feedback flag for two seconds,
// independent of the polling cycle. The flag rides along in every snapshot
// so presentation layers can show a "copied!" hint.
package pingboard
