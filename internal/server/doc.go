// Package server exposes the pingboard engine to presentation layers over
// HTTP.
//
// This package is internal to pingboard. It serves the read-only snapshot
// interface (one-shot JSON and a Server-Sent Events stream) and accepts
// copy-address requests. It renders nothing itself; menu bars, trays, and
// dashboards consume these endpoints.
package server
