// Package store aggregates probe results into fleet snapshots for pingboard.
//
// This package is internal to pingboard. Its [FleetStore] owns the mutable
// per-target state that survives across polling cycles and has two writer
// paths touching disjoint fields: cycle merges update the probe outcome and
// check time, copy-feedback calls flip only the transient feedback flag.
// Merging is field-level, never wholesale replacement, so neither path can
// clobber the other's writes.
//
// Every mutation rebuilds an immutable [FleetSnapshot] in registry order and
// publishes it to subscribers over buffered channels with non-blocking sends
// (slow consumers miss snapshots rather than stalling the engine).
package store
