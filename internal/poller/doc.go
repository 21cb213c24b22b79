// Package poller drives the periodic probe cycles for pingboard.
//
// This package is internal to pingboard. Its [Scheduler] probes the whole
// target fleet concurrently on a fixed period and emits one batched [Cycle]
// per completed round, so consumers always see a complete, same-cycle result
// set and never a partial one.
//
// A tick that fires while the previous cycle is still in flight is skipped:
// overlapping cycles against the same targets would make result ordering
// ambiguous, so the fleet is simply probed again on the next tick.
//
// Users of the pingboard library should not need to interact with this
// package directly.
package poller
