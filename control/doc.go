// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime parameters, metrics, debug introspection and event history for the
// overlay.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads with reload listeners
//   - Counters and gauges for pool activity
//   - Named debug probes and a bounded log of recent overlay events
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
