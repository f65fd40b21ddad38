// Package sim implements the trace-driven transport-layer simulator used to
// study padding-based traffic-analysis defenses under lossy channels.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - config.go: constructor parameters and their validation
//   - event.go: the event types that drive the loop (arrival, ack, ack-clear, timeout)
//   - simulator.go: the event loop, admission/scheduling, loss and retransmission
//   - metrics.go: the Stats type and the exact statistics line printed on completion
//   - rng.go: per-subsystem RNG partitioning for reproducible runs
//
// # Architecture
//
// FEC injection (sim/fec) and decoding (sim/decoder) are separate packages:
// the injector runs once, offline, over a scheduled trace to attach repair
// and dummy metadata; the decoder is invoked by the simulator on every
// repair arrival to recover real packets lost on the wire. sim/trace holds
// the shared packet, metadata, and on-disk wire-format types neither side
// owns outright.
//
// Simulate is the package entrypoint: it chains injection and simulation
// over one trace and returns the received trace plus Stats.
package sim
