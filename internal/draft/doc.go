// Package draft writes scene prose from a compiled context packet.
//
// Write sees only the packet and a generator: it has no store access, so a
// draft can never draw on material the packet did not select. Stage wraps
// Write for the pipeline and persists the draft with its meta sidecar.
package draft
