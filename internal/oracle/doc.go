// Package oracle verifies application state from two independent sides.
//
// The rendered view (read through the page façade) and the persisted
// snapshot (read straight from the application's storage) are each unreliable
// alone: rendering can diverge from committed state, and a write can succeed
// while the view fails to show it. A check passes only when the sides agree
// with each other and with the caller's expectation.
//
// # Settling
//
// Interfaces re-render asynchronously, so every check polls until it passes
// or the settle window closes, then reports the last mismatch it saw. A state
// that never materializes is reported exactly like a logic defect.
//
// # Diagnostics
//
// Failures are *MismatchError values naming the two sides that disagreed
// (ui, persistence or expected) and carrying the snapshot read at the time.
// Verify joins every mismatch of one expectation with errors.Join.
package oracle
