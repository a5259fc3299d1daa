// Package audit provides asynchronous audit event dispatch for the core.
//
// # Design
//
// Events flow through a bounded channel drained by a single goroutine, so
// emitting never blocks a lifecycle or error-handling path when DropIfFull is
// set. Under backpressure, high and critical severity events evict the oldest
// queued event rather than being dropped themselves; every loss is counted
// and surfaced through Dropped. Close drains the buffer before returning.
//
// # What this package must NOT do
//
//   - Interpret events or enforce policy.
//   - Import authcore or any sibling package.
package audit
