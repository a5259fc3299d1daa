// Package sched provides the deferred-work scheduler used by the session
// manager, security monitor, and error dispatcher.
//
// # Design
//
// Work is registered under a string key. Scheduling under a key that already
// has pending work cancels and replaces it, so a timer can never fire against
// state that was superseded by an extension, renewal, or removal. Two
// implementations exist: [Timers] (real time.AfterFunc timers) and [Manual]
// (virtual time for deterministic tests).
//
// # What this package must NOT do
//
//   - Import any sibling package (leaf dependency).
//   - Interpret keys; key layout belongs to the callers.
//   - Run callbacks while holding internal locks.
package sched
