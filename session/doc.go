// Package session owns the device-local session lifecycle: the
// Active → Warning → Expired state machine, activity scoring, automatic
// extension, idle detection, and the lifecycle event fan-out other services
// subscribe to.
//
// # State machine
//
// A session is created Active with an absolute expiry. A warning timer fires
// WarningWindow before expiry, an expiry timer at expiry (plus an optional
// grace period). Extension and renewal reschedule both timers; a timer can
// never fire against superseded state because scheduling is key-replacing.
// Once a session leaves Active it never returns — renewal only applies to a
// live session, and an expired session is retained for post-mortem reads
// until the retention window lapses.
//
// # Architecture boundaries
//
// This package owns the session table and is its only mutator. Token refresh
// is delegated through the injected [Refresher]; cache invalidation and audit
// are driven by subscribers, never performed here.
//
// # What this package must NOT do
//
//   - Talk to the identity provider directly.
//   - Import the security, resilience, or dispatch packages.
//   - Let a listener failure break the remaining notifications.
package session
