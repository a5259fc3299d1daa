// Package authcore provides a client-side authentication resilience core:
// device-local session lifecycle with deferred warning/expiry callbacks,
// network-aware retry with exponential backoff, behavior-based security
// monitoring, and a coordinated error dispatcher that turns classified
// failures into recovery actions.
//
// The package is designed for embedding: Core methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Core], [Builder], [Config], and
// value types (Status, MetricsSnapshot, AuditEvent, etc.). Domain logic lives
// in the session, security, resilience, and dispatch subpackages; timer
// scheduling, rate/lock/threat bookkeeping, and audit dispatch live under
// internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Perform identity-provider calls itself: token issue/refresh/revoke
//     belong to the injected IdentityProvider.
//   - Verify token signatures: stored tokens are only inspected for their
//     expiry claim; cryptographic verification is the platform's job.
//   - Render UI: notify_user and redirect recovery actions call the injected
//     Notifier/Redirector, never a display layer directly.
//
// # Single source of truth
//
// The session manager owns the logical "authenticated" flag. Error
// propagation through the dispatcher is the only error-driven path that
// clears it; explicit sign-out and session expiry are the others.
package authcore
