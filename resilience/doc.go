// Package resilience keeps authentication operations correct across network
// interruptions: connectivity tracking, retryable execution with exponential
// backoff, reconnect synchronization, and bounded offline token validity.
//
// # Retry semantics
//
// Every attempt is gated on connectivity first — an offline attempt fails
// immediately with a connectivity error and never touches the network. The
// delay between attempts is min(baseDelay·backoffFactor^(attempt−1),
// maxDelay). Non-retryable failures (credential-class) short-circuit the
// remaining attempts; the final attempt's failure is returned to the caller
// untouched.
//
// # What this package must NOT do
//
//   - Mutate session state; expiry policy belongs to the session manager.
//   - Verify token signatures — only the stored expiry claim is read, the
//     platform crypto layer owns verification.
package resilience
