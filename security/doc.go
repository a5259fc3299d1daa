// Package security classifies authentication anomalies and drives the
// defensive response: failed-attempt lockout, suspicious-login detection
// against per-user behavior baselines, generic rate limiting, and the
// security event log.
//
// # Detection model
//
// Failed attempts accumulate in a rolling one-hour window; reaching the
// threshold collapses into a single multiple_failed_attempts event and, with
// automatic response enabled, locks the account. Suspicious logins are scored
// by independent factors (unfamiliar location, unfamiliar device, unusual
// hour, threat-listed IP, bot user agent) against a sensitivity-dependent
// threshold. A user's first observed login seeds the profile and is never
// suspicious.
//
// # Architecture boundaries
//
// The monitor owns the event log and behavior profiles; raw counters and the
// threat set live in internal/ledger. Responses beyond locking (logout,
// cache clear, notification) belong to the error dispatcher.
package security
