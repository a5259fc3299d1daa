// Package ledger provides the in-memory rate and threat bookkeeping shared by
// the security monitor: sliding attempt windows keyed by (identifier, action),
// account lock records with lazy expiry, and the malicious-IP set.
//
// # Window semantics
//
// Windows are true timestamp sets, not fixed counters: entries older than the
// window are pruned before every read, so a count always reflects the sliding
// interval ending now. The window [Store] is pluggable — [MemoryStore] is the
// default; [RedisStore] keeps windows in a Redis sorted set so replicas of a
// server-side deployment can share them.
//
// # What this package must NOT do
//
//   - Decide policy (thresholds, severities, lockout triggers) — that is the
//     security monitor's job.
//   - Be imported outside the authcore module.
package ledger
