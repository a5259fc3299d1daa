package internaldefs

import (
	authcore "github.com/trinitylabs/authcore"
)

// CounterDef defines a public type used by authcore APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authcore APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the resilience core.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Created sessions."},
	{ID: authcore.MetricSessionExtended, Name: "authcore_session_extended_total", Help: "Successful session extensions."},
	{ID: authcore.MetricSessionRenewed, Name: "authcore_session_renewed_total", Help: "Full session renewals, including creation."},
	{ID: authcore.MetricSessionExpired, Name: "authcore_session_expired_total", Help: "Expired sessions, any reason."},
	{ID: authcore.MetricSessionIdleExpired, Name: "authcore_session_idle_expired_total", Help: "Sessions expired by the idle sweep."},
	{ID: authcore.MetricForcedLogout, Name: "authcore_forced_logout_total", Help: "Forced logout signals."},
	{ID: authcore.MetricWarningShown, Name: "authcore_session_warning_total", Help: "Expiry warnings surfaced."},
	{ID: authcore.MetricRetryAttempt, Name: "authcore_retry_attempt_total", Help: "Retryable operation attempts."},
	{ID: authcore.MetricRetryExhausted, Name: "authcore_retry_exhausted_total", Help: "Retryable operations that failed terminally."},
	{ID: authcore.MetricOfflineGated, Name: "authcore_offline_gated_total", Help: "Attempts failed by the connectivity gate."},
	{ID: authcore.MetricSyncSuccess, Name: "authcore_sync_success_total", Help: "Successful auth state sync passes."},
	{ID: authcore.MetricSyncFailure, Name: "authcore_sync_failure_total", Help: "Failed auth state sync passes."},
	{ID: authcore.MetricFailedLogin, Name: "authcore_failed_login_total", Help: "Recorded failed login attempts below the lockout threshold."},
	{ID: authcore.MetricLockout, Name: "authcore_lockout_total", Help: "Lockout threshold hits and account locks."},
	{ID: authcore.MetricSuspiciousLogin, Name: "authcore_suspicious_login_total", Help: "Logins flagged suspicious."},
	{ID: authcore.MetricRateLimitHit, Name: "authcore_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: authcore.MetricBruteForceDetected, Name: "authcore_brute_force_detected_total", Help: "Coordinated-attack detections."},
	{ID: authcore.MetricErrorHandled, Name: "authcore_error_handled_total", Help: "Errors resolved by a registered handler."},
	{ID: authcore.MetricErrorUnhandled, Name: "authcore_error_unhandled_total", Help: "Errors that fell through to the generic fallback."},
}

// HistogramDefs is an exported constant or variable used by the resilience core.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricHandleErrorLatency, Name: "authcore_handle_error_latency_seconds", Help: "HandleError latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the resilience core.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the resilience core.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
