package authcore

import "github.com/trinitylabs/authcore/autherr"

// Error defines a public type used by authcore APIs.
//
// Error instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Error = autherr.Error

// ErrorClass defines a public type used by authcore APIs.
//
// ErrorClass instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ErrorClass = autherr.Class

const (
	// ClassUnknown is an exported constant or variable used by the resilience core.
	ClassUnknown = autherr.ClassUnknown
	// ClassAuthentication is an exported constant or variable used by the resilience core.
	ClassAuthentication = autherr.ClassAuthentication
	// ClassSession is an exported constant or variable used by the resilience core.
	ClassSession = autherr.ClassSession
	// ClassNetwork is an exported constant or variable used by the resilience core.
	ClassNetwork = autherr.ClassNetwork
	// ClassSecurity is an exported constant or variable used by the resilience core.
	ClassSecurity = autherr.ClassSecurity
)

var (
	// ErrOffline is an exported constant or variable used by the resilience core.
	ErrOffline = autherr.ErrOffline
	// ErrSyncInProgress is an exported constant or variable used by the resilience core.
	ErrSyncInProgress = autherr.ErrSyncInProgress
	// ErrConnectionTimeout is an exported constant or variable used by the resilience core.
	ErrConnectionTimeout = autherr.ErrConnectionTimeout
	// ErrSessionNotFound is an exported constant or variable used by the resilience core.
	ErrSessionNotFound = autherr.ErrSessionNotFound
	// ErrSessionExpired is an exported constant or variable used by the resilience core.
	ErrSessionExpired = autherr.ErrSessionExpired
	// ErrAccountLocked is an exported constant or variable used by the resilience core.
	ErrAccountLocked = autherr.ErrAccountLocked
	// ErrRateLimited is an exported constant or variable used by the resilience core.
	ErrRateLimited = autherr.ErrRateLimited
)

// Classify describes the classify operation and its observable behavior.
//
// Classify may return an error when input validation, dependency calls, or security checks fail.
// Classify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Classify(err error) *Error {
	return autherr.Classify(err)
}

// Retryable describes the retryable operation and its observable behavior.
//
// Retryable may return an error when input validation, dependency calls, or security checks fail.
// Retryable does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Retryable(err error) bool {
	return autherr.Retryable(err)
}
