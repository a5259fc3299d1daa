package authcore

import (
	"context"
	"time"
)

// ExecuteWithRetry describes the executewithretry operation and its observable behavior.
//
// ExecuteWithRetry may return an error when input validation, dependency calls, or security checks fail.
// ExecuteWithRetry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) ExecuteWithRetry(ctx context.Context, name string, op func(ctx context.Context) error, override *RetryConfig) error {
	return c.network.ExecuteWithRetry(ctx, name, op, override)
}

// IsConnected describes the isconnected operation and its observable behavior.
//
// IsConnected may return an error when input validation, dependency calls, or security checks fail.
// IsConnected does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) IsConnected() bool {
	return c.network.IsConnected()
}

// ConnectionType describes the connectiontype operation and its observable behavior.
//
// ConnectionType may return an error when input validation, dependency calls, or security checks fail.
// ConnectionType does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) ConnectionType() string {
	return c.network.ConnectionType()
}

// WaitForConnection describes the waitforconnection operation and its observable behavior.
//
// WaitForConnection may return an error when input validation, dependency calls, or security checks fail.
// WaitForConnection does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) WaitForConnection(ctx context.Context, timeout time.Duration) error {
	return c.network.WaitForConnection(ctx, timeout)
}

// SyncAuthState describes the syncauthstate operation and its observable behavior.
//
// SyncAuthState may return an error when input validation, dependency calls, or security checks fail.
// SyncAuthState does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) SyncAuthState(ctx context.Context) error {
	return c.network.SyncAuthState(ctx)
}

// IsOfflineAuthValid describes the isofflineauthvalid operation and its observable behavior.
//
// IsOfflineAuthValid may return an error when input validation, dependency calls, or security checks fail.
// IsOfflineAuthValid does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) IsOfflineAuthValid(ctx context.Context) bool {
	return c.network.IsOfflineAuthValid(ctx)
}

// LastSync describes the lastsync operation and its observable behavior.
//
// LastSync may return an error when input validation, dependency calls, or security checks fail.
// LastSync does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) LastSync() time.Time {
	return c.network.LastSync()
}
