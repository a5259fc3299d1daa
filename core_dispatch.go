package authcore

import (
	"context"
	"time"

	"github.com/trinitylabs/authcore/dispatch"
)

// HandleError describes the handleerror operation and its observable behavior.
//
// HandleError may return an error when input validation, dependency calls, or security checks fail.
// HandleError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) HandleError(ctx context.Context, err error, ec ErrorContext) ErrorHandlingResult {
	if c.metrics != nil && c.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { c.metrics.Observe(MetricHandleErrorLatency, time.Since(start)) }()
	}
	return c.dispatcher.HandleError(ctx, err, ec)
}

// RegisterErrorHandler describes the registererrorhandler operation and its observable behavior.
//
// RegisterErrorHandler may return an error when input validation, dependency calls, or security checks fail.
// RegisterErrorHandler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RegisterErrorHandler(h ErrorHandler) {
	c.dispatcher.Register(h)
}

// RemoveErrorHandler describes the removeerrorhandler operation and its observable behavior.
//
// RemoveErrorHandler may return an error when input validation, dependency calls, or security checks fail.
// RemoveErrorHandler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) RemoveErrorHandler(id string) bool {
	return c.dispatcher.Remove(id)
}

// GetActiveErrors describes the getactiveerrors operation and its observable behavior.
//
// GetActiveErrors may return an error when input validation, dependency calls, or security checks fail.
// GetActiveErrors does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) GetActiveErrors() []ActiveError {
	return c.dispatcher.ActiveErrors()
}

// DispatchConfig describes the dispatchconfig operation and its observable behavior.
//
// DispatchConfig may return an error when input validation, dependency calls, or security checks fail.
// DispatchConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) DispatchConfig() dispatch.Config {
	return c.dispatcher.Config()
}

// SetDispatchConfig describes the setdispatchconfig operation and its observable behavior.
//
// SetDispatchConfig may return an error when input validation, dependency calls, or security checks fail.
// SetDispatchConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Core) SetDispatchConfig(cfg dispatch.Config) {
	c.dispatcher.SetConfig(cfg)
}
