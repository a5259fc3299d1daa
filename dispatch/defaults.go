package dispatch

import (
	"time"

	"github.com/trinitylabs/authcore/autherr"
)

// Built-in handler priorities. Authentication outranks session outranks
// network; the fallback only fires when nothing else matches.
const (
	priorityAuth     = 100
	prioritySession  = 95
	priorityNetwork  = 90
	priorityFallback = 1
)

func defaultHandlers() []Handler {
	return []Handler{
		{
			ID:       "builtin.authentication",
			Service:  "authentication",
			Priority: priorityAuth,
			Handle:   handleAuthError,
		},
		{
			ID:      "builtin.session",
			Service: "*",
			ErrorTypes: []string{
				autherr.CodeSessionExpired,
				autherr.CodeSessionInvalid,
				autherr.CodeIdleTimeout,
			},
			Priority: prioritySession,
			Handle:   handleSessionError,
		},
		{
			ID:      "builtin.network",
			Service: "*",
			ErrorTypes: []string{
				autherr.CodeNetworkUnavailable,
				autherr.CodeNetworkTimeout,
				autherr.CodeServiceUnavailable,
			},
			Priority: priorityNetwork,
			Handle:   handleNetworkError,
		},
		{
			ID:         "builtin.fallback",
			Service:    "*",
			ErrorTypes: []string{"*"},
			Priority:   priorityFallback,
			Handle: func(err error, code string, c Context) Result {
				res := fallbackResult(err)
				res.Handled = true
				return res
			},
		},
	}
}

// handleAuthError resolves authentication failures. Codes in the re-auth set
// mean the stored credentials are no longer trustworthy: the user is logged
// out, auth caches are cleared, and the user is told to sign in again.
func handleAuthError(err error, code string, c Context) Result {
	if autherr.IsReauthCode(code) {
		return Result{
			Handled:        true,
			RequiresReauth: true,
			Message:        "Your session is no longer valid. Please sign in again.",
			PropagateTo:    []string{"session", "storage"},
			Actions: []Action{
				{Kind: ActionLogout, Priority: 10, Metadata: map[string]string{"reason": code}},
				{Kind: ActionClearCache, Priority: 20},
				{Kind: ActionNotifyUser, Priority: 30},
			},
		}
	}
	return Result{
		Handled: true,
		Retry:   autherr.Retryable(err),
		Message: "Authentication failed. Please try again.",
	}
}

func handleSessionError(err error, code string, c Context) Result {
	return Result{
		Handled:        true,
		RequiresReauth: true,
		Message:        "Your session has ended. Please sign in again.",
		PropagateTo:    []string{"authentication", "storage"},
		Actions: []Action{
			{Kind: ActionClearCache, Priority: 10},
			{Kind: ActionNotifyUser, Priority: 20},
		},
	}
}

func handleNetworkError(err error, code string, c Context) Result {
	return Result{
		Handled:    true,
		Retry:      true,
		RetryDelay: 2 * time.Second,
		Message:    "Connection problem. Retrying shortly.",
	}
}
