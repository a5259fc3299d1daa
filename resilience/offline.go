package resilience

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// IsOfflineAuthValid reports whether stored tokens may be trusted while
// offline. Both conditions are required: the access token's expiry claim must
// be in the future AND the last successful sync must be within
// OfflineTokenValidity. Signature verification is the platform crypto
// layer's responsibility; only the expiry claim is read here.
func (c *Coordinator) IsOfflineAuthValid(ctx context.Context) bool {
	tokens, err := c.store.RetrieveTokens(ctx)
	if err != nil || tokens.AccessToken == "" {
		return false
	}

	now := c.clock.Now()

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokens.AccessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.Time.After(now) {
		return false
	}

	lastSync := c.LastSync()
	if lastSync.IsZero() {
		lastSync = tokens.LastSync
	}
	if lastSync.IsZero() {
		return false
	}
	return now.Sub(lastSync) <= c.cfg.OfflineTokenValidity
}
