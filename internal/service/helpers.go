package service

import (
	"time"
)

// defaultTokenLifetime is assumed when a token endpoint omits expires_in.
const defaultTokenLifetime = 2 * time.Hour

// refreshLeeway is how close to expiry a stored token is refreshed before use.
const refreshLeeway = time.Minute

func GetExpiresAt(now time.Time, expiry time.Time) time.Time {
	if expiry.IsZero() {
		return now.Add(defaultTokenLifetime)
	}
	return expiry
}
