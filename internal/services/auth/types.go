package auth

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

// AccessClaims is the decoded actor identity. Privileged actors may
// perform moderation writes.
type AccessClaims struct {
	UserID     int64
	Privileged bool
	ExpiresAt  time.Time
}
