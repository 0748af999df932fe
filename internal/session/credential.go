// Package session keeps the client-held login credential and decides whether
// it is still presentable. The check is advisory: the server verifies every
// request on its own.
package session

import (
	"strconv"
	"time"
)

// TTL is how long a stored credential is considered fresh by the client.
const TTL = time.Hour

// Storage keys of the three credential entries.
const (
	KeyToken     = "auth_token"
	KeyAdmin     = "admin_login"
	KeyExpiresAt = "auth_expires_at"
)

// Credential is what the client keeps after a successful login.
type Credential struct {
	Token     string
	Admin     bool
	ExpiresAt time.Time
}

// NewCredential creates a credential issued at issuedAt that expires after TTL.
func NewCredential(token string, admin bool, issuedAt time.Time) Credential {
	return Credential{
		Token:     token,
		Admin:     admin,
		ExpiresAt: issuedAt.Add(TTL),
	}
}

// IsAuthorized reports whether cred may be presented at now. It fails when
// the token is empty, the admin flag is not set or now is past ExpiresAt.
func IsAuthorized(cred Credential, now time.Time) bool {
	if cred.Token == "" || !cred.Admin || cred.ExpiresAt.IsZero() {
		return false
	}
	return !now.After(cred.ExpiresAt)
}

func encodeExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func decodeExpiry(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
