package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthorized(t *testing.T) {
	issued := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	valid := NewCredential("tok", true, issued)

	tests := []struct {
		name string
		cred Credential
		now  time.Time
		want bool
	}{
		{"fresh", valid, issued.Add(30 * time.Minute), true},
		{"exactly at expiry", valid, issued.Add(time.Hour), true},
		{"expired", valid, issued.Add(61 * time.Minute), false},
		{"missing token", Credential{Admin: true, ExpiresAt: valid.ExpiresAt}, issued, false},
		{"not admin", Credential{Token: "tok", ExpiresAt: valid.ExpiresAt}, issued, false},
		{"missing expiry", Credential{Token: "tok", Admin: true}, issued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.cred, tt.now))
		})
	}
}

func TestNewCredential_TTL(t *testing.T) {
	issued := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

	cred := NewCredential("tok", true, issued)

	assert.Equal(t, issued.Add(time.Hour), cred.ExpiresAt)
}

func TestExpiryEncoding(t *testing.T) {
	at := time.Date(2026, 10, 16, 10, 0, 0, int(123*time.Millisecond), time.UTC)

	got, ok := decodeExpiry(encodeExpiry(at))

	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	_, ok = decodeExpiry("soon")
	assert.False(t, ok)
	_, ok = decodeExpiry("")
	assert.False(t, ok)
}
