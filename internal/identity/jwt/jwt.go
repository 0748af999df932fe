// Package jwt provides a JWT-based identity.Authenticator.
package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/identity"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config contains JWT settings.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

type claims struct {
	Role domain.Role `json:"role"`
	jwtlib.RegisteredClaims
}

// Authenticator signs HS256 tokens.
type Authenticator struct {
	config Config
	now    func() time.Time
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(config Config) *Authenticator {
	if config.TokenDuration <= 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &Authenticator{config: config, now: time.Now}
}

// IssueToken creates a signed token for user with a fresh token ID.
func (a *Authenticator) IssueToken(_ context.Context, user *domain.User) (*identity.Token, error) {
	now := a.now()
	id := uuid.NewString()
	expiresAt := now.Add(a.config.TokenDuration)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        id,
			Subject:   user.ID,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString([]byte(a.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &identity.Token{Value: signed, ID: id, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// ParseToken verifies signature, issuer and expiry.
func (a *Authenticator) ParseToken(_ context.Context, token string) (*identity.Claims, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(a.now),
		jwtlib.WithExpirationRequired(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}

	var c claims
	_, err := jwtlib.ParseWithClaims(token, &c, func(*jwtlib.Token) (interface{}, error) {
		return []byte(a.config.SecretKey), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	if c.Subject == "" || c.ID == "" {
		return nil, identity.ErrInvalidToken
	}

	return &identity.Claims{
		UserID:    c.Subject,
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
