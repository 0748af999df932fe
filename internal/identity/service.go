// Package identity authenticates operators and issues bearer tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/pkg/ctxlog"
	"golang.org/x/crypto/bcrypt"
)

// Repository defines the interface for user and token storage.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpiredRevocations(ctx context.Context, before time.Time) (int64, error)
}

// Token is a signed bearer token.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Claims are the verified contents of a bearer token.
type Claims struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator issues and verifies bearer tokens.
type Authenticator interface {
	IssueToken(ctx context.Context, user *domain.User) (*Token, error)
	ParseToken(ctx context.Context, token string) (*Claims, error)
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AdminInput describes the bootstrap administrator.
type AdminInput struct {
	Name     string
	Email    string
	Password string
}

// Service implements identity business logic.
type Service struct {
	repo Repository
	auth Authenticator
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{
		repo: repo,
		auth: auth,
		now:  time.Now,
	}
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *Token, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		ctxlog.FromContext(ctx).Warn("login failed", "email", user.Email)
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user logged in", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Logout revokes token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.auth.ParseToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.repo.RevokeToken(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user logged out", "user_id", claims.UserID)
	return nil
}

// ValidateToken verifies token and rejects revoked ones.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	claims, err := s.auth.ParseToken(ctx, token)
	if err != nil {
		return "", "", err
	}

	revoked, err := s.repo.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return "", "", fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return "", "", ErrInvalidToken
	}

	return claims.UserID, claims.Role, nil
}

// GetUserByID returns a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// EnsureAdmin creates the bootstrap administrator if missing and promotes an
// existing account with the same email. An existing password is left alone.
func (s *Service) EnsureAdmin(ctx context.Context, input AdminInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == domain.RoleAdmin {
			return user, nil
		}
		user.Role = domain.RoleAdmin
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		ctxlog.FromContext(ctx).Info("user promoted to admin", "user_id", user.ID)
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("get admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = &domain.User{
		Name:     input.Name,
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleAdmin,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	ctxlog.FromContext(ctx).Info("admin user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// PurgeRevoked drops revocations whose tokens have expired.
func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredRevocations(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", err)
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
