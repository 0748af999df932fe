package identity

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users          map[string]*domain.User
	revoked        map[string]time.Time
	createUserErr  error
	getUserByEmail func(email string) (*domain.User, error)
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:   make(map[string]*domain.User),
		revoked: make(map[string]time.Time),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	user.ID = "user-" + strconv.Itoa(len(m.users)+1)
	m.users[user.Email] = user
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.getUserByEmail != nil {
		return m.getUserByEmail(email)
	}
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	m.users[user.Email] = user
	return nil
}

func (m *mockRepository) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *mockRepository) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func (m *mockRepository) DeleteExpiredRevocations(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, exp := range m.revoked {
		if exp.Before(before) {
			delete(m.revoked, id)
			n++
		}
	}
	return n, nil
}

// mockAuthenticator issues tokens of the form "token-<n>" and parses them back.
type mockAuthenticator struct {
	issued map[string]*Claims
}

func newMockAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{issued: make(map[string]*Claims)}
}

func (m *mockAuthenticator) IssueToken(_ context.Context, user *domain.User) (*Token, error) {
	n := strconv.Itoa(len(m.issued) + 1)
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenID:   "jti-" + n,
		ExpiresAt: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	}
	value := "token-" + n
	m.issued[value] = claims
	return &Token{Value: value, ID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

func (m *mockAuthenticator) ParseToken(_ context.Context, token string) (*Claims, error) {
	if c, ok := m.issued[token]; ok {
		return c, nil
	}
	return nil, ErrInvalidToken
}

func seedAdmin(t *testing.T, repo *mockRepository) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: string(hash),
		Role:     domain.RoleAdmin,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	admin := seedAdmin(t, repo)
	service := NewService(repo, newMockAuthenticator())

	// Act
	user, token, err := service.Login(context.Background(), LoginInput{
		Email:    " Admin@Example.com ",
		Password: "secret123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.Equal(t, "token-1", token.Value)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@example.com", "nope"},
		{"unknown email", "ghost@example.com", "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo := newMockRepository()
			seedAdmin(t, repo)
			service := NewService(repo, newMockAuthenticator())

			// Act
			user, token, err := service.Login(context.Background(), LoginInput{Email: tt.email, Password: tt.password})

			// Assert
			assert.Nil(t, user)
			assert.Nil(t, token)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	repo.getUserByEmail = func(string) (*domain.User, error) { return nil, errors.New("database error") }
	service := NewService(repo, newMockAuthenticator())

	// Act
	_, _, err := service.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "x"})

	// Assert
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "database error")
}

func TestLogoutRevokesToken(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	seedAdmin(t, repo)
	service := NewService(repo, newMockAuthenticator())
	_, token, err := service.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	userID, role, err := service.ValidateToken(context.Background(), token.Value)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
	assert.Equal(t, domain.RoleAdmin, role)

	// Act
	require.NoError(t, service.Logout(context.Background(), token.Value))

	// Assert
	_, _, err = service.ValidateToken(context.Background(), token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, repo.revoked, token.ID)
}

func TestValidateToken_Unknown(t *testing.T) {
	service := NewService(newMockRepository(), newMockAuthenticator())

	_, _, err := service.ValidateToken(context.Background(), "garbage")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureAdmin_CreatesMissingAdmin(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	service := NewService(repo, newMockAuthenticator())

	// Act
	user, err := service.EnsureAdmin(context.Background(), AdminInput{
		Name:     "Admin",
		Email:    "ADMIN@example.com",
		Password: "bootstrap",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("bootstrap")))
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	existing := seedAdmin(t, repo)
	service := NewService(repo, newMockAuthenticator())

	// Act
	user, err := service.EnsureAdmin(context.Background(), AdminInput{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: "different",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Len(t, repo.users, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")),
		"existing password must not be overwritten")
}

func TestEnsureAdmin_PromotesUser(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	repo.users["op@example.com"] = &domain.User{ID: "u1", Email: "op@example.com", Role: domain.RoleUser}
	service := NewService(repo, newMockAuthenticator())

	// Act
	user, err := service.EnsureAdmin(context.Background(), AdminInput{Email: "op@example.com", Password: "x"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, domain.RoleAdmin, repo.users["op@example.com"].Role)
}

func TestEnsureAdmin_CreateUserFails(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("database error")
	service := NewService(repo, newMockAuthenticator())

	user, err := service.EnsureAdmin(context.Background(), AdminInput{Email: "a@b.c", Password: "x"})

	assert.Nil(t, user)
	assert.ErrorContains(t, err, "database error")
}

func TestPurgeRevoked(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	repo.revoked["old"] = now.Add(-time.Hour)
	repo.revoked["live"] = now.Add(time.Hour)
	service := NewService(repo, newMockAuthenticator())
	service.now = func() time.Time { return now }

	// Act
	n, err := service.PurgeRevoked(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, repo.revoked, "old")
	assert.Contains(t, repo.revoked, "live")
}
