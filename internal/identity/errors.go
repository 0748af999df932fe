package identity

import (
	"fmt"

	"github.com/bissquit/powerbill/internal/domain"
)

// Identity errors.
var (
	ErrUserNotFound       = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
)
