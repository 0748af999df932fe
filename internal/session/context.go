package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the login state seen by the client.
type State int

// Session states.
const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Context is the single holder of the client credential. IsAuthorized is its
// read operation and Invalidate its purge; Begin starts a new session.
type Context struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// NewContext creates a session context over store.
func NewContext(store Store) *Context {
	return &Context{
		store: store,
		now:   time.Now,
	}
}

// Begin stores a fresh credential after a successful login.
func (c *Context) Begin(token string, admin bool) (Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred := NewCredential(token, admin, c.now())

	adminFlag := "false"
	if admin {
		adminFlag = "true"
	}

	err := c.store.Set(map[string]string{
		KeyToken:     token,
		KeyAdmin:     adminFlag,
		KeyExpiresAt: encodeExpiry(cred.ExpiresAt),
	})
	if err != nil {
		return Credential{}, fmt.Errorf("store credential: %w", err)
	}
	return cred, nil
}

// IsAuthorized checks the stored credential. A stale or incomplete
// credential is purged before returning false.
func (c *Context) IsAuthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.authorized()
	return ok
}

// Token returns the stored token if the credential is still valid.
func (c *Context) Token() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred, ok := c.authorized()
	if !ok {
		return "", false
	}
	return cred.Token, true
}

// State reports LoggedIn while the credential is valid.
func (c *Context) State() State {
	if c.IsAuthorized() {
		return LoggedIn
	}
	return LoggedOut
}

// Invalidate discards the stored credential.
func (c *Context) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.purge()
}

func (c *Context) authorized() (Credential, bool) {
	cred, err := c.load()
	if err == nil && IsAuthorized(cred, c.now()) {
		return cred, true
	}
	if err != nil {
		slog.Warn("session credential unreadable", "error", err)
	}
	if perr := c.purge(); perr != nil {
		slog.Warn("failed to purge session credential", "error", perr)
	}
	return Credential{}, false
}

func (c *Context) load() (Credential, error) {
	var cred Credential

	token, _, err := c.store.Get(KeyToken)
	if err != nil {
		return cred, err
	}
	admin, _, err := c.store.Get(KeyAdmin)
	if err != nil {
		return cred, err
	}
	expires, _, err := c.store.Get(KeyExpiresAt)
	if err != nil {
		return cred, err
	}

	cred.Token = token
	cred.Admin = admin == "true"
	cred.ExpiresAt, _ = decodeExpiry(expires)
	return cred, nil
}

func (c *Context) purge() error {
	if err := c.store.Delete(KeyToken, KeyAdmin, KeyExpiresAt); err != nil {
		return fmt.Errorf("purge credential: %w", err)
	}
	return nil
}
