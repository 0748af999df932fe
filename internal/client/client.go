// Package client is a typed HTTP client for the billing API. It owns the
// session context: protected calls are refused locally when the credential is
// stale, and any 401 from the server ends the session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/powerbill/internal/billing"
	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/session"
)

const defaultTimeout = 10 * time.Second

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the billing API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Context
}

// New creates a client. BaseURL is the server root; API paths are added
// under /api.
func New(config Config, sess *session.Context) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		session:    sess,
	}
}

// Session returns the session context held by the client.
func (c *Client) Session() *session.Context {
	return c.session
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login authenticates and starts a session. The admin flag is taken from the
// server's view of the user.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &result); err != nil {
		return nil, err
	}

	var me domain.User
	if err := c.do(ctx, http.MethodGet, "/me", result.Token, nil, &me); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	if _, err := c.session.Begin(result.Token, me.Role == domain.RoleAdmin); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the token on the server and always clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	token, ok := c.session.Token()
	var callErr error
	if ok {
		callErr = c.do(ctx, http.MethodPost, "/logout", token, nil, nil)
		if callErr != nil && IsUnauthorized(callErr) {
			callErr = nil
		}
	}
	if err := c.session.Invalidate(); err != nil {
		return err
	}
	return callErr
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil)
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.protected(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListBills returns bills newest first, filtered by status (all, paid, unpaid).
func (c *Client) ListBills(ctx context.Context, status billing.PaidStatus) ([]domain.Bill, error) {
	path := "/bills"
	if status != "" && status != billing.StatusAll {
		path += "?" + url.Values{"status": {string(status)}}.Encode()
	}
	var bills []domain.Bill
	if err := c.protected(ctx, http.MethodGet, path, nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// GetBill returns one bill.
func (c *Client) GetBill(ctx context.Context, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	if err := c.protected(ctx, http.MethodGet, billPath(id), nil, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// CreateBill bills a customer for usage units.
func (c *Client) CreateBill(ctx context.Context, customerID, usageUnits int64) (*domain.Bill, error) {
	body := map[string]int64{"customerId": customerID, "usageUnits": usageUnits}
	var bill domain.Bill
	if err := c.protected(ctx, http.MethodPost, "/bills", body, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// BillUpdate is a partial bill update. Nil fields are not sent.
type BillUpdate struct {
	UsageUnits *int64 `json:"usageUnits,omitempty"`
	TariffRate *int64 `json:"tariffRate,omitempty"`
	Total      *int64 `json:"total,omitempty"`
	Paid       *bool  `json:"paid,omitempty"`
}

// UpdateBill applies a raw update.
func (c *Client) UpdateBill(ctx context.Context, id int64, update BillUpdate) (*domain.Bill, error) {
	var bill domain.Bill
	if err := c.protected(ctx, http.MethodPatch, billPath(id), update, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// TogglePaid flips the settlement state of a bill.
func (c *Client) TogglePaid(ctx context.Context, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	if err := c.protected(ctx, http.MethodPatch, billPath(id)+"/toggle-paid", nil, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// DeleteBill removes a bill.
func (c *Client) DeleteBill(ctx context.Context, id int64) error {
	return c.protected(ctx, http.MethodDelete, billPath(id), nil, nil)
}

// Receipt returns the rendered receipt text.
func (c *Client) Receipt(ctx context.Context, id int64) (string, error) {
	var text string
	if err := c.protected(ctx, http.MethodGet, billPath(id)+"/receipt", nil, &text); err != nil {
		return "", err
	}
	return text, nil
}

// Summary returns ledger totals.
func (c *Client) Summary(ctx context.Context) (*billing.Summary, error) {
	var summary billing.Summary
	if err := c.protected(ctx, http.MethodGet, "/bills/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListCustomers returns all customers.
func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var list []domain.Customer
	if err := c.protected(ctx, http.MethodGet, "/customers", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// protected sends an authenticated request. A stale local credential stops
// the call before it is sent; a 401 from the server ends the session.
func (c *Client) protected(ctx context.Context, method, path string, body, out interface{}) error {
	token, ok := c.session.Token()
	if !ok {
		return ErrNoSession
	}

	err := c.do(ctx, method, path, token, body, out)
	if err != nil && IsUnauthorized(err) {
		if ierr := c.session.Invalidate(); ierr != nil {
			slog.Warn("failed to clear session after 401", "error", ierr)
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, out)
}

func handleResponse(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(data)
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

func decodeError(status int, data []byte) error {
	var envelope struct {
		Error struct {
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Message == "" {
		return apiErr
	}

	apiErr.Message = envelope.Error.Message
	var fields []FieldViolation
	if len(envelope.Error.Details) > 0 && json.Unmarshal(envelope.Error.Details, &fields) == nil {
		apiErr.Fields = fields
	}
	return apiErr
}

func billPath(id int64) string {
	return "/bills/" + strconv.FormatInt(id, 10)
}
