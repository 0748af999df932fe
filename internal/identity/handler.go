package identity

import (
	"net/http"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
	limiter   *httputil.RateLimiter
}

// NewHandler creates a new identity handler. A nil limiter disables login
// throttling.
func NewHandler(service *Service, limiter *httputil.RateLimiter) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
		limiter:   limiter,
	}
}

// RegisterRoutes registers public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.limiter != nil {
		r.With(h.limiter.Middleware).Post("/login", h.Login)
		return
	}
	r.Post("/login", h.Login)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the public part of a user returned on login.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse represents login response.
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		Token: token.Value,
		User:  summarize(user),
	})
}

// Logout handles POST /logout. The presented token is revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), httputil.GetToken(r.Context())); err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

func summarize(user *domain.User) UserSummary {
	return UserSummary{ID: user.ID, Name: user.Name, Email: user.Email}
}
