package customers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bissquit/powerbill/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the customer directory.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new customers handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers customer routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Get("/{id}", h.GetCustomer)
		r.Put("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
	})
}

// CustomerRequest represents the request body for creating or updating a customer.
type CustomerRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	MeterNumber string `json:"meterNumber" validate:"required,notblank,max=50"`
	Address     string `json:"address" validate:"required,notblank"`
	VoltageTier string `json:"voltageTier" validate:"max=10"`
	Phone       string `json:"phone" validate:"required,notblank,max=30"`
}

// ToInput converts the request to service input.
func (r *CustomerRequest) ToInput() Input {
	return Input{
		Name:        r.Name,
		MeterNumber: r.MeterNumber,
		Address:     r.Address,
		VoltageTier: r.VoltageTier,
		Phone:       r.Phone,
	}
}

// ListCustomers handles GET /customers request.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, list)
}

// CreateCustomer handles POST /customers request.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	customer, err := h.service.Create(r.Context(), req.ToInput())
	if err != nil {
		h.handleServiceError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, customer)
}

// GetCustomer handles GET /customers/{id} request.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customer)
}

// UpdateCustomer handles PUT /customers/{id} request.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	customer, err := h.service.Update(r.Context(), id, req.ToInput())
	if err != nil {
		h.handleServiceError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/{id} request.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(r.Context(), w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "deleted")
}

func (h *Handler) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, ErrMeterNumberExists) {
		httputil.FieldError(w, "meterNumber", "unique")
		return
	}
	httputil.HandleDomainError(ctx, w, err)
}

func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusNotFound, ErrCustomerNotFound.Error())
		return 0, false
	}
	return id, true
}
