package billing

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the bill ledger.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers bill routes (admin only).
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.ListBills)
		r.Post("/", h.CreateBill)
		r.Get("/summary", h.GetSummary)
		r.Get("/{id}", h.GetBill)
		r.Put("/{id}", h.UpdateBill)
		r.Patch("/{id}", h.UpdateBill)
		r.Delete("/{id}", h.DeleteBill)
		r.Patch("/{id}/toggle-paid", h.TogglePaid)
		r.Get("/{id}/receipt", h.GetReceipt)
	})
}

// CreateBillRequest represents the request body for creating a bill.
// TariffRate and Total are accepted for compatibility with older clients,
// but the stored values always come from the tariff table.
type CreateBillRequest struct {
	CustomerID int64  `json:"customerId" validate:"required,gt=0"`
	UsageUnits int64  `json:"usageUnits" validate:"required,min=1,max=1000000000"`
	TariffRate *int64 `json:"tariffRate" validate:"omitempty,min=0"`
	Total      *int64 `json:"total" validate:"omitempty,min=0"`
}

// UpdateBillRequest represents the request body for a partial bill update.
type UpdateBillRequest struct {
	UsageUnits *int64       `json:"usageUnits" validate:"omitempty,min=1,max=1000000000"`
	TariffRate *int64       `json:"tariffRate" validate:"omitempty,min=0"`
	Total      *int64       `json:"total" validate:"omitempty,min=0"`
	Paid       *bool        `json:"paid"`
	PaidAt     OptionalTime `json:"paidAt"`
}

// ToPatch converts the request to a ledger patch.
func (r *UpdateBillRequest) ToPatch() BillPatch {
	return BillPatch{
		UsageUnits: r.UsageUnits,
		TariffRate: r.TariffRate,
		Total:      r.Total,
		Paid:       r.Paid,
		PaidAt:     r.PaidAt,
	}
}

// ListBills handles GET /bills request.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	status, err := ParsePaidStatus(r.URL.Query().Get("status"))
	if err != nil {
		httputil.FieldError(w, "status", "oneof")
		return
	}

	bills, err := h.service.List(r.Context(), ListFilter{Status: status})
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bills)
}

// CreateBill handles POST /bills request.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	usage, err := domain.NewUsageUnits(req.UsageUnits)
	if err != nil {
		tag := "min"
		if req.UsageUnits > domain.MaxUsageUnits {
			tag = "max"
		}
		httputil.FieldError(w, "usageUnits", tag)
		return
	}

	bill, err := h.service.Create(r.Context(), req.CustomerID, usage)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, bill)
}

// GetSummary handles GET /bills/summary request.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// GetBill handles GET /bills/{id} request.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	bill, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bill)
}

// UpdateBill handles PUT and PATCH /bills/{id} requests.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	var req UpdateBillRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	bill, err := h.service.RawUpdate(r.Context(), id, req.ToPatch())
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bill)
}

// TogglePaid handles PATCH /bills/{id}/toggle-paid request.
func (h *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	bill, err := h.service.TogglePaid(r.Context(), id)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bill)
}

// DeleteBill handles DELETE /bills/{id} request.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Message(w, http.StatusOK, "deleted")
}

// GetReceipt handles GET /bills/{id}/receipt request.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := billID(w, r)
	if !ok {
		return
	}

	lines, err := h.service.Receipt(r.Context(), id)
	if err != nil {
		httputil.HandleDomainError(r.Context(), w, err)
		return
	}

	httputil.Text(w, http.StatusOK, strings.Join(lines, "\n")+"\n")
}

// billID parses the {id} URL parameter. Malformed IDs cannot name a bill,
// so they are reported as not found.
func billID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusNotFound, ErrBillNotFound.Error())
		return 0, false
	}
	return id, true
}
