package payrolls

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Handler exposes payroll endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type listResponse struct {
	Payrolls   []Payroll         `json:"payrolls"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	base := shared.ParseListFilters(r)
	filters := ListFilters{
		Page:   base.Page,
		Limit:  base.Limit,
		Period: r.URL.Query().Get("period"),
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("employee_id"), 10, 64); err == nil {
		filters.EmployeeID = v
	}
	result, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list payrolls", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Payroll{}
	}
	httpx.OK(w, listResponse{Payrolls: result, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payroll, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, payroll)
}

type payrollRequest struct {
	EmployeeID int64   `json:"employee_id"`
	Period     string  `json:"period"`
	TotalPaid  float64 `json:"total_paid"`
	PaidAt     string  `json:"paid_at"`
	Notes      string  `json:"notes"`
}

func (req payrollRequest) params() (Params, error) {
	params := Params{
		EmployeeID: req.EmployeeID,
		Period:     req.Period,
		TotalPaid:  req.TotalPaid,
		Notes:      req.Notes,
	}
	if req.PaidAt != "" {
		paidAt, err := time.Parse(time.DateOnly, req.PaidAt)
		if err != nil {
			return Params{}, fmt.Errorf("%w: paid_at must be YYYY-MM-DD", httpx.ErrValidation)
		}
		params.PaidAt = paidAt
	}
	return params, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payroll, err := h.service.Create(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payroll)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req payrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payroll, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, payroll)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]int64{"deleted": id})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", httpx.ErrValidation)
	}
	return id, nil
}
