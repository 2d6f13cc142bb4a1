package employees

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

// Handler exposes employee endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type listResponse struct {
	Employees  []Employee        `json:"employees"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	base := shared.ParseListFilters(r)
	filters := ListFilters{
		Page:   base.Page,
		Limit:  base.Limit,
		Search: base.Search,
		Status: r.URL.Query().Get("status"),
	}
	result, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Employee{}
	}
	httpx.OK(w, listResponse{Employees: result, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	employee, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, employee)
}

type employeeRequest struct {
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	BaseSalary float64 `json:"base_salary"`
	Bonus      float64 `json:"bonus"`
	StartDate  string  `json:"start_date"`
	Status     string  `json:"status"`
}

func (req employeeRequest) params() (Params, error) {
	params := Params{
		Name:       req.Name,
		Position:   req.Position,
		BaseSalary: req.BaseSalary,
		Bonus:      req.Bonus,
		Status:     req.Status,
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return Params{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", httpx.ErrValidation)
		}
		params.StartDate = &start
	}
	return params, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	employee, err := h.service.Create(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, employee)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	employee, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, employee)
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
