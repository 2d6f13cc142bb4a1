package expenses

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

// Handler exposes expense endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type listResponse struct {
	Expenses   []Expense         `json:"expenses"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	base := shared.ParseListFilters(r)
	filters := ListFilters{
		Page:     base.Page,
		Limit:    base.Limit,
		Category: r.URL.Query().Get("category"),
	}
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
		filters.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
		filters.To = &to
	}
	result, pagination, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Expense{}
	}
	httpx.OK(w, listResponse{Expenses: result, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	expense, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, expense)
}

type expenseRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	ExpenseDate string  `json:"expense_date"`
}

func (req expenseRequest) params() (Params, error) {
	params := Params{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
	}
	if req.ExpenseDate != "" {
		date, err := time.Parse(time.DateOnly, req.ExpenseDate)
		if err != nil {
			return Params{}, fmt.Errorf("%w: expense_date must be YYYY-MM-DD", httpx.ErrValidation)
		}
		params.ExpenseDate = date
	}
	return params, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	expense, err := h.service.Create(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, expense)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	expense, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, expense)
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
