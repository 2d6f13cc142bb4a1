package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/profit-loss", h.profitLoss)
	r.Get("/top-products", h.topProducts)
	r.Get("/receivables", h.receivables)
	r.Get("/sales/export", h.export)
}

func parseRange(r *http.Request) (Range, error) {
	var result Range
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return Range{}, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrValidation)
		}
		result.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return Range{}, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrValidation)
		}
		result.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !result.From.IsZero() && !result.To.IsZero() && result.To.Before(result.From) {
		return Range{}, fmt.Errorf("%w: to precedes from", httpx.ErrValidation)
	}
	return result, nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Summary(r.Context(), rng)
	if err != nil {
		h.logger.Error("summary report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.ProfitLoss(r.Context(), rng)
	if err != nil {
		h.logger.Error("profit-loss report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.service.TopProducts(r.Context(), rng, limit)
	if err != nil {
		h.logger.Error("top products report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []TopProduct{}
	}
	httpx.OK(w, result)
}

func (h *Handler) receivables(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Receivables(r.Context())
	if err != nil {
		h.logger.Error("receivables report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, name, err := h.service.Export(r.Context(), rng)
	if err != nil {
		h.logger.Error("sales export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
