package sales

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

// Handler exposes transaction endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/items", h.items)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func parseFilters(r *http.Request) (ListFilters, error) {
	base := shared.ParseListFilters(r)
	filters := ListFilters{
		Page:   base.Page,
		Limit:  base.Limit,
		Search: base.Search,
	}
	q := r.URL.Query()
	if v, err := strconv.ParseInt(q.Get("cashier_id"), 10, 64); err == nil {
		filters.CashierID = v
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return ListFilters{}, fmt.Errorf("%w: from must be YYYY-MM-DD", httpx.ErrValidation)
		}
		filters.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return ListFilters{}, fmt.Errorf("%w: to must be YYYY-MM-DD", httpx.ErrValidation)
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filters.To = &end
	}
	return filters, nil
}

type listResponse struct {
	Transactions []Transaction     `json:"transactions"`
	Pagination   shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Transaction{}
	}
	httpx.OK(w, listResponse{
		Transactions: result,
		Pagination:   shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	trx, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, trx)
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	trx, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, trx.Items)
}

type itemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type saleRequest struct {
	Items          []itemRequest `json:"items"`
	DiscountType   string        `json:"discount_type"`
	DiscountAmount float64       `json:"discount_amount"`
	PaymentMethod  string        `json:"payment_method"`
	PrescriptionID *int64        `json:"prescription_id"`
}

func (req saleRequest) params() CreateParams {
	items := make([]ItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ItemParams{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return CreateParams{
		Items:          items,
		DiscountType:   req.DiscountType,
		DiscountAmount: req.DiscountAmount,
		PaymentMethod:  req.PaymentMethod,
		PrescriptionID: req.PrescriptionID,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	trx, err := h.service.Create(r.Context(), req.params(), r.Header.Get("X-Idempotency-Key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, trx)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req saleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	trx, err := h.service.Update(r.Context(), id, req.params())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, trx)
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
