package products

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

// Handler exposes product endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func parseFilters(r *http.Request) ListFilters {
	base := shared.ParseListFilters(r)
	filters := ListFilters{
		Page:    base.Page,
		Limit:   base.Limit,
		Search:  base.Search,
		SortBy:  base.SortBy,
		SortDir: base.SortDir,
	}
	q := r.URL.Query()
	filters.Category = q.Get("category")
	if v := q.Get("requires_prescription"); v != "" {
		b := v == "true" || v == "1"
		filters.RequiresPrescription = &b
	}
	if v := q.Get("in_stock"); v != "" {
		b := v == "true" || v == "1"
		filters.InStock = &b
	}
	if v := q.Get("low_stock"); v != "" {
		b := v == "true" || v == "1"
		filters.LowStock = &b
	}
	if v, err := strconv.ParseInt(q.Get("supplier_id"), 10, 64); err == nil {
		filters.SupplierID = v
	}
	return filters
}

type listResponse struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, pagination, err := h.service.List(r.Context(), parseFilters(r))
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Product{}
	}
	httpx.OK(w, listResponse{Products: result, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, product)
}

type createRequest struct {
	Name                 string  `json:"name"`
	Category             string  `json:"category"`
	Stock                int     `json:"stock"`
	MinStock             int     `json:"min_stock"`
	SellPrice            float64 `json:"sell_price"`
	BuyPrice             float64 `json:"buy_price"`
	ExpiryDate           string  `json:"expiry_date"`
	RequiresPrescription bool    `json:"requires_prescription"`
	SupplierID           *int64  `json:"supplier_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params := CreateParams{
		Name:                 req.Name,
		Category:             req.Category,
		Stock:                req.Stock,
		MinStock:             req.MinStock,
		SellPrice:            req.SellPrice,
		BuyPrice:             req.BuyPrice,
		RequiresPrescription: req.RequiresPrescription,
		SupplierID:           req.SupplierID,
	}
	if req.ExpiryDate != "" {
		expiry, err := time.Parse(time.DateOnly, req.ExpiryDate)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
		params.ExpiryDate = &expiry
	}
	product, err := h.service.Create(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, product)
}

type updateRequest struct {
	Name                 *string  `json:"name"`
	Category             *string  `json:"category"`
	Stock                *int     `json:"stock"`
	MinStock             *int     `json:"min_stock"`
	SellPrice            *float64 `json:"sell_price"`
	BuyPrice             *float64 `json:"buy_price"`
	ExpiryDate           *string  `json:"expiry_date"`
	RequiresPrescription *bool    `json:"requires_prescription"`
	SupplierID           *int64   `json:"supplier_id"`
	ClearSupplier        bool     `json:"clear_supplier"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params := UpdateParams{
		Name:                 req.Name,
		Category:             req.Category,
		Stock:                req.Stock,
		MinStock:             req.MinStock,
		SellPrice:            req.SellPrice,
		BuyPrice:             req.BuyPrice,
		RequiresPrescription: req.RequiresPrescription,
		SupplierID:           req.SupplierID,
		ClearSupplier:        req.ClearSupplier,
	}
	if req.ExpiryDate != nil {
		if *req.ExpiryDate == "" {
			params.ClearExpiryDate = true
		} else {
			expiry, err := time.Parse(time.DateOnly, *req.ExpiryDate)
			if err != nil {
				httpx.RespondError(w, fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", httpx.ErrValidation))
				return
			}
			params.ExpiryDate = &expiry
		}
	}
	product, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, product)
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
