package prescriptions

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

// Handler exposes prescription endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the prescription routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Put("/{id}/medications", h.replaceMedications)
	r.Put("/{id}/status", h.markUsed)
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
	filters.Status = q.Get("status")
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
	Prescriptions []Prescription    `json:"prescriptions"`
	Pagination    shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list prescriptions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Prescription{}
	}
	httpx.OK(w, listResponse{
		Prescriptions: result,
		Pagination:    shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rx, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rx)
}

type medicationRequest struct {
	ProductID    int64  `json:"product_id"`
	Quantity     int    `json:"quantity"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
}

type createRequest struct {
	DoctorName       string              `json:"doctor_name"`
	PatientName      string              `json:"patient_name"`
	PrescriptionDate string              `json:"prescription_date"`
	Medications      []medicationRequest `json:"medications"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	params, err := headerParams(req.DoctorName, req.PatientName, req.PrescriptionDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rx, err := h.service.Create(r.Context(), params, medicationParams(req.Medications))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, rx)
}

type updateRequest struct {
	DoctorName       string `json:"doctor_name"`
	PatientName      string `json:"patient_name"`
	PrescriptionDate string `json:"prescription_date"`
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
	params, err := headerParams(req.DoctorName, req.PatientName, req.PrescriptionDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rx, err := h.service.Update(r.Context(), id, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rx)
}

type replaceMedicationsRequest struct {
	Medications []medicationRequest `json:"medications"`
}

func (h *Handler) replaceMedications(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req replaceMedicationsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rx, err := h.service.ReplaceMedications(r.Context(), id, medicationParams(req.Medications))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rx)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) markUsed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Status != StatusUsed {
		httpx.RespondError(w, fmt.Errorf("%w: status must be %q", httpx.ErrValidation, StatusUsed))
		return
	}
	rx, err := h.service.MarkUsed(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, rx)
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

func headerParams(doctor, patient, date string) (HeaderParams, error) {
	params := HeaderParams{DoctorName: doctor, PatientName: patient}
	if date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return HeaderParams{}, fmt.Errorf("%w: prescription_date must be YYYY-MM-DD", httpx.ErrValidation)
		}
		params.PrescriptionDate = parsed
	}
	return params, nil
}

func medicationParams(reqs []medicationRequest) []MedicationParams {
	meds := make([]MedicationParams, 0, len(reqs))
	for _, req := range reqs {
		meds = append(meds, MedicationParams{
			ProductID:    req.ProductID,
			Quantity:     req.Quantity,
			Dosage:       req.Dosage,
			Instructions: req.Instructions,
		})
	}
	return meds
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", httpx.ErrValidation)
	}
	return id, nil
}
