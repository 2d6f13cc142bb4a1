package sales

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/shared"
)

func newTestRouter(repo *memoryRepo) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil, nil, nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 7, Username: "kasir1", Role: "kasir"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/transactions", handler.MountRoutes)
	return r
}

func postJSON(t *testing.T, router chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateSaleEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	router := newTestRouter(repo)

	rec := postJSON(t, router, "/transactions", map[string]any{
		"items":          []map[string]any{{"product_id": 1, "quantity": 3}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		OK   bool        `json:"ok"`
		Data Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.OK)
	require.Equal(t, 36000.0, envelope.Data.Total)
	require.NotEmpty(t, envelope.Data.Code)
	require.Equal(t, 7, repo.products[1].Stock)
}

func TestCreateSaleInsufficientStockEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	router := newTestRouter(repo)

	rec := postJSON(t, router, "/transactions", map[string]any{
		"items": []map[string]any{{"product_id": 2, "quantity": 50}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 5, repo.products[2].Stock)
}

func TestCreateSaleMalformedBody(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSaleEndpointRestocks(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	router := newTestRouter(repo)

	rec := postJSON(t, router, "/transactions", map[string]any{
		"items": []map[string]any{{"product_id": 1, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	req := httptest.NewRequest(http.MethodDelete, "/transactions/1", nil)
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)
	require.Equal(t, http.StatusOK, del.Code)
	require.Equal(t, 10, repo.products[1].Stock)
}
