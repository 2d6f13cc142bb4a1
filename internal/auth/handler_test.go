package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/auth"
	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

func newTestRouter(t *testing.T, repo auth.Repository) http.Handler {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := auth.NewHandler(slogDiscard(), auth.NewService(repo), tokens)
	mw := auth.Middleware{Tokens: tokens}

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		handler.MountRoutes(r, mw, nil)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.With(mw.RequireRole(auth.RoleApoteker)).Get("/products-only", func(w http.ResponseWriter, r *http.Request) {
			httpx.OK(w, "granted")
		})
	})
	return r
}

func TestLoginSeededAdmin(t *testing.T) {
	router := newTestRouter(t, &stubRepo{user: seededUser(t, "admin", "1234", auth.RoleAdmin)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"1234"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		OK   bool `json:"ok"`
		Data struct {
			Token string       `json:"token"`
			User  auth.Profile `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.OK)
	require.NotEmpty(t, env.Data.Token)
	require.Equal(t, auth.RoleAdmin, env.Data.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t, &stubRepo{user: seededUser(t, "admin", "1234", auth.RoleAdmin)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.False(t, env.OK)
	require.Nil(t, env.Data)
}

func TestLoginMissingFields(t *testing.T) {
	router := newTestRouter(t, &stubRepo{user: seededUser(t, "admin", "1234", auth.RoleAdmin)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleGate(t *testing.T) {
	repo := &stubRepo{user: seededUser(t, "kasir1", "rahasia", auth.RoleKasir)}
	router := newTestRouter(t, repo)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	kasirToken := issueFor(t, tokens, 2, "kasir1", auth.RoleKasir)
	req := httptest.NewRequest(http.MethodGet, "/products-only", nil)
	req.Header.Set("Authorization", "Bearer "+kasirToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := issueFor(t, tokens, 1, "admin", auth.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/products-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMeSurvivesUsernameChange(t *testing.T) {
	user := seededUser(t, "admin", "1234", auth.RoleAdmin)
	router := newTestRouter(t, &stubRepo{user: user})
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	token := issueFor(t, tokens, user.ID, "admin", auth.RoleAdmin)
	user.Username = "administrator"

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		OK   bool         `json:"ok"`
		Data auth.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.OK)
	require.Equal(t, "administrator", env.Data.Username)
}

func TestMissingToken(t *testing.T) {
	router := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/products-only", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
