package auth

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    *TokenManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router, authMW Middleware, loginLimiter func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if loginLimiter != nil {
			r.Use(loginLimiter)
		}
		r.Post("/login", h.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(authMW.RequireAuth)
		r.Get("/me", h.handleMe)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: username and password are required", httpx.ErrValidation))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	token, err := h.tokens.Issue(shared.Identity{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.OK(w, loginResponse{Token: token, User: ProfileOf(user)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: missing identity", httpx.ErrUnauthorized))
		return
	}
	user, err := h.service.ProfileByID(r.Context(), id.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, ProfileOf(user))
}
