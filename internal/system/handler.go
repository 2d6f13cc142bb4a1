package system

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Handler exposes liveness and bootstrap-status endpoints.
type Handler struct {
	logger *slog.Logger
	conn   *sqlx.DB
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, conn *sqlx.DB) *Handler {
	return &Handler{logger: logger, conn: conn}
}

// Healthz reports liveness, including database reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.conn.PingContext(r.Context()); err != nil {
		h.logger.Error("healthz ping", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]string{"status": "ok"})
}

type initStatus struct {
	SchemaReady bool   `json:"schema_ready"`
	AdminSeeded bool   `json:"admin_seeded"`
	Version     string `json:"version"`
}

// Init reports bootstrap status: whether the schema is applied and a
// seeded admin account exists.
func (h *Handler) Init(w http.ResponseWriter, r *http.Request) {
	status := initStatus{Version: Version}

	var err error
	status.SchemaReady, err = h.tableExists(r.Context(), "transactions")
	if err != nil {
		h.logger.Error("init schema check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if status.SchemaReady {
		var admins int
		if err := h.conn.GetContext(r.Context(), &admins,
			`SELECT COUNT(*) FROM users WHERE role = 'admin'`); err != nil {
			h.logger.Error("init admin check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		status.AdminSeeded = admins > 0
	}
	httpx.OK(w, status)
}

func (h *Handler) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := h.conn.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
