package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/auth"
	"github.com/apotek-pos/apotek-pos/internal/finance/expenses"
	"github.com/apotek-pos/apotek-pos/internal/finance/ledger"
	"github.com/apotek-pos/apotek-pos/internal/hr/employees"
	"github.com/apotek-pos/apotek-pos/internal/hr/payrolls"
	"github.com/apotek-pos/apotek-pos/internal/masterdata/products"
	"github.com/apotek-pos/apotek-pos/internal/masterdata/suppliers"
	"github.com/apotek-pos/apotek-pos/internal/observability"
	"github.com/apotek-pos/apotek-pos/internal/prescriptions"
	"github.com/apotek-pos/apotek-pos/internal/reports"
	"github.com/apotek-pos/apotek-pos/internal/sales"
	"github.com/apotek-pos/apotek-pos/internal/shared"
	"github.com/apotek-pos/apotek-pos/internal/system"
	"github.com/apotek-pos/apotek-pos/internal/users"
)

// RouterParams aggregates the dependencies the HTTP tree needs.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Conn    *sqlx.DB
	Metrics *observability.Metrics
}

// NewRouter wires every module and mounts the API. Role gates follow
// the pharmacy division of labour: apoteker manages the catalogue and
// prescriptions, kasir runs the register, admin does everything.
func NewRouter(p RouterParams) chi.Router {
	audit := shared.NewAuditLogger(p.Conn)
	idempotency := shared.NewIdempotencyStore(p.Conn)

	tokens := auth.NewTokenManager(p.Config.AuthSecret, p.Config.AuthTokenTTL)
	authMW := auth.Middleware{Tokens: tokens, Logger: p.Logger}

	authHandler := auth.NewHandler(p.Logger, auth.NewService(auth.NewRepository(p.Conn)), tokens)
	usersHandler := users.NewHandler(p.Logger, users.NewService(users.NewRepository(p.Conn)))
	suppliersHandler := suppliers.NewHandler(p.Logger, suppliers.NewService(suppliers.NewRepository(p.Conn)))
	productsHandler := products.NewHandler(p.Logger, products.NewService(products.NewRepository(p.Conn), audit))
	prescriptionsHandler := prescriptions.NewHandler(p.Logger, prescriptions.NewService(prescriptions.NewRepository(p.Conn), audit))
	salesHandler := sales.NewHandler(p.Logger, sales.NewService(sales.NewRepository(p.Conn), audit, p.Metrics, idempotency))
	employeesHandler := employees.NewHandler(p.Logger, employees.NewService(employees.NewRepository(p.Conn)))
	payrollsHandler := payrolls.NewHandler(p.Logger, payrolls.NewService(payrolls.NewRepository(p.Conn)))
	expensesHandler := expenses.NewHandler(p.Logger, expenses.NewService(expenses.NewRepository(p.Conn)))
	collectionsHandler := ledger.NewHandler(p.Logger, ledger.NewService(ledger.KindCollections, ledger.NewRepository(p.Conn, ledger.KindCollections)))
	paymentsHandler := ledger.NewHandler(p.Logger, ledger.NewService(ledger.KindPayments, ledger.NewRepository(p.Conn, ledger.KindPayments)))
	reportsHandler := reports.NewHandler(p.Logger, reports.NewService(reports.NewRepository(p.Conn)))
	systemHandler := system.NewHandler(p.Logger, p.Conn)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", systemHandler.Healthz)
	r.Get("/init", systemHandler.Init)
	if p.Metrics != nil {
		r.Method("GET", "/metrics", p.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		authHandler.MountRoutes(r, authMW, LoginRateLimiter())
	})

	r.Group(func(r chi.Router) {
		r.Use(authMW.RequireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			usersHandler.MountRoutes(r)
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleApoteker))
			suppliersHandler.MountRoutes(r)
		})
		r.Route("/products", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleApoteker))
			productsHandler.MountRoutes(r)
		})
		r.Route("/prescriptions", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleApoteker))
			prescriptionsHandler.MountRoutes(r)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleKasir))
			salesHandler.MountRoutes(r)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			employeesHandler.MountRoutes(r)
		})
		r.Route("/payrolls", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			payrollsHandler.MountRoutes(r)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			expensesHandler.MountRoutes(r)
		})
		r.Route("/collections", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			collectionsHandler.MountRoutes(r)
		})
		r.Route("/payments", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			paymentsHandler.MountRoutes(r)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authMW.RequireRole(auth.RoleAdmin))
			reportsHandler.MountRoutes(r)
		})
	})

	return r
}
