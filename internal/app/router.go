package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/abasto-pos/abasto-pos/internal/credits"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/observability"
	"github.com/abasto-pos/abasto-pos/internal/products"
	"github.com/abasto-pos/abasto-pos/internal/sales"
	"github.com/abasto-pos/abasto-pos/internal/users"
	"github.com/abasto-pos/abasto-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	SalesHandler     *sales.Handler
	CustomersHandler *customers.Handler
	CreditsHandler   *credits.Handler
	ProductsHandler  *products.Handler
	UsersHandler     *users.Handler
	JobsHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the back office API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/sales", params.SalesHandler.MountRoutes)
	r.Route("/customers", params.CustomersHandler.MountRoutes)
	r.Route("/credits", params.CreditsHandler.MountRoutes)
	r.Route("/products", params.ProductsHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
