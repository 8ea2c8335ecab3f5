package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gerai-erp/gerai-erp/internal/exports"
	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/notify"
	"github.com/gerai-erp/gerai-erp/internal/observability"
	"github.com/gerai-erp/gerai-erp/internal/orders"
	"github.com/gerai-erp/gerai-erp/internal/pettycash"
	"github.com/gerai-erp/gerai-erp/internal/production"
	"github.com/gerai-erp/gerai-erp/internal/products"
	"github.com/gerai-erp/gerai-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	InventoryHandler  *inventory.Handler
	ProductsHandler   *products.Handler
	OrdersHandler     *orders.Handler
	ProductionHandler *production.Handler
	PettyCashHandler  *pettycash.Handler
	NotifyHandler     *notify.Handler
	ExportsHandler    *exports.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
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

	r.Route("/api/v1", func(r chi.Router) {
		params.InventoryHandler.MountRoutes(r)
		params.ProductsHandler.MountRoutes(r)
		params.OrdersHandler.MountRoutes(r)
		params.ProductionHandler.MountRoutes(r)
		params.PettyCashHandler.MountRoutes(r)
		params.NotifyHandler.MountRoutes(r)
		params.ExportsHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
