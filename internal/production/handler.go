package production

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Enqueuer submits deploy runs to the background queue.
type Enqueuer interface {
	EnqueueProductionDeploy(ctx context.Context, compositionID, requested, actorID int64) error
}

// Handler wires HTTP endpoints for the production module.
type Handler struct {
	logger   *slog.Logger
	svc      *Service
	enqueuer Enqueuer
}

// NewHandler constructs the production handler.
func NewHandler(logger *slog.Logger, svc *Service, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, svc: svc, enqueuer: enqueuer}
}

// MountRoutes registers composition routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/compositions", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/deploy", h.deploy)
		r.Get("/{id}/batches", h.batches)
	})
}

type itemRequest struct {
	InventoryID int64           `json:"inventory_id" validate:"required,gt=0"`
	StockUsed   decimal.Decimal `json:"stock_used"`
	Cost        decimal.Decimal `json:"cost"`
}

type categoryRequest struct {
	Name  string        `json:"name" validate:"required,max=255"`
	Items []itemRequest `json:"items" validate:"dive"`
}

type createRequest struct {
	Name              string            `json:"name" validate:"required,max=255"`
	TargetInventoryID int64             `json:"target_inventory_id" validate:"required,gt=0"`
	LaborCost         decimal.Decimal   `json:"labor_cost"`
	Yield             int64             `json:"production_batch" validate:"required,gt=0"`
	Categories        []categoryRequest `json:"categories" validate:"required,min=1,dive"`
}

type deployRequest struct {
	RequestedBatch int64 `json:"requested_batch" validate:"required,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	comp := Composition{
		Name:              req.Name,
		TargetInventoryID: req.TargetInventoryID,
		LaborCost:         req.LaborCost,
		Yield:             req.Yield,
	}
	for _, cat := range req.Categories {
		category := Category{Name: cat.Name}
		for _, item := range cat.Items {
			category.Items = append(category.Items, Item{
				InventoryID: item.InventoryID,
				StockUsed:   item.StockUsed,
				Cost:        item.Cost,
			})
		}
		comp.Categories = append(comp.Categories, category)
	}
	created, err := h.svc.Create(r.Context(), comp)
	if err != nil {
		h.logger.Error("create composition failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) deploy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req deployRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actorID := shared.ActorFromContext(r.Context())
	if err := h.enqueuer.EnqueueProductionDeploy(r.Context(), id, req.RequestedBatch, actorID); err != nil {
		h.logger.Error("enqueue production deploy failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "Produksi tidak dapat dijadwalkan")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"message":         "Produksi sedang diproses",
		"composition_id":  id,
		"requested_batch": req.RequestedBatch,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	comp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, total, err := h.svc.List(r.Context(), ListFilter{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) batches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.BatchRuns(r.Context(), id, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": runs})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
