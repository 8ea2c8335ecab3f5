package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// MutationCounter records stock movements for monitoring. Implemented by
// observability.Metrics.
type MutationCounter interface {
	CountStockMutation(source, outcome string)
}

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mutations MutationCounter
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, mutations MutationCounter) *Handler {
	return &Handler{logger: logger, service: service, mutations: mutations}
}

func (h *Handler) countMutation(source, outcome string) {
	if h.mutations != nil {
		h.mutations.CountStockMutation(source, outcome)
	}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/inventories", h.create)
	r.Get("/inventories", h.list)
	r.Get("/inventories/{id}", h.show)
	r.Put("/inventories/{id}", h.update)
	r.Post("/inventories/{id}/adjust", h.adjust)
	r.Get("/inventories/{id}/histories", h.histories)
}

type createRequest struct {
	ProductID *int64          `json:"product_id,omitempty"`
	Name      string          `json:"name" validate:"required,max=255"`
	Stock     decimal.Decimal `json:"stock"`
	Unit      string          `json:"unit" validate:"required,max=20"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku" validate:"required,max=64"`
}

type updateRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Stock       *decimal.Decimal `json:"stock,omitempty"`
	Description string           `json:"description,omitempty"`
}

type adjustRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" validate:"max=255"`
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
	inv, err := h.service.Create(r.Context(), CreateInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Stock:     req.Stock,
		Unit:      req.Unit,
		Price:     req.Price,
		SKU:       req.SKU,
	})
	if err != nil {
		h.logger.Error("create inventory failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, total, err := h.service.List(r.Context(), ListFilter{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.logger.Error("list inventories failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	inv, entries, err := h.service.Update(r.Context(), UpdateInput{
		ID: id,
		Proposed: Proposed{
			Name:        req.Name,
			Price:       req.Price,
			SKU:         req.SKU,
			Stock:       req.Stock,
			Description: req.Description,
		},
		ActorID: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("update inventory failed", slog.Int64("inventory_id", id), slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"inventory": inv, "histories": entries})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	movement, err := h.service.Adjust(r.Context(), AdjustInput{
		InventoryID: id,
		Delta:       req.Delta,
		Reason:      req.Reason,
		ActorID:     shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			h.countMutation("inventory_adjust", "insufficient")
		}
		h.logger.Error("adjust inventory failed", slog.Int64("inventory_id", id), slog.Any("error", err))
		h.respondDomainError(w, err)
		return
	}
	h.countMutation("inventory_adjust", "applied")
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) histories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.Histories(r.Context(), id, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", "Stok tidak mencukupi")
	case errors.Is(err, ErrInvalidDelta):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "Delta harus bukan nol")
	default:
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
