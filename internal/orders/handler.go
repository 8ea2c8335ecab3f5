package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// MutationCounter records stock movements for monitoring. Implemented by
// observability.Metrics.
type MutationCounter interface {
	CountStockMutation(source, outcome string)
}

// Handler exposes order endpoints.
type Handler struct {
	logger    *slog.Logger
	svc       *Service
	mutations MutationCounter
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, svc *Service, mutations MutationCounter) *Handler {
	return &Handler{logger: logger, svc: svc, mutations: mutations}
}

func (h *Handler) countMutation(source, outcome string) {
	if h.mutations != nil {
		h.mutations.CountStockMutation(source, outcome)
	}
}

// MountRoutes registers the order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Patch("/{id}/status", h.updateStatus)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	order, err := h.svc.Create(r.Context(), req, shared.ActorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			h.countMutation("order_create", "insufficient")
		}
		h.logger.Error("create order failed", slog.Any("error", err))
		respondOrderError(w, err)
		return
	}
	h.countMutation("order_create", "applied")
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	order, err := h.svc.Update(r.Context(), id, req, shared.ActorFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			h.countMutation("order_update", "insufficient")
		}
		respondOrderError(w, err)
		return
	}
	h.countMutation("order_update", "applied")
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	order, err := h.svc.UpdateStatus(r.Context(), id, Status(req.Status), shared.ActorFromContext(r.Context()))
	if err != nil {
		respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	order, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	orders, total, err := h.svc.List(r.Context(), ListFilter{
		Status:  Status(q.Get("status")),
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      orders,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", "Stok tidak mencukupi untuk pesanan ini")
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Status Transition", "Perubahan status pesanan tidak diizinkan")
	case errors.Is(err, ErrOrderFinal):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Order Final", "Pesanan sudah final dan tidak dapat diubah")
	case errors.Is(err, ErrUnknownLine):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "Baris pesanan tidak dikenal")
	default:
		httpx.RespondError(w, err)
	}
}
