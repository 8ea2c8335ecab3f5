package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products", h.create)
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.show)
	r.Put("/products/{id}", h.update)
}

type productRequest struct {
	Name   string          `json:"name" validate:"required,max=255"`
	SKU    string          `json:"sku" validate:"required,max=64"`
	Price  decimal.Decimal `json:"price"`
	Unit   string          `json:"unit" validate:"max=20"`
	Active *bool           `json:"is_active,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.service.Create(r.Context(), Product{
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Unit:     req.Unit,
		IsActive: active,
	})
	if err != nil {
		h.logger.Error("create product failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filters := ListFilters{Search: q.Get("search"), Page: page, PerPage: perPage}
	if activeStr := q.Get("is_active"); activeStr != "" {
		active := activeStr == "true" || activeStr == "1"
		filters.IsActive = &active
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.service.Update(r.Context(), UpdateInput{
		ID:      id,
		Name:    req.Name,
		SKU:     req.SKU,
		Price:   req.Price,
		Unit:    req.Unit,
		Active:  active,
		ActorID: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("update product failed", slog.Int64("product_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
