package pettycash

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Handler exposes petty cash endpoints.
type Handler struct {
	svc *Service
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers petty cash routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/petty-cash", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.record)
		r.Get("/balance", h.balance)
	})
}

type recordRequest struct {
	Type        string          `json:"type" validate:"required,oneof=debit credit"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required,max=255"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "body is not valid JSON")
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.ValidationProblem(w, shared.FieldMessages(err))
		return
	}
	entry, err := h.svc.Record(r.Context(), RecordInput{
		Type:        EntryType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		ActorID:     shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Balance", "Saldo kas kecil tidak mencukupi")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.Balance(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balance": balance})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, total, err := h.svc.List(r.Context(), ListFilter{
		Type:    EntryType(q.Get("type")),
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
