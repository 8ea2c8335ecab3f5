package notify

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Handler exposes the notification listing for the acting user.
type Handler struct {
	svc *Service
}

// NewHandler constructs Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/notifications", h.list)
	r.Post("/notifications/{id}/read", h.markRead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actorID := shared.ActorFromContext(r.Context())
	if actorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "header X-Actor-ID wajib diisi")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.List(r.Context(), actorID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	actorID := shared.ActorFromContext(r.Context())
	if actorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "header X-Actor-ID wajib diisi")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.svc.MarkRead(r.Context(), actorID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Notifikasi ditandai terbaca"})
}
