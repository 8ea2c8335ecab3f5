package exports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gerai-erp/gerai-erp/internal/platform/httpx"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Enqueuer submits export jobs to the background queue.
type Enqueuer interface {
	EnqueueExportGenerate(ctx context.Context, exportID int64) error
}

// Handler exposes export endpoints.
type Handler struct {
	logger   *slog.Logger
	svc      *Service
	enqueuer Enqueuer
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, svc *Service, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, svc: svc, enqueuer: enqueuer}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/exports/orders", h.requestOrders)
	r.Get("/exports/{id}", h.get)
}

func (h *Handler) requestOrders(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Request(r.Context(), KindOrders, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.enqueuer.EnqueueExportGenerate(r.Context(), exp.ID); err != nil {
		h.logger.Error("enqueue export failed", slog.Any("error", err))
		_ = h.svc.repo.MarkFailed(r.Context(), exp.ID, "gagal menjadwalkan ekspor")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "Ekspor tidak dapat dijadwalkan")
		return
	}
	httpx.JSON(w, http.StatusAccepted, exp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	exp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}
