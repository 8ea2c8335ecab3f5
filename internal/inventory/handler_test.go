package inventory

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) CountStockMutation(source, outcome string) {
	m.counts[source+"/"+outcome]++
}

func newInventoryRouter(repo *memoryRepo, metrics MutationCounter) http.Handler {
	h := NewHandler(slog.Default(), NewService(repo), metrics)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestAdjustCountsAppliedMutation(t *testing.T) {
	repo := newMemoryRepo()
	inv := seedInventory(t, repo, "10")
	metrics := newCountingMetrics()
	router := newInventoryRouter(repo, metrics)

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/inventories/%d/adjust", inv.ID)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"delta":-3,"reason":"rusak"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, metrics.counts["inventory_adjust/applied"])
}

func TestAdjustCountsInsufficientMutation(t *testing.T) {
	repo := newMemoryRepo()
	inv := seedInventory(t, repo, "2")
	metrics := newCountingMetrics()
	router := newInventoryRouter(repo, metrics)

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/inventories/%d/adjust", inv.ID)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"delta":-5,"reason":"rusak"}`)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, 1, metrics.counts["inventory_adjust/insufficient"])
	require.Zero(t, metrics.counts["inventory_adjust/applied"])
}
