package production

import (
	"sort"

	"github.com/shopspring/decimal"
)

// requirement is the aggregated per-batch need for one ingredient.
type requirement struct {
	InventoryID  int64
	NeedPerBatch decimal.Decimal
}

// requirements flattens a composition into per-batch ingredient needs.
// Usage of the same ingredient across categories is summed, then multiplied
// by the yield so one batch accounts for every produced unit. Ingredients
// with non-positive aggregated usage are dropped as non-consuming. The
// result is ordered by inventory id so runs are deterministic.
func requirements(comp Composition) []requirement {
	usage := make(map[int64]decimal.Decimal)
	for _, cat := range comp.Categories {
		for _, item := range cat.Items {
			usage[item.InventoryID] = usage[item.InventoryID].Add(item.StockUsed)
		}
	}

	yield := decimal.NewFromInt(comp.Yield)
	reqs := make([]requirement, 0, len(usage))
	for invID, used := range usage {
		need := used.Mul(yield)
		if !need.IsPositive() {
			continue
		}
		reqs = append(reqs, requirement{InventoryID: invID, NeedPerBatch: need})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].InventoryID < reqs[j].InventoryID })
	return reqs
}

// feasibleBatches caps the requested batch count by the most constrained
// ingredient: min over floor(stock / needPerBatch).
func feasibleBatches(requested int64, reqs []requirement, stocks map[int64]decimal.Decimal) int64 {
	feasible := requested
	for _, req := range reqs {
		max := stocks[req.InventoryID].Div(req.NeedPerBatch).Floor().IntPart()
		if max < feasible {
			feasible = max
		}
	}
	return feasible
}
