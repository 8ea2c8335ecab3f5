package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
)

var (
	// ErrInvalidStatus indicates an illegal status transition.
	ErrInvalidStatus = errors.New("orders: invalid status transition")
	// ErrOrderFinal indicates an edit against a terminal order.
	ErrOrderFinal = errors.New("orders: order is final")
	// ErrUnknownLine indicates an edit referencing a line that does not
	// belong to the order.
	ErrUnknownLine = errors.New("orders: unknown order line")
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
}

// Service owns order checkout and the stock reconciliation on edits. Every
// stock movement routes through the inventory ledger inside one transaction
// per business operation.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create checks out a new order. Each line deducts stock under a row lock;
// any insufficient line aborts the entire order, leaving no partial order
// and no stock movements behind.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actorID int64) (Order, error) {
	number := newOrderNumber()
	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		id, err := repo.InsertOrder(ctx, Order{
			Number:       number,
			CustomerName: req.CustomerName,
			Status:       StatusPending,
			Total:        decimal.Zero,
			Channel:      req.Channel,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id

		for _, lineReq := range req.Lines {
			lp, err := repo.GetLineProduct(ctx, lineReq.ProductID)
			if err != nil {
				return err
			}
			if _, err := inventory.Adjust(ctx, repo, inventory.AdjustParams{
				InventoryID: lp.InventoryID,
				Delta:       decimal.NewFromInt(-lineReq.Quantity),
				Reason:      fmt.Sprintf("Checkout pesanan %s", number),
				ActorID:     actorID,
			}); err != nil {
				return err
			}
			if _, err := repo.InsertLine(ctx, Line{OrderID: id, ProductID: lineReq.ProductID, Quantity: lineReq.Quantity}); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		total, err := recomputeTotal(ctx, repo, id)
		if err != nil {
			return err
		}
		return repo.SetOrderTotal(ctx, id, total)
	})
	if err != nil {
		return Order{}, err
	}
	return s.repo.Get(ctx, orderID)
}

// Update reconciles the submitted line set against the persisted one and
// applies the minimal corrective stock deltas. A single insufficient line
// rolls back every change of the request.
func (s *Service) Update(ctx context.Context, orderID int64, req UpdateOrderRequest, actorID int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		order, err := repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return fmt.Errorf("%w: %s", ErrOrderFinal, order.Status)
		}

		existing, err := repo.GetLines(ctx, orderID)
		if err != nil {
			return err
		}
		byID := make(map[int64]Line, len(existing))
		for _, line := range existing {
			byID[line.ID] = line
		}

		for _, lineReq := range req.Lines {
			if lineReq.ID == nil {
				if lineReq.Delete {
					continue
				}
				if err := s.applyDelta(ctx, repo, order.Number, lineReq.ProductID, -lineReq.Quantity, actorID); err != nil {
					return err
				}
				if _, err := repo.InsertLine(ctx, Line{OrderID: orderID, ProductID: lineReq.ProductID, Quantity: lineReq.Quantity}); err != nil {
					return fmt.Errorf("insert order line: %w", err)
				}
				continue
			}

			prev, ok := byID[*lineReq.ID]
			if !ok {
				return fmt.Errorf("%w: %d", ErrUnknownLine, *lineReq.ID)
			}

			switch {
			case lineReq.Delete:
				if err := s.applyDelta(ctx, repo, order.Number, prev.ProductID, prev.Quantity, actorID); err != nil {
					return err
				}
				if err := repo.DeleteLine(ctx, prev.ID); err != nil {
					return err
				}
			case lineReq.Quantity == prev.Quantity:
				// unchanged: no stock movement, no history entry
			default:
				diff := prev.Quantity - lineReq.Quantity
				if err := s.applyDelta(ctx, repo, order.Number, prev.ProductID, diff, actorID); err != nil {
					return err
				}
				if err := repo.UpdateLineQuantity(ctx, prev.ID, lineReq.Quantity); err != nil {
					return err
				}
			}
		}

		if req.CustomerName != nil && *req.CustomerName != order.CustomerName {
			if err := repo.UpdateCustomerName(ctx, orderID, *req.CustomerName); err != nil {
				return err
			}
		}

		total, err := recomputeTotal(ctx, repo, orderID)
		if err != nil {
			return err
		}
		return repo.SetOrderTotal(ctx, orderID, total)
	})
	if err != nil {
		return Order{}, err
	}
	return s.repo.Get(ctx, orderID)
}

// UpdateStatus stores a guarded status transition. Transitions carry no
// stock side effects.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, next Status, actorID int64) (Order, error) {
	if !next.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		order, err := repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, order.Status, next)
		}
		return repo.SetOrderStatus(ctx, orderID, next)
	})
	if err != nil {
		return Order{}, err
	}
	return s.repo.Get(ctx, orderID)
}

// Get fetches one order with lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered order page.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	return s.repo.List(ctx, filter)
}

// applyDelta moves stock for a product's linked inventory through the
// ledger. Positive delta credits stock back, negative deducts.
func (s *Service) applyDelta(ctx context.Context, repo TxRepository, number string, productID, delta int64, actorID int64) error {
	if delta == 0 {
		return nil
	}
	lp, err := repo.GetLineProduct(ctx, productID)
	if err != nil {
		return err
	}
	reason := fmt.Sprintf("Perubahan pesanan %s", number)
	if delta > 0 {
		reason = fmt.Sprintf("Pengembalian stok pesanan %s", number)
	}
	_, err = inventory.Adjust(ctx, repo, inventory.AdjustParams{
		InventoryID: lp.InventoryID,
		Delta:       decimal.NewFromInt(delta),
		Reason:      reason,
		ActorID:     actorID,
	})
	return err
}

// recomputeTotal derives the order total from the authoritative persisted
// lines and product prices.
func recomputeTotal(ctx context.Context, repo TxRepository, orderID int64) (decimal.Decimal, error) {
	lines, err := repo.GetLines(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, line := range lines {
		lp, err := repo.GetLineProduct(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lp.Price.Mul(decimal.NewFromInt(line.Quantity)))
	}
	return total, nil
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
