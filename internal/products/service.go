package products

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gerai-erp/gerai-erp/internal/inventory"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// UpdateInput carries the new product values.
type UpdateInput struct {
	ID      int64
	Name    string
	SKU     string
	Price   decimal.Decimal
	Unit    string
	Active  bool
	ActorID int64
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, errors.New("products: invalid product id")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

// Update rewrites product fields and mirrors name/price/sku onto the linked
// inventory record, auditing each changed tracked field. Products without a
// linked inventory update silently without audit entries.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Product, error) {
	p := Product{ID: input.ID, Name: input.Name, SKU: input.SKU, Price: input.Price, Unit: input.Unit, IsActive: input.Active}
	if err := validate(p); err != nil {
		return Product{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if err := repo.UpdateProduct(ctx, p); err != nil {
			return err
		}
		inv, err := repo.FindInventoryByProductForUpdate(ctx, p.ID)
		if err != nil {
			if errors.Is(err, ErrInventoryNotLinked) {
				return nil
			}
			return err
		}
		proposed := inventory.Proposed{Name: &p.Name, Price: &p.Price, SKU: &p.SKU}
		if _, err := inventory.RecordChanges(ctx, repo, inv, proposed, input.ActorID); err != nil {
			return err
		}
		proposed.Apply(&inv)
		return repo.UpdateFields(ctx, inv)
	})
	if err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, input.ID)
}

func validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("products: name required")
	}
	if strings.TrimSpace(p.SKU) == "" {
		return errors.New("products: sku required")
	}
	if p.Price.IsNegative() {
		return errors.New("products: price must be >= 0")
	}
	return nil
}
