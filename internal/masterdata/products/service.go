package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product catalogue operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns products with pagination metadata.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, shared.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = shared.DefaultPage
	}
	if filters.Limit < 1 {
		filters.Limit = shared.DefaultLimit
	}
	result, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, params CreateParams) (Product, error) {
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return Product{}, fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if params.Stock < 0 || params.MinStock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", httpx.ErrValidation)
	}
	if params.SellPrice < 0 || params.BuyPrice < 0 {
		return Product{}, fmt.Errorf("%w: prices cannot be negative", httpx.ErrValidation)
	}
	if params.SupplierID != nil {
		exists, err := s.repo.SupplierExists(ctx, *params.SupplierID)
		if err != nil {
			return Product{}, err
		}
		if !exists {
			return Product{}, fmt.Errorf("%w: supplier %d", httpx.ErrNotFound, *params.SupplierID)
		}
	}
	return s.repo.Create(ctx, params)
}

// Update patches a product; direct stock edits are audited.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	sets := map[string]any{}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return Product{}, fmt.Errorf("%w: product name cannot be empty", httpx.ErrValidation)
		}
		sets["name"] = name
	}
	if params.Category != nil {
		sets["category"] = *params.Category
	}
	if params.Stock != nil {
		if *params.Stock < 0 {
			return Product{}, fmt.Errorf("%w: stock cannot be negative", httpx.ErrValidation)
		}
		sets["stock"] = *params.Stock
	}
	if params.MinStock != nil {
		if *params.MinStock < 0 {
			return Product{}, fmt.Errorf("%w: min stock cannot be negative", httpx.ErrValidation)
		}
		sets["min_stock"] = *params.MinStock
	}
	if params.SellPrice != nil {
		if *params.SellPrice < 0 {
			return Product{}, fmt.Errorf("%w: sell price cannot be negative", httpx.ErrValidation)
		}
		sets["sell_price"] = *params.SellPrice
	}
	if params.BuyPrice != nil {
		if *params.BuyPrice < 0 {
			return Product{}, fmt.Errorf("%w: buy price cannot be negative", httpx.ErrValidation)
		}
		sets["buy_price"] = *params.BuyPrice
	}
	if params.ClearExpiryDate {
		sets["expiry_date"] = nil
	} else if params.ExpiryDate != nil {
		sets["expiry_date"] = *params.ExpiryDate
	}
	if params.RequiresPrescription != nil {
		sets["requires_prescription"] = *params.RequiresPrescription
	}
	if params.ClearSupplier {
		sets["supplier_id"] = nil
	} else if params.SupplierID != nil {
		exists, err := s.repo.SupplierExists(ctx, *params.SupplierID)
		if err != nil {
			return Product{}, err
		}
		if !exists {
			return Product{}, fmt.Errorf("%w: supplier %d", httpx.ErrNotFound, *params.SupplierID)
		}
		sets["supplier_id"] = *params.SupplierID
	}

	if err := s.repo.Update(ctx, id, sets); err != nil {
		return Product{}, err
	}

	if params.Stock != nil && *params.Stock != before.Stock && s.audit != nil {
		actor, _ := shared.IdentityFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "products:stock_edit",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"from": before.Stock, "to": *params.Stock},
		})
	}

	return s.repo.Get(ctx, id)
}

// Delete removes a product unless sales history references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", httpx.ErrValidation)
	}
	referenced, err := s.repo.ReferencedBySales(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: product appears in sales history", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
