package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Service wraps supplier business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns suppliers with pagination metadata.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, shared.Pagination, error) {
	result, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

// Get fetches a single supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create stores a new supplier.
func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := validate(supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

// Update replaces the supplier contact fields.
func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier id", httpx.ErrValidation)
	}
	if err := validate(supplier); err != nil {
		return Supplier{}, err
	}
	if err := s.repo.Update(ctx, id, supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a supplier unless products still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid supplier id", httpx.ErrValidation)
	}
	count, err := s.repo.ProductCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: supplier is referenced by %d product(s)", httpx.ErrConflict, count)
	}
	return s.repo.Delete(ctx, id)
}

func validate(supplier Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", httpx.ErrValidation)
	}
	return nil
}
