package expenses

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Service wraps expense business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Expense, shared.Pagination, error) {
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

func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, params Params) (Expense, error) {
	if err := validate(&params); err != nil {
		return Expense{}, err
	}
	var createdBy *int64
	if identity, ok := shared.IdentityFromContext(ctx); ok {
		createdBy = &identity.UserID
	}
	id, err := s.repo.Create(ctx, params, createdBy)
	if err != nil {
		return Expense{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, params Params) (Expense, error) {
	if err := validate(&params); err != nil {
		return Expense{}, err
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return Expense{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validate(params *Params) error {
	params.Category = strings.TrimSpace(params.Category)
	params.Description = strings.TrimSpace(params.Description)
	if params.Category == "" {
		return fmt.Errorf("%w: category is required", httpx.ErrValidation)
	}
	if params.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if params.ExpenseDate.IsZero() {
		return fmt.Errorf("%w: expense date is required", httpx.ErrValidation)
	}
	return nil
}
