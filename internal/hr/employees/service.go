package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Service wraps employee business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Employee, shared.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = shared.DefaultPage
	}
	if filters.Limit < 1 {
		filters.Limit = shared.DefaultLimit
	}
	if filters.Status != "" && filters.Status != StatusActive && filters.Status != StatusInactive {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filters.Status)
	}
	result, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, params Params) (Employee, error) {
	if err := validate(&params); err != nil {
		return Employee{}, err
	}
	id, err := s.repo.Create(ctx, params)
	if err != nil {
		return Employee{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, params Params) (Employee, error) {
	if err := validate(&params); err != nil {
		return Employee{}, err
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return Employee{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an employee unless payroll history references them.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.PayrollCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: employee has %d payroll record(s)", httpx.ErrConflict, count)
	}
	return s.repo.Delete(ctx, id)
}

func validate(params *Params) error {
	params.Name = strings.TrimSpace(params.Name)
	params.Position = strings.TrimSpace(params.Position)
	if params.Name == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if params.BaseSalary < 0 || params.Bonus < 0 {
		return fmt.Errorf("%w: salary amounts cannot be negative", httpx.ErrValidation)
	}
	if params.Status == "" {
		params.Status = StatusActive
	}
	if params.Status != StatusActive && params.Status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, params.Status)
	}
	return nil
}
