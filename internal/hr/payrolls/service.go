package payrolls

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Service wraps payroll business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Payroll, shared.Pagination, error) {
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

func (s *Service) Get(ctx context.Context, id int64) (Payroll, error) {
	return s.repo.Get(ctx, id)
}

// Create records a payment; the referenced employee must exist.
func (s *Service) Create(ctx context.Context, params Params) (Payroll, error) {
	if err := s.validate(ctx, &params); err != nil {
		return Payroll{}, err
	}
	id, err := s.repo.Create(ctx, params)
	if err != nil {
		return Payroll{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, params Params) (Payroll, error) {
	if err := s.validate(ctx, &params); err != nil {
		return Payroll{}, err
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return Payroll{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, params *Params) error {
	params.Period = strings.TrimSpace(params.Period)
	if params.EmployeeID <= 0 {
		return fmt.Errorf("%w: employee id is required", httpx.ErrValidation)
	}
	if !periodPattern.MatchString(params.Period) {
		return fmt.Errorf("%w: period must be YYYY-MM", httpx.ErrValidation)
	}
	if params.TotalPaid < 0 {
		return fmt.Errorf("%w: total paid cannot be negative", httpx.ErrValidation)
	}
	if params.PaidAt.IsZero() {
		return fmt.Errorf("%w: paid date is required", httpx.ErrValidation)
	}
	exists, err := s.repo.EmployeeExists(ctx, params.EmployeeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("payrolls: employee %d: %w", params.EmployeeID, httpx.ErrNotFound)
	}
	return nil
}
