package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// Service wraps ledger business rules for one kind.
type Service struct {
	kind Kind
	repo Repository
}

// NewService constructs a Service.
func NewService(kind Kind, repo Repository) *Service {
	return &Service{kind: kind, repo: repo}
}

// Kind reports which ledger this service manages.
func (s *Service) Kind() Kind {
	return s.kind
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Entry, shared.Pagination, error) {
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

func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, params Params) (Entry, error) {
	if err := validate(&params); err != nil {
		return Entry{}, err
	}
	id, err := s.repo.Create(ctx, params)
	if err != nil {
		return Entry{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, params Params) (Entry, error) {
	if err := validate(&params); err != nil {
		return Entry{}, err
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		return Entry{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validate(params *Params) error {
	params.Notes = strings.TrimSpace(params.Notes)
	if params.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if params.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry date is required", httpx.ErrValidation)
	}
	return nil
}
