package expenses

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

type memoryRepo struct {
	expenses map[int64]Expense
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{expenses: make(map[int64]Expense)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	var result []Expense
	for _, e := range r.expenses {
		if filters.Category != "" && e.Category != filters.Category {
			continue
		}
		if filters.From != nil && e.ExpenseDate.Before(*filters.From) {
			continue
		}
		if filters.To != nil && e.ExpenseDate.After(*filters.To) {
			continue
		}
		result = append(result, e)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return Expense{}, fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
	}
	return e, nil
}

func (r *memoryRepo) Create(ctx context.Context, params Params, createdBy *int64) (int64, error) {
	r.nextID++
	r.expenses[r.nextID] = Expense{
		ID:          r.nextID,
		Category:    params.Category,
		Description: params.Description,
		Amount:      params.Amount,
		ExpenseDate: params.ExpenseDate,
		CreatedBy:   createdBy,
	}
	return r.nextID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, params Params) error {
	e, ok := r.expenses[id]
	if !ok {
		return fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
	}
	e.Category = params.Category
	e.Description = params.Description
	e.Amount = params.Amount
	e.ExpenseDate = params.ExpenseDate
	r.expenses[id] = e
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.expenses[id]; !ok {
		return fmt.Errorf("expenses: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.expenses, id)
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Params{Amount: 50000, ExpenseDate: time.Now()})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), Params{Category: "listrik", ExpenseDate: time.Now()})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), Params{Category: "listrik", Amount: 50000})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRecordsActor(t *testing.T) {
	svc := NewService(newMemoryRepo())

	ctx := shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 3, Username: "admin", Role: "admin"})
	e, err := svc.Create(ctx, Params{Category: "listrik", Amount: 450000, ExpenseDate: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, e.CreatedBy)
	require.Equal(t, int64(3), *e.CreatedBy)
}

func TestListFiltersByCategoryAndRange(t *testing.T) {
	svc := NewService(newMemoryRepo())

	july := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	august := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), Params{Category: "listrik", Amount: 450000, ExpenseDate: july})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Params{Category: "sewa", Amount: 2000000, ExpenseDate: august})
	require.NoError(t, err)

	result, _, err := svc.List(context.Background(), ListFilters{Category: "sewa"})
	require.NoError(t, err)
	require.Len(t, result, 1)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	result, _, err = svc.List(context.Background(), ListFilters{From: &from})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "sewa", result[0].Category)
}
