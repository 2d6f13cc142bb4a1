package employees

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

type memoryRepo struct {
	employees map[int64]Employee
	payrolls  map[int64]int
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{employees: make(map[int64]Employee), payrolls: make(map[int64]int)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Employee, int, error) {
	var result []Employee
	for _, e := range r.employees {
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		result = append(result, e)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
	}
	return e, nil
}

func (r *memoryRepo) Create(ctx context.Context, params Params) (int64, error) {
	r.nextID++
	r.employees[r.nextID] = Employee{
		ID:         r.nextID,
		Name:       params.Name,
		Position:   params.Position,
		BaseSalary: params.BaseSalary,
		Bonus:      params.Bonus,
		StartDate:  params.StartDate,
		Status:     params.Status,
	}
	return r.nextID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, params Params) error {
	e, ok := r.employees[id]
	if !ok {
		return fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
	}
	e.Name = params.Name
	e.Position = params.Position
	e.BaseSalary = params.BaseSalary
	e.Bonus = params.Bonus
	e.StartDate = params.StartDate
	e.Status = params.Status
	r.employees[id] = e
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.employees[id]; !ok {
		return fmt.Errorf("employees: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.employees, id)
	return nil
}

func (r *memoryRepo) PayrollCount(ctx context.Context, id int64) (int, error) {
	return r.payrolls[id], nil
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc := NewService(newMemoryRepo())

	e, err := svc.Create(context.Background(), Params{Name: "Siti Aminah", Position: "Apoteker", BaseSalary: 5000000})
	require.NoError(t, err)
	require.Equal(t, StatusActive, e.Status)
}

func TestCreateRejectsNegativeSalary(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Params{Name: "Siti", BaseSalary: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteGuardedByPayrollHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	e, err := svc.Create(context.Background(), Params{Name: "Siti Aminah"})
	require.NoError(t, err)

	repo.payrolls[e.ID] = 2
	err = svc.Delete(context.Background(), e.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	repo.payrolls[e.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), e.ID))
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), Params{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Params{Name: "B", Status: StatusInactive})
	require.NoError(t, err)

	result, _, err := svc.List(context.Background(), ListFilters{Status: StatusInactive})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "B", result[0].Name)

	_, _, err = svc.List(context.Background(), ListFilters{Status: "fired"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
