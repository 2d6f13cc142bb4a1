package payrolls

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

type memoryRepo struct {
	payrolls  map[int64]Payroll
	employees map[int64]string
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{payrolls: make(map[int64]Payroll), employees: make(map[int64]string)}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Payroll, int, error) {
	var result []Payroll
	for _, p := range r.payrolls {
		if filters.EmployeeID > 0 && p.EmployeeID != filters.EmployeeID {
			continue
		}
		if filters.Period != "" && p.Period != filters.Period {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Payroll, error) {
	p, ok := r.payrolls[id]
	if !ok {
		return Payroll{}, fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, params Params) (int64, error) {
	r.nextID++
	r.payrolls[r.nextID] = Payroll{
		ID:           r.nextID,
		EmployeeID:   params.EmployeeID,
		EmployeeName: r.employees[params.EmployeeID],
		Period:       params.Period,
		TotalPaid:    params.TotalPaid,
		PaidAt:       params.PaidAt,
		Notes:        params.Notes,
	}
	return r.nextID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, params Params) error {
	p, ok := r.payrolls[id]
	if !ok {
		return fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
	}
	p.EmployeeID = params.EmployeeID
	p.Period = params.Period
	p.TotalPaid = params.TotalPaid
	p.PaidAt = params.PaidAt
	p.Notes = params.Notes
	r.payrolls[id] = p
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.payrolls[id]; !ok {
		return fmt.Errorf("payrolls: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.payrolls, id)
	return nil
}

func (r *memoryRepo) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.employees[id]
	return ok, nil
}

func validParams() Params {
	return Params{
		EmployeeID: 1,
		Period:     "2026-08",
		TotalPaid:  5500000,
		PaidAt:     time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateRequiresExistingEmployee(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), validParams())
	require.ErrorIs(t, err, httpx.ErrNotFound)

	repo.employees[1] = "Siti Aminah"
	p, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	require.Equal(t, "Siti Aminah", p.EmployeeName)
}

func TestCreateValidatesPeriodFormat(t *testing.T) {
	repo := newMemoryRepo()
	repo.employees[1] = "Siti"
	svc := NewService(repo)

	for _, period := range []string{"2026", "08-2026", "2026-13", "agustus"} {
		params := validParams()
		params.Period = period
		_, err := svc.Create(context.Background(), params)
		require.ErrorIs(t, err, httpx.ErrValidation, "period %q", period)
	}
}

func TestListFiltersByEmployeeAndPeriod(t *testing.T) {
	repo := newMemoryRepo()
	repo.employees[1] = "Siti"
	repo.employees[2] = "Budi"
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)
	other := validParams()
	other.EmployeeID = 2
	other.Period = "2026-07"
	_, err = svc.Create(context.Background(), other)
	require.NoError(t, err)

	result, _, err := svc.List(context.Background(), ListFilters{EmployeeID: 2})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "2026-07", result[0].Period)
}
