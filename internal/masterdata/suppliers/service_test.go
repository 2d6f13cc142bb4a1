package suppliers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

type memoryRepo struct {
	suppliers     map[int64]Supplier
	productCounts map[int64]int
	nextID        int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: make(map[int64]Supplier), productCounts: make(map[int64]int)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var result []Supplier
	for _, s := range r.suppliers {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
	}
	return s, nil
}

func (r *memoryRepo) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	r.nextID++
	supplier.ID = r.nextID
	r.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, supplier Supplier) error {
	if _, ok := r.suppliers[id]; !ok {
		return fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
	}
	supplier.ID = id
	r.suppliers[id] = supplier
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.suppliers[id]; !ok {
		return fmt.Errorf("suppliers: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memoryRepo) ProductCount(ctx context.Context, id int64) (int, error) {
	return r.productCounts[id], nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Supplier{Name: "  "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeleteGuardedByProductReferences(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	s, err := svc.Create(ctx, Supplier{Name: "PT Kimia Farma"})
	require.NoError(t, err)

	repo.productCounts[s.ID] = 3
	err = svc.Delete(ctx, s.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	// Row persists after the rejected delete.
	_, err = svc.Get(ctx, s.ID)
	require.NoError(t, err)

	repo.productCounts[s.ID] = 0
	require.NoError(t, svc.Delete(ctx, s.ID))
	_, err = svc.Get(ctx, s.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
