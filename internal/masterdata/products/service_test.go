package products

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
	products  map[int64]Product
	suppliers map[int64]bool
	inSales   map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:  make(map[int64]Product),
		suppliers: make(map[int64]bool),
		inSales:   make(map[int64]bool),
	}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var result []Product
	for _, p := range r.products {
		if filters.LowStock != nil && *filters.LowStock && !p.LowOnStock() {
			continue
		}
		if filters.RequiresPrescription != nil && p.RequiresPrescription != *filters.RequiresPrescription {
			continue
		}
		if filters.InStock != nil && *filters.InStock != (p.Stock > 0) {
			continue
		}
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, params CreateParams) (Product, error) {
	r.nextID++
	p := Product{
		ID:                   r.nextID,
		Name:                 params.Name,
		Category:             params.Category,
		Stock:                params.Stock,
		MinStock:             params.MinStock,
		SellPrice:            params.SellPrice,
		BuyPrice:             params.BuyPrice,
		ExpiryDate:           params.ExpiryDate,
		RequiresPrescription: params.RequiresPrescription,
		SupplierID:           params.SupplierID,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, sets map[string]any) error {
	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
	}
	if v, ok := sets["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := sets["stock"]; ok {
		p.Stock = v.(int)
	}
	if v, ok := sets["min_stock"]; ok {
		p.MinStock = v.(int)
	}
	if v, ok := sets["sell_price"]; ok {
		p.SellPrice = v.(float64)
	}
	if v, ok := sets["buy_price"]; ok {
		p.BuyPrice = v.(float64)
	}
	r.products[id] = p
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("products: id %d: %w", id, httpx.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.suppliers[id], nil
}

func (r *memoryRepo) ReferencedBySales(ctx context.Context, id int64) (bool, error) {
	return r.inSales[id], nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: ""})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, CreateParams{Name: "Paracetamol", Stock: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, CreateParams{Name: "Paracetamol", SellPrice: -5})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateUnknownSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	supplierID := int64(42)

	_, err := svc.Create(context.Background(), CreateParams{Name: "Amoxicillin", SupplierID: &supplierID})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDirectStockEditIsAudited(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit)
	ctx := shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 1, Role: "admin"})

	p, err := svc.Create(ctx, CreateParams{Name: "Paracetamol", Stock: 10})
	require.NoError(t, err)

	newStock := 25
	updated, err := svc.Update(ctx, p.ID, UpdateParams{Stock: &newStock})
	require.NoError(t, err)
	require.Equal(t, 25, updated.Stock)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "products:stock_edit", audit.logs[0].Action)
	require.Equal(t, int64(1), audit.logs[0].ActorID)
}

func TestDeleteGuardedBySalesHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateParams{Name: "OBH Combi", Stock: 5})
	require.NoError(t, err)

	repo.inSales[p.ID] = true
	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	repo.inSales[p.ID] = false
	require.NoError(t, svc.Delete(ctx, p.ID))
}

func TestLowStockFilter(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: "A", Stock: 2, MinStock: 5})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{Name: "B", Stock: 50, MinStock: 5})
	require.NoError(t, err)

	low := true
	result, _, err := svc.List(ctx, ListFilters{Page: 1, Limit: 10, LowStock: &low})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "A", result[0].Name)
}
