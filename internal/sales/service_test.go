package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

type memoryRepo struct {
	products      map[int64]ProductSnapshot
	prescriptions map[int64]string
	transactions  map[int64]Transaction
	nextID        int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:      make(map[int64]ProductSnapshot),
		prescriptions: make(map[int64]string),
		transactions:  make(map[int64]Transaction),
	}
}

func (r *memoryRepo) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	var result []Transaction
	for _, trx := range r.transactions {
		result = append(result, trx)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Transaction, error) {
	trx, ok := r.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
	}
	return trx, nil
}

func (r *memoryRepo) Snapshot(ctx context.Context, productID int64) (ProductSnapshot, error) {
	snap, ok := r.products[productID]
	if !ok {
		return ProductSnapshot{}, fmt.Errorf("sales: product %d: %w", productID, httpx.ErrNotFound)
	}
	return snap, nil
}

func (r *memoryRepo) PrescriptionStatus(ctx context.Context, id int64) (string, error) {
	status, ok := r.prescriptions[id]
	if !ok {
		return "", fmt.Errorf("sales: prescription %d: %w", id, httpx.ErrNotFound)
	}
	return status, nil
}

// apply mirrors the all-or-nothing transaction: it verifies every
// movement first and mutates only when the whole set succeeds.
func (r *memoryRepo) apply(items []TransactionItem, prescriptionID *int64) error {
	for _, item := range items {
		snap := r.products[item.ProductID]
		if snap.Stock < item.Quantity {
			return fmt.Errorf("%w: %s", httpx.ErrInsufficientStock, item.ProductName)
		}
	}
	if prescriptionID != nil && r.prescriptions[*prescriptionID] != "active" {
		return fmt.Errorf("%w: prescription already used", httpx.ErrConflict)
	}
	for _, item := range items {
		snap := r.products[item.ProductID]
		snap.Stock -= item.Quantity
		r.products[item.ProductID] = snap
	}
	if prescriptionID != nil {
		r.prescriptions[*prescriptionID] = "used"
	}
	return nil
}

func (r *memoryRepo) restock(items []TransactionItem) {
	for _, item := range items {
		snap := r.products[item.ProductID]
		snap.Stock += item.Quantity
		r.products[item.ProductID] = snap
	}
}

func (r *memoryRepo) Create(ctx context.Context, trx Transaction, items []TransactionItem) (int64, error) {
	if err := r.apply(items, trx.PrescriptionID); err != nil {
		return 0, err
	}
	r.nextID++
	trx.ID = r.nextID
	trx.Items = items
	r.transactions[trx.ID] = trx
	return trx.ID, nil
}

func (r *memoryRepo) Replace(ctx context.Context, id int64, trx Transaction, items []TransactionItem) error {
	old, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
	}
	r.restock(old.Items)
	var newRx *int64
	if trx.PrescriptionID != nil && (old.PrescriptionID == nil || *old.PrescriptionID != *trx.PrescriptionID) {
		newRx = trx.PrescriptionID
	}
	if err := r.apply(items, newRx); err != nil {
		// undo the restock so the failed replace leaves stock as it was
		for _, item := range old.Items {
			snap := r.products[item.ProductID]
			snap.Stock -= item.Quantity
			r.products[item.ProductID] = snap
		}
		return err
	}
	trx.ID = id
	trx.Code = old.Code
	trx.CashierID = old.CashierID
	trx.Items = items
	r.transactions[id] = trx
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	trx, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("sales: id %d: %w", id, httpx.ErrNotFound)
	}
	r.restock(trx.Items)
	delete(r.transactions, id)
	return nil
}

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (s *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(s.keys, key)
	return nil
}

type countingMetrics struct {
	completed int
}

func (m *countingMetrics) SaleCompleted() { m.completed++ }

func cashierContext() context.Context {
	return shared.ContextWithIdentity(context.Background(), shared.Identity{
		UserID:   7,
		Username: "kasir1",
		Role:     "kasir",
	})
}

func seedCatalog(repo *memoryRepo) {
	repo.products[1] = ProductSnapshot{ID: 1, Name: "Paracetamol 500mg", Stock: 10, SellPrice: 12000, BuyPrice: 8000}
	repo.products[2] = ProductSnapshot{ID: 2, Name: "Vitamin C 1000mg", Stock: 5, SellPrice: 25000, BuyPrice: 15000}
	repo.products[3] = ProductSnapshot{ID: 3, Name: "Amoxicillin 500mg", Stock: 8, SellPrice: 30000, BuyPrice: 20000, RequiresPrescription: true}
}

func TestCreateDecrementsAndDeleteRestocks(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	metrics := &countingMetrics{}
	svc := NewService(repo, nil, metrics, nil)

	trx, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 3}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 7, repo.products[1].Stock)
	require.Equal(t, 1, metrics.completed)
	require.Equal(t, int64(7), trx.CashierID)
	require.Equal(t, 36000.0, trx.Subtotal)
	require.Equal(t, 36000.0, trx.Total)

	require.NoError(t, svc.Delete(cashierContext(), trx.ID))
	require.Equal(t, 10, repo.products[1].Stock)
}

func TestUpdateMatchesDeleteThenRecreate(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	trx, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 4}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, 6, repo.products[1].Stock)

	updated, err := svc.Update(cashierContext(), trx.ID, CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 8, repo.products[1].Stock)
	require.Equal(t, 4, repo.products[2].Stock)
	require.Equal(t, trx.Code, updated.Code)
	require.Equal(t, 49000.0, updated.Total)
}

func TestLineItemsFreezeCatalogPrices(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	trx, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 1}},
	}, "")
	require.NoError(t, err)

	snap := repo.products[1]
	snap.SellPrice = 99000
	snap.BuyPrice = 77000
	repo.products[1] = snap

	stored, err := svc.Get(cashierContext(), trx.ID)
	require.NoError(t, err)
	require.Equal(t, 12000.0, stored.Items[0].SellPrice)
	require.Equal(t, 8000.0, stored.Items[0].BuyPrice)
	require.Equal(t, "Paracetamol 500mg", stored.Items[0].ProductName)
}

func TestPercentageDiscount(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	trx, err := svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 2, Quantity: 4}},
		DiscountType:   DiscountPercentage,
		DiscountAmount: 10,
	}, "")
	require.NoError(t, err)
	require.Equal(t, 100000.0, trx.Subtotal)
	require.Equal(t, 90000.0, trx.Total)
}

func TestFixedDiscount(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	trx, err := svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 2, Quantity: 4}},
		DiscountType:   DiscountFixed,
		DiscountAmount: 15000,
	}, "")
	require.NoError(t, err)
	require.Equal(t, 85000.0, trx.Total)
}

func TestDiscountBounds(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 1, Quantity: 1}},
		DiscountType:   DiscountPercentage,
		DiscountAmount: 120,
	}, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 1, Quantity: 1}},
		DiscountType:   DiscountFixed,
		DiscountAmount: 1000000,
	}, "")
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, 10, repo.products[1].Stock)
}

func TestInsufficientStockAbortsWholeSale(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 6},
		},
	}, "")
	require.ErrorIs(t, err, httpx.ErrInsufficientStock)
	require.Equal(t, 10, repo.products[1].Stock)
	require.Equal(t, 5, repo.products[2].Stock)
	require.Empty(t, repo.transactions)
}

func TestIdempotencyKeyBlocksRetry(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	idem := newMemoryIdempotency()
	svc := NewService(repo, nil, nil, idem)

	params := CreateParams{Items: []ItemParams{{ProductID: 1, Quantity: 1}}}

	_, err := svc.Create(cashierContext(), params, "req-123")
	require.NoError(t, err)
	require.Equal(t, 9, repo.products[1].Stock)

	_, err = svc.Create(cashierContext(), params, "req-123")
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Equal(t, 9, repo.products[1].Stock)
}

type failingCreateRepo struct {
	*memoryRepo
}

func (r *failingCreateRepo) Create(ctx context.Context, trx Transaction, items []TransactionItem) (int64, error) {
	return 0, fmt.Errorf("sales: insert header: disk I/O error")
}

func TestFailedSaleReleasesIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	idem := newMemoryIdempotency()
	svc := NewService(&failingCreateRepo{memoryRepo: repo}, nil, nil, idem)

	_, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 1}},
	}, "req-999")
	require.Error(t, err)
	require.False(t, idem.keys["req-999"], "failed sale must release its key for retry")
}

func TestPrescriptionGatedProducts(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(cashierContext(), CreateParams{
		Items: []ItemParams{{ProductID: 3, Quantity: 1}},
	}, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	repo.prescriptions[42] = "active"
	rxID := int64(42)
	_, err = svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 3, Quantity: 1}},
		PrescriptionID: &rxID,
	}, "")
	require.NoError(t, err)
	require.Equal(t, "used", repo.prescriptions[42])

	_, err = svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 3, Quantity: 1}},
		PrescriptionID: &rxID,
	}, "")
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestUpdateKeepsOwnConsumedPrescription(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	repo.prescriptions[42] = "active"
	rxID := int64(42)
	trx, err := svc.Create(cashierContext(), CreateParams{
		Items:          []ItemParams{{ProductID: 3, Quantity: 1}},
		PrescriptionID: &rxID,
	}, "")
	require.NoError(t, err)
	require.Equal(t, "used", repo.prescriptions[42])

	updated, err := svc.Update(cashierContext(), trx.ID, CreateParams{
		Items:          []ItemParams{{ProductID: 3, Quantity: 2}},
		PrescriptionID: &rxID,
	})
	require.NoError(t, err)
	require.Equal(t, 6, repo.products[3].Stock)
	require.Equal(t, "used", repo.prescriptions[42])
	require.Equal(t, rxID, *updated.PrescriptionID)

	// swapping to a different, already consumed prescription still fails
	repo.prescriptions[43] = "used"
	otherID := int64(43)
	_, err = svc.Update(cashierContext(), trx.ID, CreateParams{
		Items:          []ItemParams{{ProductID: 3, Quantity: 1}},
		PrescriptionID: &otherID,
	})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestCreateRequiresIdentity(t *testing.T) {
	repo := newMemoryRepo()
	seedCatalog(repo)
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateParams{
		Items: []ItemParams{{ProductID: 1, Quantity: 1}},
	}, "")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}
