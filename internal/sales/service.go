package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts completed sales.
type MetricsPort interface {
	SaleCompleted()
}

// IdempotencyPort guards stock-mutating requests against client retry.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "sales"

var paymentMethods = map[string]bool{
	"cash":     true,
	"debit":    true,
	"credit":   true,
	"transfer": true,
	"qris":     true,
}

// Service implements the checkout workflow.
type Service struct {
	repo        Repository
	audit       AuditPort
	metrics     MetricsPort
	idempotency IdempotencyPort
}

// NewService constructs the sales service. audit, metrics and
// idempotency may be nil in tests.
func NewService(repo Repository, audit AuditPort, metrics MetricsPort, idempotency IdempotencyPort) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, idempotency: idempotency}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	if filters.Page < 1 {
		filters.Page = shared.DefaultPage
	}
	if filters.Limit < 1 {
		filters.Limit = shared.DefaultLimit
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// Create runs a checkout. With an idempotency key, a retried request
// returns a conflict instead of decrementing stock twice; the key is
// released again when the sale itself fails.
func (s *Service) Create(ctx context.Context, params CreateParams, idempotencyKey string) (Transaction, error) {
	identity, ok := shared.IdentityFromContext(ctx)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: missing identity", httpx.ErrUnauthorized)
	}

	trx, items, err := s.build(ctx, params, nil)
	if err != nil {
		return Transaction{}, err
	}
	trx.CashierID = identity.UserID
	trx.Code = newCode()

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Transaction{}, fmt.Errorf("%w: duplicate checkout request", httpx.ErrConflict)
			}
			return Transaction{}, err
		}
	}

	id, err := s.repo.Create(ctx, trx, items)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Transaction{}, err
	}

	if s.metrics != nil {
		s.metrics.SaleCompleted()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  identity.UserID,
			Action:   "sales:create",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"code": trx.Code, "total": trx.Total},
		})
	}
	return s.repo.Get(ctx, id)
}

// Update rewrites a sale with delete-then-recreate semantics for stock:
// the old lines restock and the new lines decrement atomically.
func (s *Service) Update(ctx context.Context, id int64, params CreateParams) (Transaction, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	trx, items, err := s.build(ctx, params, existing.PrescriptionID)
	if err != nil {
		return Transaction{}, err
	}
	if err := s.repo.Replace(ctx, id, trx, items); err != nil {
		return Transaction{}, err
	}
	if s.audit != nil {
		actor, _ := shared.IdentityFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "sales:update",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return s.repo.Get(ctx, id)
}

// Delete voids a sale and returns every sold quantity to stock.
func (s *Service) Delete(ctx context.Context, id int64) error {
	trx, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		actor, _ := shared.IdentityFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "sales:delete",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"code": trx.Code},
		})
	}
	return nil
}

// build validates the request, snapshots catalog prices into line items
// and computes the totals server-side. currentRx is the prescription the
// sale being edited already holds; that reference stays acceptable even
// though the original checkout marked it used.
func (s *Service) build(ctx context.Context, params CreateParams, currentRx *int64) (Transaction, []TransactionItem, error) {
	if len(params.Items) == 0 {
		return Transaction{}, nil, fmt.Errorf("%w: at least one item is required", httpx.ErrValidation)
	}

	method := strings.TrimSpace(params.PaymentMethod)
	if method == "" {
		method = "cash"
	}
	if !paymentMethods[method] {
		return Transaction{}, nil, fmt.Errorf("%w: unknown payment method %q", httpx.ErrValidation, method)
	}

	seen := make(map[int64]bool, len(params.Items))
	items := make([]TransactionItem, 0, len(params.Items))
	subtotal := 0.0
	needsPrescription := false
	for i, line := range params.Items {
		if line.ProductID <= 0 {
			return Transaction{}, nil, fmt.Errorf("%w: item %d: product id is required", httpx.ErrValidation, i+1)
		}
		if line.Quantity <= 0 {
			return Transaction{}, nil, fmt.Errorf("%w: item %d: quantity must be positive", httpx.ErrValidation, i+1)
		}
		if seen[line.ProductID] {
			return Transaction{}, nil, fmt.Errorf("%w: item %d: duplicate product", httpx.ErrValidation, i+1)
		}
		seen[line.ProductID] = true

		snap, err := s.repo.Snapshot(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return Transaction{}, nil, fmt.Errorf("%w: item %d: product %d does not exist", httpx.ErrValidation, i+1, line.ProductID)
			}
			return Transaction{}, nil, err
		}
		if snap.Stock < line.Quantity {
			return Transaction{}, nil, fmt.Errorf("%w: %s", httpx.ErrInsufficientStock, snap.Name)
		}
		if snap.RequiresPrescription {
			needsPrescription = true
		}

		lineTotal := round2(snap.SellPrice * float64(line.Quantity))
		subtotal += lineTotal
		items = append(items, TransactionItem{
			ProductID:   snap.ID,
			ProductName: snap.Name,
			Quantity:    line.Quantity,
			SellPrice:   snap.SellPrice,
			BuyPrice:    snap.BuyPrice,
			LineTotal:   lineTotal,
		})
	}
	subtotal = round2(subtotal)

	if needsPrescription && params.PrescriptionID == nil {
		return Transaction{}, nil, fmt.Errorf("%w: cart contains prescription-only products", httpx.ErrValidation)
	}
	if params.PrescriptionID != nil && (currentRx == nil || *currentRx != *params.PrescriptionID) {
		status, err := s.repo.PrescriptionStatus(ctx, *params.PrescriptionID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return Transaction{}, nil, fmt.Errorf("%w: prescription %d does not exist", httpx.ErrValidation, *params.PrescriptionID)
			}
			return Transaction{}, nil, err
		}
		if status != "active" {
			return Transaction{}, nil, fmt.Errorf("%w: prescription already used", httpx.ErrConflict)
		}
	}

	discountType := params.DiscountType
	if discountType == "" {
		discountType = DiscountFixed
	}
	total, err := applyDiscount(subtotal, discountType, params.DiscountAmount)
	if err != nil {
		return Transaction{}, nil, err
	}

	return Transaction{
		Subtotal:       subtotal,
		DiscountAmount: params.DiscountAmount,
		DiscountType:   discountType,
		Total:          total,
		PaymentMethod:  method,
		PrescriptionID: params.PrescriptionID,
		Status:         StatusCompleted,
	}, items, nil
}

// applyDiscount computes the payable total. Percentage discounts take
// 0..100 of the subtotal; fixed discounts may not exceed it.
func applyDiscount(subtotal float64, discountType string, amount float64) (float64, error) {
	switch discountType {
	case DiscountPercentage:
		if amount < 0 || amount > 100 {
			return 0, fmt.Errorf("%w: percentage discount must be between 0 and 100", httpx.ErrValidation)
		}
		return round2(subtotal * (1 - amount/100)), nil
	case DiscountFixed:
		if amount < 0 || amount > subtotal {
			return 0, fmt.Errorf("%w: fixed discount must be between 0 and the subtotal", httpx.ErrValidation)
		}
		return round2(subtotal - amount), nil
	default:
		return 0, fmt.Errorf("%w: unknown discount type %q", httpx.ErrValidation, discountType)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newCode() string {
	return fmt.Sprintf("TRX-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
