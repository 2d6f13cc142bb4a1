package prescriptions

import (
	"context"
	"fmt"
	"strings"

	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements prescription business rules.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService constructs the prescriptions service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Prescription, int, error) {
	if filters.Page < 1 {
		filters.Page = shared.DefaultPage
	}
	if filters.Limit < 1 {
		filters.Limit = shared.DefaultLimit
	}
	if filters.Status != "" && filters.Status != StatusActive && filters.Status != StatusUsed {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filters.Status)
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Prescription, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, params HeaderParams, meds []MedicationParams) (Prescription, error) {
	if err := s.validateHeader(&params); err != nil {
		return Prescription{}, err
	}
	if err := s.validateMedications(ctx, meds); err != nil {
		return Prescription{}, err
	}

	var createdBy *int64
	if identity, ok := shared.IdentityFromContext(ctx); ok {
		createdBy = &identity.UserID
	}

	id, err := s.repo.Create(ctx, params, createdBy, meds)
	if err != nil {
		return Prescription{}, err
	}
	return s.repo.Get(ctx, id)
}

// Update rewrites the header of an active prescription. Used
// prescriptions are frozen.
func (s *Service) Update(ctx context.Context, id int64, params HeaderParams) (Prescription, error) {
	if err := s.validateHeader(&params); err != nil {
		return Prescription{}, err
	}
	if err := s.requireActive(ctx, id); err != nil {
		return Prescription{}, err
	}
	if err := s.repo.UpdateHeader(ctx, id, params); err != nil {
		return Prescription{}, err
	}
	return s.repo.Get(ctx, id)
}

// ReplaceMedications swaps the full medication list of an active
// prescription.
func (s *Service) ReplaceMedications(ctx context.Context, id int64, meds []MedicationParams) (Prescription, error) {
	if err := s.validateMedications(ctx, meds); err != nil {
		return Prescription{}, err
	}
	if err := s.requireActive(ctx, id); err != nil {
		return Prescription{}, err
	}
	if err := s.repo.ReplaceMedications(ctx, id, meds); err != nil {
		return Prescription{}, err
	}
	return s.repo.Get(ctx, id)
}

// MarkUsed transitions the prescription to used. Already-used
// prescriptions yield a conflict, never a silent no-op.
func (s *Service) MarkUsed(ctx context.Context, id int64) (Prescription, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Prescription{}, err
	}
	done, err := s.repo.MarkUsed(ctx, id)
	if err != nil {
		return Prescription{}, err
	}
	if !done {
		return Prescription{}, fmt.Errorf("%w: prescription already used", httpx.ErrConflict)
	}
	if s.audit != nil {
		actor, _ := shared.IdentityFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.UserID,
			Action:   "prescriptions:mark_used",
			Entity:   "prescription",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a prescription unless a transaction references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	referenced, err := s.repo.ReferencedByTransactions(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: prescription is referenced by a transaction", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireActive(ctx context.Context, id int64) error {
	rx, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rx.Status != StatusActive {
		return fmt.Errorf("%w: prescription already used", httpx.ErrConflict)
	}
	return nil
}

func (s *Service) validateHeader(params *HeaderParams) error {
	params.DoctorName = strings.TrimSpace(params.DoctorName)
	params.PatientName = strings.TrimSpace(params.PatientName)
	if params.DoctorName == "" {
		return fmt.Errorf("%w: doctor name is required", httpx.ErrValidation)
	}
	if params.PatientName == "" {
		return fmt.Errorf("%w: patient name is required", httpx.ErrValidation)
	}
	if params.PrescriptionDate.IsZero() {
		return fmt.Errorf("%w: prescription date is required", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) validateMedications(ctx context.Context, meds []MedicationParams) error {
	if len(meds) == 0 {
		return fmt.Errorf("%w: at least one medication is required", httpx.ErrValidation)
	}
	for i, med := range meds {
		if med.ProductID <= 0 {
			return fmt.Errorf("%w: medication %d: product id is required", httpx.ErrValidation, i+1)
		}
		if med.Quantity <= 0 {
			return fmt.Errorf("%w: medication %d: quantity must be positive", httpx.ErrValidation, i+1)
		}
		exists, err := s.repo.ProductExists(ctx, med.ProductID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: medication %d: product %d does not exist", httpx.ErrValidation, i+1, med.ProductID)
		}
	}
	return nil
}
