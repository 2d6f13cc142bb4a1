package prescriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apotek-pos/apotek-pos/internal/platform/db"
	"github.com/apotek-pos/apotek-pos/internal/platform/httpx"
)

// Repository defines persistence operations for prescriptions.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Prescription, int, error)
	Get(ctx context.Context, id int64) (Prescription, error)
	Create(ctx context.Context, params HeaderParams, createdBy *int64, meds []MedicationParams) (int64, error)
	UpdateHeader(ctx context.Context, id int64, params HeaderParams) error
	ReplaceMedications(ctx context.Context, id int64, meds []MedicationParams) error
	MarkUsed(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	ReferencedByTransactions(ctx context.Context, id int64) (bool, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	conn *sqlx.DB
}

// NewRepository constructs the SQL repository.
func NewRepository(conn *sqlx.DB) Repository {
	return &repository{conn: conn}
}

const headerColumns = `id, doctor_name, patient_name, prescription_date, status, created_by, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Prescription, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		where += ` AND (doctor_name LIKE ? OR patient_name LIKE ?)`
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filters.Status != "" {
		where += ` AND status = ?`
		args = append(args, filters.Status)
	}
	if filters.From != nil {
		where += ` AND prescription_date >= ?`
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		where += ` AND prescription_date <= ?`
		args = append(args, *filters.To)
	}

	var total int
	if err := r.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM prescriptions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("prescriptions: count: %w", err)
	}

	query := `SELECT ` + headerColumns + ` FROM prescriptions` + where + ` ORDER BY prescription_date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset())

	var result []Prescription
	if err := r.conn.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, fmt.Errorf("prescriptions: list: %w", err)
	}
	return result, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Prescription, error) {
	var rx Prescription
	err := r.conn.GetContext(ctx, &rx, `SELECT `+headerColumns+` FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Prescription{}, fmt.Errorf("prescriptions: id %d: %w", id, httpx.ErrNotFound)
		}
		return Prescription{}, fmt.Errorf("prescriptions: get: %w", err)
	}
	if err := r.conn.SelectContext(ctx, &rx.Medications,
		`SELECT id, prescription_id, product_id, quantity, dosage, instructions FROM prescription_medications WHERE prescription_id = ? ORDER BY id`, id); err != nil {
		return Prescription{}, fmt.Errorf("prescriptions: medications: %w", err)
	}
	if rx.Medications == nil {
		rx.Medications = []Medication{}
	}
	return rx, nil
}

func (r *repository) Create(ctx context.Context, params HeaderParams, createdBy *int64, meds []MedicationParams) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO prescriptions (doctor_name, patient_name, prescription_date, status, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			params.DoctorName, params.PatientName, params.PrescriptionDate, StatusActive, createdBy, now, now)
		if err != nil {
			return fmt.Errorf("prescriptions: insert header: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("prescriptions: insert id: %w", err)
		}
		return insertMedications(ctx, tx, id, meds)
	})
	return id, err
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, params HeaderParams) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE prescriptions SET doctor_name = ?, patient_name = ?, prescription_date = ?, updated_at = ? WHERE id = ?`,
		params.DoctorName, params.PatientName, params.PrescriptionDate, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("prescriptions: update header: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("prescriptions: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// ReplaceMedications deletes all lines and reinserts the new set inside
// one transaction, so a failure mid-replace leaves the old set intact.
func (r *repository) ReplaceMedications(ctx context.Context, id int64, meds []MedicationParams) error {
	return db.WithTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM prescription_medications WHERE prescription_id = ?`, id); err != nil {
			return fmt.Errorf("prescriptions: clear medications: %w", err)
		}
		if err := insertMedications(ctx, tx, id, meds); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE prescriptions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
			return fmt.Errorf("prescriptions: touch header: %w", err)
		}
		return nil
	})
}

func insertMedications(ctx context.Context, tx *sqlx.Tx, id int64, meds []MedicationParams) error {
	for _, med := range meds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prescription_medications (prescription_id, product_id, quantity, dosage, instructions) VALUES (?, ?, ?, ?, ?)`,
			id, med.ProductID, med.Quantity, med.Dosage, med.Instructions); err != nil {
			return fmt.Errorf("prescriptions: insert medication: %w", err)
		}
	}
	return nil
}

// MarkUsed flips an active prescription to used. The condition on the
// current status makes the transition one-way even under races.
func (r *repository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE prescriptions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusUsed, time.Now().UTC(), id, StatusActive)
	if err != nil {
		return false, fmt.Errorf("prescriptions: mark used: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("prescriptions: delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("prescriptions: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *repository) ReferencedByTransactions(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM transactions WHERE prescription_id = ?`, id); err != nil {
		return false, fmt.Errorf("prescriptions: transaction check: %w", err)
	}
	return count > 0, nil
}

func (r *repository) ProductExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := r.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("prescriptions: product check: %w", err)
	}
	return count > 0, nil
}
