package prescriptions

import "time"

// Prescription statuses. The transition is strictly active -> used.
const (
	StatusActive = "active"
	StatusUsed   = "used"
)

// Prescription is a doctor's prescription gating the sale of regulated
// products.
type Prescription struct {
	ID               int64        `db:"id" json:"id"`
	DoctorName       string       `db:"doctor_name" json:"doctor_name"`
	PatientName      string       `db:"patient_name" json:"patient_name"`
	PrescriptionDate time.Time    `db:"prescription_date" json:"prescription_date"`
	Status           string       `db:"status" json:"status"`
	CreatedBy        *int64       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
	Medications      []Medication `json:"medications"`
}

// Medication is a prescription line item.
type Medication struct {
	ID             int64  `db:"id" json:"id"`
	PrescriptionID int64  `db:"prescription_id" json:"prescription_id"`
	ProductID      int64  `db:"product_id" json:"product_id"`
	Quantity       int    `db:"quantity" json:"quantity"`
	Dosage         string `db:"dosage" json:"dosage"`
	Instructions   string `db:"instructions" json:"instructions"`
}

// HeaderParams carries the editable prescription header fields.
type HeaderParams struct {
	DoctorName       string
	PatientName      string
	PrescriptionDate time.Time
}

// MedicationParams is one line of a wholesale medication replace.
type MedicationParams struct {
	ProductID    int64
	Quantity     int
	Dosage       string
	Instructions string
}

// ListFilters narrows prescription listings.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
	Status string
	From   *time.Time
	To     *time.Time
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
