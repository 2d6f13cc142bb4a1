package payrolls

import "time"

// Payroll is one salary payment to an employee for a period.
type Payroll struct {
	ID           int64     `db:"id" json:"id"`
	EmployeeID   int64     `db:"employee_id" json:"employee_id"`
	EmployeeName string    `db:"employee_name" json:"employee_name"`
	Period       string    `db:"period" json:"period"`
	TotalPaid    float64   `db:"total_paid" json:"total_paid"`
	PaidAt       time.Time `db:"paid_at" json:"paid_at"`
	Notes        string    `db:"notes" json:"notes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Params carries the writable payroll fields.
type Params struct {
	EmployeeID int64
	Period     string
	TotalPaid  float64
	PaidAt     time.Time
	Notes      string
}

// ListFilters narrows payroll listings.
type ListFilters struct {
	Page       int
	Limit      int
	EmployeeID int64
	Period     string
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
