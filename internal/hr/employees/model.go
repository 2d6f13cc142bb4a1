package employees

import "time"

// Employee statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Employee is a pharmacy staff record used by payroll.
type Employee struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Position   string     `db:"position" json:"position"`
	BaseSalary float64    `db:"base_salary" json:"base_salary"`
	Bonus      float64    `db:"bonus" json:"bonus"`
	StartDate  *time.Time `db:"start_date" json:"start_date,omitempty"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Params carries the writable employee fields.
type Params struct {
	Name       string
	Position   string
	BaseSalary float64
	Bonus      float64
	StartDate  *time.Time
	Status     string
}

// ListFilters narrows employee listings.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
	Status string
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
