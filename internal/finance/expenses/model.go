package expenses

import "time"

// Expense is an operating cost entry.
type Expense struct {
	ID          int64     `db:"id" json:"id"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
	ExpenseDate time.Time `db:"expense_date" json:"expense_date"`
	CreatedBy   *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Params carries the writable expense fields.
type Params struct {
	Category    string
	Description string
	Amount      float64
	ExpenseDate time.Time
}

// ListFilters narrows expense listings.
type ListFilters struct {
	Page     int
	Limit    int
	Category string
	From     *time.Time
	To       *time.Time
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
