package ledger

import "time"

// Kind selects which ledger table an entry lives in.
type Kind string

// Ledger kinds. Collections are money owed to the pharmacy, payments
// settle it.
const (
	KindCollections Kind = "collections"
	KindPayments    Kind = "payments"
)

// Entry is one dated amount in a ledger.
type Entry struct {
	ID        int64     `db:"id" json:"id"`
	EntryDate time.Time `db:"entry_date" json:"entry_date"`
	Amount    float64   `db:"amount" json:"amount"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Params carries the writable entry fields.
type Params struct {
	EntryDate time.Time
	Amount    float64
	Notes     string
}

// ListFilters narrows ledger listings.
type ListFilters struct {
	Page  int
	Limit int
	From  *time.Time
	To    *time.Time
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
