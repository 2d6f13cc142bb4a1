package sales

import "time"

// Discount types accepted on a transaction.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// StatusCompleted is the only terminal state a stored sale carries;
// failed workflows never persist a row.
const StatusCompleted = "completed"

// Transaction is a completed point-of-sale checkout.
type Transaction struct {
	ID             int64             `db:"id" json:"id"`
	Code           string            `db:"code" json:"code"`
	CashierID      int64             `db:"cashier_id" json:"cashier_id"`
	Subtotal       float64           `db:"subtotal" json:"subtotal"`
	DiscountAmount float64           `db:"discount_amount" json:"discount_amount"`
	DiscountType   string            `db:"discount_type" json:"discount_type"`
	Total          float64           `db:"total" json:"total"`
	PaymentMethod  string            `db:"payment_method" json:"payment_method"`
	PrescriptionID *int64            `db:"prescription_id" json:"prescription_id,omitempty"`
	Status         string            `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	Items          []TransactionItem `json:"items"`
}

// TransactionItem is one sold line. Name and both prices are frozen at
// sale time so later product edits cannot rewrite historical margins.
type TransactionItem struct {
	ID            int64   `db:"id" json:"id"`
	TransactionID int64   `db:"transaction_id" json:"transaction_id"`
	ProductID     int64   `db:"product_id" json:"product_id"`
	ProductName   string  `db:"product_name" json:"product_name"`
	Quantity      int     `db:"quantity" json:"quantity"`
	SellPrice     float64 `db:"sell_price" json:"sell_price"`
	BuyPrice      float64 `db:"buy_price" json:"buy_price"`
	LineTotal     float64 `db:"line_total" json:"line_total"`
}

// ItemParams is one requested line of a checkout. Prices come from the
// catalog, never from the client.
type ItemParams struct {
	ProductID int64
	Quantity  int
}

// CreateParams carries a checkout request.
type CreateParams struct {
	Items          []ItemParams
	DiscountType   string
	DiscountAmount float64
	PaymentMethod  string
	PrescriptionID *int64
}

// ProductSnapshot is the catalog state a sale line is priced from.
type ProductSnapshot struct {
	ID                   int64   `db:"id"`
	Name                 string  `db:"name"`
	Stock                int     `db:"stock"`
	SellPrice            float64 `db:"sell_price"`
	BuyPrice             float64 `db:"buy_price"`
	RequiresPrescription bool    `db:"requires_prescription"`
}

// ListFilters narrows transaction listings.
type ListFilters struct {
	Page      int
	Limit     int
	Search    string
	CashierID int64
	From      *time.Time
	To        *time.Time
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
