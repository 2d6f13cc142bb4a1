package reports

import "time"

// Range bounds a report query. Zero bounds mean unbounded.
type Range struct {
	From time.Time
	To   time.Time
}

// Summary aggregates completed sales over a range. HPP (harga pokok
// penjualan) is the cost of goods sold, computed from the buy prices
// frozen into the line items at sale time.
type Summary struct {
	Omzet            float64 `db:"omzet" json:"omzet"`
	HPP              float64 `db:"hpp" json:"hpp"`
	DiscountTotal    float64 `db:"discount_total" json:"discount_total"`
	TransactionCount int     `db:"transaction_count" json:"transaction_count"`
	GrossProfit      float64 `json:"gross_profit"`
}

// ProfitLoss extends the summary with operating costs.
type ProfitLoss struct {
	Summary
	ExpenseTotal float64 `json:"expense_total"`
	PayrollTotal float64 `json:"payroll_total"`
	NetProfit    float64 `json:"net_profit"`
}

// TopProduct is one row of the best-seller ranking.
type TopProduct struct {
	ProductID    int64   `db:"product_id" json:"product_id"`
	ProductName  string  `db:"product_name" json:"product_name"`
	QuantitySold int     `db:"quantity_sold" json:"quantity_sold"`
	Revenue      float64 `db:"revenue" json:"revenue"`
}

// Receivables is the outstanding balance of the collections ledger.
type Receivables struct {
	Collections float64 `json:"collections"`
	Payments    float64 `json:"payments"`
	Outstanding float64 `json:"outstanding"`
}

// ExportRow is one line of the sales export, one row per sold item.
type ExportRow struct {
	Code        string    `db:"code"`
	SoldAt      time.Time `db:"sold_at"`
	Cashier     string    `db:"cashier"`
	ProductName string    `db:"product_name"`
	Quantity    int       `db:"quantity"`
	SellPrice   float64   `db:"sell_price"`
	LineTotal   float64   `db:"line_total"`
	Total       float64   `db:"total"`
}
