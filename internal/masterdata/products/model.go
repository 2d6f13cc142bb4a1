package products

import "time"

// Product represents a sellable item in the catalogue.
type Product struct {
	ID                   int64      `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Category             string     `db:"category" json:"category"`
	Stock                int        `db:"stock" json:"stock"`
	MinStock             int        `db:"min_stock" json:"min_stock"`
	SellPrice            float64    `db:"sell_price" json:"sell_price"`
	BuyPrice             float64    `db:"buy_price" json:"buy_price"`
	ExpiryDate           *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	RequiresPrescription bool       `db:"requires_prescription" json:"requires_prescription"`
	SupplierID           *int64     `db:"supplier_id" json:"supplier_id,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// LowOnStock reports whether the product is at or below its minimum.
func (p Product) LowOnStock() bool {
	return p.Stock <= p.MinStock
}

// CreateParams carries the fields needed to create a product.
type CreateParams struct {
	Name                 string
	Category             string
	Stock                int
	MinStock             int
	SellPrice            float64
	BuyPrice             float64
	ExpiryDate           *time.Time
	RequiresPrescription bool
	SupplierID           *int64
}

// UpdateParams patches a product; nil fields are left untouched.
type UpdateParams struct {
	Name                 *string
	Category             *string
	Stock                *int
	MinStock             *int
	SellPrice            *float64
	BuyPrice             *float64
	ExpiryDate           *time.Time
	ClearExpiryDate      bool
	RequiresPrescription *bool
	SupplierID           *int64
	ClearSupplier        bool
}

// ListFilters narrows product listings.
type ListFilters struct {
	Page                 int
	Limit                int
	Search               string
	SortBy               string
	SortDir              string
	Category             string
	RequiresPrescription *bool
	InStock              *bool
	LowStock             *bool
	SupplierID           int64
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
