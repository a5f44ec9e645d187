// Package masterdata holds the reference records the document engine reads:
// products, partners, taxes, and the chart of accounts.
package masterdata

import (
	"time"
)

// TaxMethod enumerates how a tax amount is derived from a line.
type TaxMethod string

const (
	// TaxMethodPercentage scales the rate by the line's untaxed amount.
	TaxMethodPercentage TaxMethod = "PERCENTAGE"
	// TaxMethodFixed applies the rate once per line, regardless of quantity.
	TaxMethodFixed TaxMethod = "FIXED"
)

// PartnerKind distinguishes customers from vendors.
type PartnerKind string

const (
	PartnerKindCustomer PartnerKind = "CUSTOMER"
	PartnerKindVendor   PartnerKind = "VENDOR"
)

// AccountType buckets accounts for reporting.
type AccountType string

const (
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
)

// Product is a sellable or purchasable item.
type Product struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	SalesPrice       float64   `json:"sales_price"`
	PurchasePrice    float64   `json:"purchase_price"`
	HSNCode          *string   `json:"hsn_code,omitempty"`
	TaxID            *int64    `json:"tax_id,omitempty"`
	IncomeAccountID  *int64    `json:"income_account_id,omitempty"`
	ExpenseAccountID *int64    `json:"expense_account_id,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Partner is a customer or vendor counterparty.
type Partner struct {
	ID        int64       `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Kind      PartnerKind `json:"kind"`
	Email     *string     `json:"email,omitempty"`
	Phone     *string     `json:"phone,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Tax is a configured tax rate.
type Tax struct {
	ID     int64     `json:"id"`
	Name   string    `json:"name"`
	Method TaxMethod `json:"method"`
	Rate   float64   `json:"rate"`
}

// Account is one entry in the chart of accounts.
type Account struct {
	ID   int64       `json:"id"`
	Code string      `json:"code"`
	Name string      `json:"name"`
	Type AccountType `json:"type"`
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Code             string  `json:"code" validate:"required,max=50"`
	Name             string  `json:"name" validate:"required,max=200"`
	SalesPrice       float64 `json:"sales_price" validate:"gte=0"`
	PurchasePrice    float64 `json:"purchase_price" validate:"gte=0"`
	HSNCode          *string `json:"hsn_code,omitempty" validate:"omitempty,max=20"`
	TaxID            *int64  `json:"tax_id,omitempty"`
	IncomeAccountID  *int64  `json:"income_account_id,omitempty"`
	ExpenseAccountID *int64  `json:"expense_account_id,omitempty"`
}

// CreatePartnerRequest creates a partner.
type CreatePartnerRequest struct {
	Code  string      `json:"code" validate:"required,max=50"`
	Name  string      `json:"name" validate:"required,max=200"`
	Kind  PartnerKind `json:"kind" validate:"required,oneof=CUSTOMER VENDOR"`
	Email *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// CreateTaxRequest creates a tax.
type CreateTaxRequest struct {
	Name   string    `json:"name" validate:"required,max=100"`
	Method TaxMethod `json:"method" validate:"required,oneof=PERCENTAGE FIXED"`
	Rate   float64   `json:"rate" validate:"gte=0"`
}

// CreateAccountRequest creates a chart-of-accounts entry.
type CreateAccountRequest struct {
	Code string      `json:"code" validate:"required,max=20"`
	Name string      `json:"name" validate:"required,max=200"`
	Type AccountType `json:"type" validate:"required,oneof=INCOME EXPENSE ASSET LIABILITY"`
}
