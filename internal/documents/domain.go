// Package documents implements the commercial document engine: sales orders,
// purchase orders, customer invoices, and vendor bills, their line-item
// tax/total computation, and the lifecycle state machine between them.
package documents

import (
	"time"
)

// DocType enumerates the four commercial document types.
type DocType string

const (
	DocTypeSalesOrder      DocType = "SALES_ORDER"
	DocTypePurchaseOrder   DocType = "PURCHASE_ORDER"
	DocTypeCustomerInvoice DocType = "CUSTOMER_INVOICE"
	DocTypeVendorBill      DocType = "VENDOR_BILL"
)

// SalesSide reports whether the document faces a customer.
func (t DocType) SalesSide() bool {
	return t == DocTypeSalesOrder || t == DocTypeCustomerInvoice
}

// Payable reports whether the document carries a balance that payments settle.
func (t DocType) Payable() bool {
	return t == DocTypeCustomerInvoice || t == DocTypeVendorBill
}

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeSalesOrder, DocTypePurchaseOrder, DocTypeCustomerInvoice, DocTypeVendorBill:
		return true
	}
	return false
}

// DocStatus enumerates lifecycle states. BILLED applies to purchase orders
// only and marks conversion into a vendor bill.
type DocStatus string

const (
	StatusDraft     DocStatus = "DRAFT"
	StatusConfirmed DocStatus = "CONFIRMED"
	StatusCancelled DocStatus = "CANCELLED"
	StatusBilled    DocStatus = "BILLED"
)

// Document is a sales order, purchase order, customer invoice, or vendor
// bill. Totals and AmountDue are derived from lines plus recorded payments
// and are recomputed before every persist; they are never hand-edited.
type Document struct {
	ID           int64      `json:"id"`
	Number       string     `json:"number"`
	DocType      DocType    `json:"doc_type"`
	PartnerID    int64      `json:"partner_id"`
	Status       DocStatus  `json:"status"`
	IssueDate    time.Time  `json:"issue_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	TotalUntaxed float64    `json:"total_untaxed"`
	TotalTax     float64    `json:"total_tax"`
	GrandTotal   float64    `json:"grand_total"`
	PaidCash     float64    `json:"paid_cash"`
	PaidBank     float64    `json:"paid_bank"`
	AmountDue    float64    `json:"amount_due"`
	SourceDocID  *int64     `json:"source_doc_id,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Lines        []Line     `json:"lines,omitempty"`
}

// Line is one product/amount entry within a document. Lines are exclusively
// owned by their parent and replaced wholesale on draft updates.
type Line struct {
	ID          int64   `json:"id"`
	DocumentID  int64   `json:"document_id"`
	ProductID   *int64  `json:"product_id,omitempty"`
	AccountID   *int64  `json:"account_id,omitempty"`
	HSNCode     *string `json:"hsn_code,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxID       *int64  `json:"tax_id,omitempty"`
	LineUntaxed float64 `json:"line_untaxed"`
	LineTax     float64 `json:"line_tax"`
	LineTotal   float64 `json:"line_total"`
	LineOrder   int     `json:"line_order"`
}

// CreateDocumentRequest creates a draft document.
type CreateDocumentRequest struct {
	DocType   DocType             `json:"doc_type" validate:"required"`
	PartnerID int64               `json:"partner_id" validate:"required,gt=0"`
	IssueDate time.Time           `json:"issue_date" validate:"required"`
	DueDate   *time.Time          `json:"due_date,omitempty"`
	Notes     *string             `json:"notes,omitempty"`
	Lines     []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateLineRequest describes one requested line. A nil UnitPrice defaults
// from the referenced product's sales or purchase price per document side.
type CreateLineRequest struct {
	ProductID   *int64   `json:"product_id,omitempty"`
	AccountID   *int64   `json:"account_id,omitempty"`
	HSNCode     *string  `json:"hsn_code,omitempty"`
	Description *string  `json:"description,omitempty"`
	Quantity    float64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	TaxID       *int64   `json:"tax_id,omitempty"`
	LineOrder   int      `json:"line_order" validate:"gte=0"`
}

// UpdateDocumentRequest mutates a draft document. Providing Lines replaces
// the whole list.
type UpdateDocumentRequest struct {
	IssueDate *time.Time           `json:"issue_date,omitempty"`
	DueDate   *time.Time           `json:"due_date,omitempty"`
	Notes     *string              `json:"notes,omitempty"`
	Lines     *[]CreateLineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// ListDocumentsRequest filters document listings.
type ListDocumentsRequest struct {
	DocType   DocType
	Status    DocStatus
	PartnerID int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Limit     int
	Offset    int
}
