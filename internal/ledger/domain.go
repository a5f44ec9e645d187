// Package ledger builds the per-partner chronological ledger from confirmed
// invoices, bills, and payments. Rows are derived fresh on every query and
// never persisted.
package ledger

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Account labels for ledger rows.
const (
	AccountDebtors   = "Debtors A/c"
	AccountCreditors = "Creditors A/c"
)

// Entry is one derived ledger row. RunningBalance is populated only when
// the query selects a single partner.
type Entry struct {
	PartnerID      int64      `json:"partner_id"`
	PartnerName    string     `json:"partner_name"`
	Account        string     `json:"account"`
	Reference      string     `json:"reference"`
	EntryDate      time.Time  `json:"entry_date"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Amount         float64    `json:"amount"`
	RunningBalance *float64   `json:"running_balance,omitempty"`
}

// Filter narrows the ledger. Search matches partner name or reference
// number, case-insensitively.
type Filter struct {
	PartnerID int64
	Range     shared.DateRange
	Search    string
}
