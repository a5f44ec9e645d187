package ledger

import (
	"context"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/search"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/payments"
)

// Service assembles partner ledgers.
type Service struct {
	repo Repository
}

// NewService constructs a ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PartnerLedger builds the ledger rows for the filter. Confirmed invoices
// and bills enter with a positive sign; settling payments enter negative,
// refund-direction payments positive. Rows sort by date ascending with
// reference-number ties broken lexicographically. A running balance is
// carried only when the filter names a single partner.
func (s *Service) PartnerLedger(ctx context.Context, f Filter) ([]Entry, error) {
	docs, err := s.repo.ConfirmedDocuments(ctx, f.PartnerID, f.Range)
	if err != nil {
		return nil, err
	}
	pays, err := s.repo.ConfirmedPayments(ctx, f.PartnerID, f.Range)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs)+len(pays))
	for _, d := range docs {
		account := AccountDebtors
		if d.DocType == documents.DocTypeVendorBill {
			account = AccountCreditors
		}
		entries = append(entries, Entry{
			PartnerID:   d.PartnerID,
			PartnerName: d.PartnerName,
			Account:     account,
			Reference:   d.Number,
			EntryDate:   d.IssueDate,
			DueDate:     d.DueDate,
			Amount:      d.GrandTotal,
		})
	}
	for _, p := range pays {
		entries = append(entries, paymentEntry(p))
	}

	if f.Search != "" {
		// Case- and accent-folded substring match on name or reference.
		matcher := search.New(language.English, search.Loose)
		contains := func(haystack string) bool {
			start, _ := matcher.IndexString(haystack, f.Search)
			return start >= 0
		}
		filtered := entries[:0]
		for _, e := range entries {
			if contains(e.PartnerName) || contains(e.Reference) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].Reference < entries[j].Reference
	})

	if f.PartnerID != 0 {
		balance := 0.0
		for i := range entries {
			balance += entries[i].Amount
			b := balance
			entries[i].RunningBalance = &b
		}
	}
	return entries, nil
}

// paymentEntry signs a payment row: a payment in the partner's settling
// direction reduces the balance, the reverse direction increases it.
func paymentEntry(p PaymentRow) Entry {
	account := AccountDebtors
	settling := p.Direction == payments.DirectionReceive
	if p.PartnerKind == masterdata.PartnerKindVendor {
		account = AccountCreditors
		settling = p.Direction == payments.DirectionSend
	}
	amount := p.Amount
	if settling {
		amount = -amount
	}
	return Entry{
		PartnerID:   p.PartnerID,
		PartnerName: p.PartnerName,
		Account:     account,
		Reference:   p.Number,
		EntryDate:   p.PaymentDate,
		Amount:      amount,
	}
}
