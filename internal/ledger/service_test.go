package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	docs []DocumentRow
	pays []PaymentRow
}

func (m *memoryRepo) ConfirmedDocuments(_ context.Context, partnerID int64, rng shared.DateRange) ([]DocumentRow, error) {
	var out []DocumentRow
	for _, d := range m.docs {
		if partnerID != 0 && d.PartnerID != partnerID {
			continue
		}
		if !rng.Contains(d.IssueDate) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryRepo) ConfirmedPayments(_ context.Context, partnerID int64, rng shared.DateRange) ([]PaymentRow, error) {
	var out []PaymentRow
	for _, p := range m.pays {
		if partnerID != 0 && p.PartnerID != partnerID {
			continue
		}
		if !rng.Contains(p.PaymentDate) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

var _ Repository = (*memoryRepo)(nil)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestSinglePartnerRunningBalance(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00001", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 1000},
		},
		pays: []PaymentRow{
			{Number: "PAY/2025/00001", Direction: payments.DirectionReceive, PartnerID: 1, PartnerName: "Azure Interior", PartnerKind: masterdata.PartnerKindCustomer, PaymentDate: day(5), Amount: 400},
		},
	}
	svc := NewService(repo)

	entries, err := svc.PartnerLedger(context.Background(), Filter{PartnerID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, AccountDebtors, entries[0].Account)
	require.InDelta(t, 1000.0, entries[0].Amount, 1e-9)
	require.NotNil(t, entries[0].RunningBalance)
	require.InDelta(t, 1000.0, *entries[0].RunningBalance, 1e-9)

	require.InDelta(t, -400.0, entries[1].Amount, 1e-9)
	require.NotNil(t, entries[1].RunningBalance)
	require.InDelta(t, 600.0, *entries[1].RunningBalance, 1e-9)
}

func TestVendorSideSigns(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeVendorBill, Number: "BILL/2025/00001", PartnerID: 2, PartnerName: "Wood Corner", IssueDate: day(2), GrandTotal: 1500},
		},
		pays: []PaymentRow{
			{Number: "PAY/2025/00002", Direction: payments.DirectionSend, PartnerID: 2, PartnerName: "Wood Corner", PartnerKind: masterdata.PartnerKindVendor, PaymentDate: day(8), Amount: 500},
		},
	}
	svc := NewService(repo)

	entries, err := svc.PartnerLedger(context.Background(), Filter{PartnerID: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, AccountCreditors, entries[0].Account)
	require.InDelta(t, 1500.0, entries[0].Amount, 1e-9)
	require.InDelta(t, -500.0, entries[1].Amount, 1e-9)
	require.InDelta(t, 1000.0, *entries[1].RunningBalance, 1e-9)
}

func TestReverseDirectionPaymentIsPositive(t *testing.T) {
	repo := &memoryRepo{
		pays: []PaymentRow{
			// A refund sent back to a customer raises what they owe.
			{Number: "PAY/2025/00003", Direction: payments.DirectionSend, PartnerID: 1, PartnerName: "Azure Interior", PartnerKind: masterdata.PartnerKindCustomer, PaymentDate: day(3), Amount: 250},
		},
	}
	svc := NewService(repo)

	entries, err := svc.PartnerLedger(context.Background(), Filter{PartnerID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, AccountDebtors, entries[0].Account)
	require.InDelta(t, 250.0, entries[0].Amount, 1e-9)
}

func TestMultiPartnerOmitsRunningBalance(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00001", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 1000},
			{DocType: documents.DocTypeVendorBill, Number: "BILL/2025/00001", PartnerID: 2, PartnerName: "Wood Corner", IssueDate: day(2), GrandTotal: 1500},
		},
	}
	svc := NewService(repo)

	entries, err := svc.PartnerLedger(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Nil(t, e.RunningBalance)
	}
}

func TestOrderingDateThenReference(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00002", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 50},
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00001", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 100},
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00003", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(4), GrandTotal: 75},
		},
	}
	svc := NewService(repo)

	entries, err := svc.PartnerLedger(context.Background(), Filter{PartnerID: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"INV/2025/00001", "INV/2025/00002", "INV/2025/00003"},
		[]string{entries[0].Reference, entries[1].Reference, entries[2].Reference})
}

func TestSearchMatchesNameAndReference(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00001", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 100},
			{DocType: documents.DocTypeVendorBill, Number: "BILL/2025/00001", PartnerID: 2, PartnerName: "Wood Corner", IssueDate: day(2), GrandTotal: 200},
		},
	}
	svc := NewService(repo)

	byName, err := svc.PartnerLedger(context.Background(), Filter{Search: "azure"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Azure Interior", byName[0].PartnerName)

	byRef, err := svc.PartnerLedger(context.Background(), Filter{Search: "bill/2025"})
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	require.Equal(t, "Wood Corner", byRef[0].PartnerName)
}

func TestDateRangeFiltersRows(t *testing.T) {
	repo := &memoryRepo{
		docs: []DocumentRow{
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00001", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(1), GrandTotal: 100},
			{DocType: documents.DocTypeCustomerInvoice, Number: "INV/2025/00002", PartnerID: 1, PartnerName: "Azure Interior", IssueDate: day(20), GrandTotal: 200},
		},
	}
	svc := NewService(repo)

	from := day(10)
	entries, err := svc.PartnerLedger(context.Background(), Filter{PartnerID: 1, Range: shared.DateRange{From: &from}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "INV/2025/00002", entries[0].Reference)
}
