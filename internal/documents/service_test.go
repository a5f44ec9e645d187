package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// memoryRepo is an in-memory Repository/TxRepository for service tests.
type memoryRepo struct {
	mu     sync.Mutex
	docs   map[int64]*Document
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: make(map[int64]*Document)}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, (*memoryTx)(m))
}

func (m *memoryRepo) GetDocument(_ context.Context, id int64) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *memoryRepo) get(id int64) (*Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %d", shared.ErrNotFound, id)
	}
	cp := *doc
	cp.Lines = append([]Line(nil), doc.Lines...)
	return &cp, nil
}

func (m *memoryRepo) ListDocuments(_ context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Document
	for _, doc := range m.docs {
		if req.DocType != "" && doc.DocType != req.DocType {
			continue
		}
		if req.Status != "" && doc.Status != req.Status {
			continue
		}
		if req.PartnerID != 0 && doc.PartnerID != req.PartnerID {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(doc.Number), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *doc)
	}
	return out, len(out), nil
}

// memoryTx reuses the repo maps; WithTx holds the lock for the whole callback.
type memoryTx memoryRepo

func (m *memoryTx) GetDocument(_ context.Context, id int64) (*Document, error) {
	return (*memoryRepo)(m).get(id)
}

func (m *memoryTx) CreateDocument(_ context.Context, doc Document) (int64, error) {
	m.nextID++
	doc.ID = m.nextID
	doc.Lines = nil
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	m.docs[doc.ID] = &doc
	return doc.ID, nil
}

func (m *memoryTx) InsertLine(_ context.Context, line Line) (int64, error) {
	doc, ok := m.docs[line.DocumentID]
	if !ok {
		return 0, fmt.Errorf("%w: document %d", shared.ErrNotFound, line.DocumentID)
	}
	line.ID = int64(len(doc.Lines) + 1)
	doc.Lines = append(doc.Lines, line)
	return line.ID, nil
}

func (m *memoryTx) DeleteLines(_ context.Context, documentID int64) error {
	doc, ok := m.docs[documentID]
	if !ok {
		return fmt.Errorf("%w: document %d", shared.ErrNotFound, documentID)
	}
	doc.Lines = nil
	return nil
}

func (m *memoryTx) UpdateDocumentHeader(_ context.Context, doc Document) error {
	stored, ok := m.docs[doc.ID]
	if !ok {
		return fmt.Errorf("%w: document %d", shared.ErrNotFound, doc.ID)
	}
	lines := stored.Lines
	status := stored.Status
	confirmedAt, cancelledAt := stored.ConfirmedAt, stored.CancelledAt
	*stored = doc
	stored.Lines = lines
	stored.Status = status
	stored.ConfirmedAt, stored.CancelledAt = confirmedAt, cancelledAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memoryTx) UpdateStatusIfCurrent(_ context.Context, id int64, from, to DocStatus, at time.Time) (bool, error) {
	doc, ok := m.docs[id]
	if !ok {
		return false, fmt.Errorf("%w: document %d", shared.ErrNotFound, id)
	}
	if doc.Status != from {
		return false, nil
	}
	doc.Status = to
	switch to {
	case StatusConfirmed:
		doc.ConfirmedAt = &at
	case StatusCancelled:
		doc.CancelledAt = &at
	}
	return true, nil
}

var (
	_ Repository   = (*memoryRepo)(nil)
	_ TxRepository = (*memoryTx)(nil)
)

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	md       *masterdata.MemoryStore
	customer masterdata.Partner
	vendor   masterdata.Partner
	product  masterdata.Product
	tax      masterdata.Tax
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	md := masterdata.NewMemoryStore()
	tax := md.PutTax(masterdata.Tax{Name: "GST 10%", Method: masterdata.TaxMethodPercentage, Rate: 10})
	income := md.PutAccount(masterdata.Account{Code: "4000", Name: "Sales Revenue", Type: masterdata.AccountTypeIncome})
	expense := md.PutAccount(masterdata.Account{Code: "5000", Name: "Cost of Goods", Type: masterdata.AccountTypeExpense})
	hsn := "9403"
	product := md.PutProduct(masterdata.Product{
		Code:             "DESK-01",
		Name:             "Office Desk",
		SalesPrice:       2300,
		PurchasePrice:    1500,
		HSNCode:          &hsn,
		TaxID:            &tax.ID,
		IncomeAccountID:  &income.ID,
		ExpenseAccountID: &expense.ID,
		IsActive:         true,
	})
	customer := md.PutPartner(masterdata.Partner{Code: "C001", Name: "Azure Interior", Kind: masterdata.PartnerKindCustomer, IsActive: true})
	vendor := md.PutPartner(masterdata.Partner{Code: "V001", Name: "Wood Corner", Kind: masterdata.PartnerKindVendor, IsActive: true})

	repo := newMemoryRepo()
	svc := NewService(repo, md, sequence.NewMemoryAllocator())
	return &fixture{svc: svc, repo: repo, md: md, customer: customer, vendor: vendor, product: product, tax: tax}
}

func (f *fixture) draft(t *testing.T, docType DocType, partnerID int64) *Document {
	t.Helper()
	doc, err := f.svc.CreateDraft(context.Background(), CreateDocumentRequest{
		DocType:   docType,
		PartnerID: partnerID,
		IssueDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Lines: []CreateLineRequest{
			{ProductID: &f.product.ID, Quantity: 6, TaxID: &f.tax.ID},
		},
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) confirmed(t *testing.T, docType DocType, partnerID int64) *Document {
	t.Helper()
	doc := f.draft(t, docType, partnerID)
	out, err := f.svc.Confirm(context.Background(), doc.ID)
	require.NoError(t, err)
	return out
}

func TestCreateDraftDefaultsFromProduct(t *testing.T) {
	f := newFixture(t)

	doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)

	require.Equal(t, "SO00001", doc.Number)
	require.Equal(t, StatusDraft, doc.Status)
	require.Len(t, doc.Lines, 1)

	line := doc.Lines[0]
	require.InDelta(t, 2300.0, line.UnitPrice, 1e-9)
	require.NotNil(t, line.HSNCode)
	require.Equal(t, "9403", *line.HSNCode)
	require.NotNil(t, line.AccountID)
	require.Equal(t, *f.product.IncomeAccountID, *line.AccountID)

	require.InDelta(t, 13800.0, doc.TotalUntaxed, 1e-9)
	require.InDelta(t, 1380.0, doc.TotalTax, 1e-9)
	require.InDelta(t, 15180.0, doc.GrandTotal, 1e-9)
	require.InDelta(t, 15180.0, doc.AmountDue, 1e-9)
}

func TestCreateDraftPurchasePriceDefault(t *testing.T) {
	f := newFixture(t)

	doc := f.draft(t, DocTypePurchaseOrder, f.vendor.ID)

	require.Equal(t, "PO00001", doc.Number)
	require.InDelta(t, 1500.0, doc.Lines[0].UnitPrice, 1e-9)
	require.Equal(t, *f.product.ExpenseAccountID, *doc.Lines[0].AccountID)
}

func TestCreateDraftPartnerKindMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDraft(context.Background(), CreateDocumentRequest{
		DocType:   DocTypeSalesOrder,
		PartnerID: f.vendor.ID,
		IssueDate: time.Now(),
		Lines:     []CreateLineRequest{{ProductID: &f.product.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDraftUnknownPartner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDraft(context.Background(), CreateDocumentRequest{
		DocType:   DocTypeSalesOrder,
		PartnerID: 9999,
		IssueDate: time.Now(),
		Lines:     []CreateLineRequest{{ProductID: &f.product.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrReferential)
}

func TestCreateDraftDueDateOnOrderRejected(t *testing.T) {
	f := newFixture(t)

	due := time.Now().AddDate(0, 0, 30)
	_, err := f.svc.CreateDraft(context.Background(), CreateDocumentRequest{
		DocType:   DocTypeSalesOrder,
		PartnerID: f.customer.ID,
		IssueDate: time.Now(),
		DueDate:   &due,
		Lines:     []CreateLineRequest{{ProductID: &f.product.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	f := newFixture(t)
	doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)

	price := 100.0
	lines := []CreateLineRequest{
		{ProductID: &f.product.ID, Quantity: 2, UnitPrice: &price, TaxID: &f.tax.ID},
	}
	updated, err := f.svc.UpdateDraft(context.Background(), doc.ID, UpdateDocumentRequest{Lines: &lines})
	require.NoError(t, err)

	require.Len(t, updated.Lines, 1)
	require.InDelta(t, 200.0, updated.TotalUntaxed, 1e-9)
	require.InDelta(t, 20.0, updated.TotalTax, 1e-9)
	require.InDelta(t, 220.0, updated.GrandTotal, 1e-9)
}

func TestUpdateConfirmedRejected(t *testing.T) {
	f := newFixture(t)
	doc := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)

	note := "late edit"
	_, err := f.svc.UpdateDraft(context.Background(), doc.ID, UpdateDocumentRequest{Notes: &note})
	require.ErrorIs(t, err, shared.ErrStateConflict)
}

func TestConfirmDraft(t *testing.T) {
	f := newFixture(t)
	doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)

	out, err := f.svc.Confirm(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, out.Status)
	require.NotNil(t, out.ConfirmedAt)
}

func TestConfirmTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	doc := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)

	_, err := f.svc.Confirm(context.Background(), doc.ID)
	require.ErrorIs(t, err, shared.ErrStateConflict)
}

// interposeRepo runs a hook once, just before the next transaction starts,
// standing in for a competing transaction that committed first.
type interposeRepo struct {
	*memoryRepo
	before func()
}

func (r *interposeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r.before != nil {
		hook := r.before
		r.before = nil
		hook()
	}
	return r.memoryRepo.WithTx(ctx, fn)
}

func TestUpdateDraftLosesToInterleavedConfirm(t *testing.T) {
	f := newFixture(t)
	doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)

	repo := &interposeRepo{memoryRepo: f.repo}
	svc := NewService(repo, f.md, sequence.NewMemoryAllocator())
	repo.before = func() {
		_, err := f.svc.Confirm(context.Background(), doc.ID)
		require.NoError(t, err)
	}

	price := 999.0
	lines := []CreateLineRequest{
		{ProductID: &f.product.ID, Quantity: 1, UnitPrice: &price, TaxID: &f.tax.ID},
	}
	_, err := svc.UpdateDraft(context.Background(), doc.ID, UpdateDocumentRequest{Lines: &lines})
	require.ErrorIs(t, err, shared.ErrStateConflict)

	stored, err := f.repo.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, stored.Status)
	require.InDelta(t, doc.GrandTotal, stored.GrandTotal, 1e-9)
	require.Len(t, stored.Lines, len(doc.Lines))
	require.InDelta(t, doc.Lines[0].UnitPrice, stored.Lines[0].UnitPrice, 1e-9)
}

func TestConfirmTotalsMatchInterleavedLineUpdate(t *testing.T) {
	f := newFixture(t)
	doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)

	repo := &interposeRepo{memoryRepo: f.repo}
	svc := NewService(repo, f.md, sequence.NewMemoryAllocator())
	price := 500.0
	lines := []CreateLineRequest{
		{ProductID: &f.product.ID, Quantity: 2, UnitPrice: &price, TaxID: &f.tax.ID},
	}
	repo.before = func() {
		_, err := f.svc.UpdateDraft(context.Background(), doc.ID, UpdateDocumentRequest{Lines: &lines})
		require.NoError(t, err)
	}

	out, err := svc.Confirm(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, out.Status)
	require.InDelta(t, 1000.0, out.TotalUntaxed, 1e-9)
	require.InDelta(t, 100.0, out.TotalTax, 1e-9)
	require.InDelta(t, 1100.0, out.GrandTotal, 1e-9)
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("draft always cancels", func(t *testing.T) {
		doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)
		out, err := f.svc.Cancel(ctx, doc.ID)
		require.NoError(t, err)
		require.Equal(t, StatusCancelled, out.Status)
		require.NotNil(t, out.CancelledAt)
	})

	t.Run("confirmed sales order never cancels", func(t *testing.T) {
		doc := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)
		_, err := f.svc.Cancel(ctx, doc.ID)
		require.ErrorIs(t, err, shared.ErrStateConflict)
	})

	t.Run("confirmed purchase order cancels", func(t *testing.T) {
		doc := f.confirmed(t, DocTypePurchaseOrder, f.vendor.ID)
		out, err := f.svc.Cancel(ctx, doc.ID)
		require.NoError(t, err)
		require.Equal(t, StatusCancelled, out.Status)
	})

	t.Run("billed purchase order never cancels", func(t *testing.T) {
		po := f.confirmed(t, DocTypePurchaseOrder, f.vendor.ID)
		_, err := f.svc.CreateDerived(ctx, po.ID, DocTypeVendorBill)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, po.ID)
		require.ErrorIs(t, err, shared.ErrStateConflict)
	})

	t.Run("cancelled stays cancelled", func(t *testing.T) {
		doc := f.draft(t, DocTypeSalesOrder, f.customer.ID)
		_, err := f.svc.Cancel(ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, doc.ID)
		require.ErrorIs(t, err, shared.ErrStateConflict)
	})

	t.Run("confirmed invoice cancels", func(t *testing.T) {
		so := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)
		inv, err := f.svc.CreateDerived(ctx, so.ID, DocTypeCustomerInvoice)
		require.NoError(t, err)
		out, err := f.svc.Cancel(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, StatusCancelled, out.Status)
	})
}

func TestConvertPurchaseOrderToBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.confirmed(t, DocTypePurchaseOrder, f.vendor.ID)

	bill, err := f.svc.CreateDerived(ctx, po.ID, DocTypeVendorBill)
	require.NoError(t, err)

	require.Equal(t, DocTypeVendorBill, bill.DocType)
	require.Equal(t, StatusConfirmed, bill.Status)
	require.True(t, strings.HasPrefix(bill.Number, "BILL/"))
	require.NotNil(t, bill.SourceDocID)
	require.Equal(t, po.ID, *bill.SourceDocID)
	require.Equal(t, po.PartnerID, bill.PartnerID)
	require.NotNil(t, bill.DueDate)

	require.Len(t, bill.Lines, len(po.Lines))
	require.InDelta(t, po.GrandTotal, bill.GrandTotal, 1e-9)
	require.InDelta(t, bill.GrandTotal, bill.AmountDue, 1e-9)

	after, err := f.svc.Get(ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, StatusBilled, after.Status)
}

func TestConvertPurchaseOrderTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.confirmed(t, DocTypePurchaseOrder, f.vendor.ID)

	_, err := f.svc.CreateDerived(ctx, po.ID, DocTypeVendorBill)
	require.NoError(t, err)
	_, err = f.svc.CreateDerived(ctx, po.ID, DocTypeVendorBill)
	require.ErrorIs(t, err, shared.ErrStateConflict)
}

func TestConvertSalesOrderToInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	so := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)

	inv, err := f.svc.CreateDerived(ctx, so.ID, DocTypeCustomerInvoice)
	require.NoError(t, err)

	require.Equal(t, DocTypeCustomerInvoice, inv.DocType)
	require.True(t, strings.HasPrefix(inv.Number, "INV/"))
	require.Equal(t, StatusConfirmed, inv.Status)

	// The sales order keeps its status; invoicing is repeatable.
	after, err := f.svc.Get(ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, after.Status)

	second, err := f.svc.CreateDerived(ctx, so.ID, DocTypeCustomerInvoice)
	require.NoError(t, err)
	require.NotEqual(t, inv.Number, second.Number)
}

func TestConvertDraftRejected(t *testing.T) {
	f := newFixture(t)
	po := f.draft(t, DocTypePurchaseOrder, f.vendor.ID)

	_, err := f.svc.CreateDerived(context.Background(), po.ID, DocTypeVendorBill)
	require.ErrorIs(t, err, shared.ErrStateConflict)
}

func TestConvertWrongSourceType(t *testing.T) {
	f := newFixture(t)
	so := f.confirmed(t, DocTypeSalesOrder, f.customer.ID)

	_, err := f.svc.CreateDerived(context.Background(), so.ID, DocTypeVendorBill)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestConvertMissingSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDerived(context.Background(), 404, DocTypeCustomerInvoice)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
