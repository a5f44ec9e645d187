package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const defaultDueDays = 30

// Service enforces the document lifecycle: drafts are freely editable,
// confirmed documents are immutable except for payment accumulators, and
// derived documents spawn only from confirmed sources.
type Service struct {
	repo Repository
	md   masterdata.Reader
	seq  sequence.Allocator
	now  func() time.Time
}

// NewService constructs a document service.
func NewService(repo Repository, md masterdata.Reader, seq sequence.Allocator) *Service {
	return &Service{
		repo: repo,
		md:   md,
		seq:  seq,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateDraft validates references, fills product defaults, computes totals,
// allocates a number, and persists the draft with its lines.
func (s *Service) CreateDraft(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	if !req.DocType.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, req.DocType)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", shared.ErrValidation)
	}
	if req.DueDate != nil && !req.DocType.Payable() {
		return nil, fmt.Errorf("%w: due date applies to invoices and bills only", shared.ErrValidation)
	}
	if err := s.verifyPartner(ctx, req.DocType, req.PartnerID); err != nil {
		return nil, err
	}

	lines, err := s.buildLines(ctx, req.DocType, req.Lines)
	if err != nil {
		return nil, err
	}

	number, err := s.allocateNumber(ctx, req.DocType, req.IssueDate)
	if err != nil {
		return nil, err
	}

	doc := Document{
		Number:    number,
		DocType:   req.DocType,
		PartnerID: req.PartnerID,
		Status:    StatusDraft,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Notes:     req.Notes,
		Lines:     lines,
	}
	if err := ResolveLines(ctx, &doc, s.md.GetTax); err != nil {
		return nil, err
	}
	SumTotals(&doc)

	var docID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateDocument(ctx, doc)
		if err != nil {
			return err
		}
		docID = id
		for i := range doc.Lines {
			doc.Lines[i].DocumentID = id
			if _, err := tx.InsertLine(ctx, doc.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, docID)
}

// UpdateDraft mutates a draft document. Lines, when provided, replace the
// existing list and every amount is recomputed.
func (s *Service) UpdateDraft(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	// The status guard reads through the transaction so a transition that
	// commits first is observed; a confirmed document never takes the write.
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc.Status != StatusDraft {
			return fmt.Errorf("%w: only draft documents can be updated", shared.ErrStateConflict)
		}

		if req.IssueDate != nil {
			doc.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			if !doc.DocType.Payable() {
				return fmt.Errorf("%w: due date applies to invoices and bills only", shared.ErrValidation)
			}
			doc.DueDate = req.DueDate
		}
		if req.Notes != nil {
			doc.Notes = req.Notes
		}

		linesReplaced := false
		if req.Lines != nil {
			if len(*req.Lines) == 0 {
				return fmt.Errorf("%w: at least one line is required", shared.ErrValidation)
			}
			lines, err := s.buildLines(ctx, doc.DocType, *req.Lines)
			if err != nil {
				return err
			}
			doc.Lines = lines
			linesReplaced = true
		}

		if err := ResolveLines(ctx, doc, s.md.GetTax); err != nil {
			return err
		}
		SumTotals(doc)

		if linesReplaced {
			if err := tx.DeleteLines(ctx, id); err != nil {
				return err
			}
			for i := range doc.Lines {
				doc.Lines[i].DocumentID = id
				if _, err := tx.InsertLine(ctx, doc.Lines[i]); err != nil {
					return err
				}
			}
		}
		return tx.UpdateDocumentHeader(ctx, *doc)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, id)
}

// Confirm moves a draft to CONFIRMED. Exactly one of two concurrent confirm
// attempts succeeds; the loser observes a state conflict.
func (s *Service) Confirm(ctx context.Context, id int64) (*Document, error) {
	// Lines and totals resolve from the same transactional read that the
	// status flip runs in, so the stored header always matches the stored
	// lines at commit time.
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc.Status != StatusDraft {
			return fmt.Errorf("%w: only draft documents can be confirmed", shared.ErrStateConflict)
		}
		if len(doc.Lines) == 0 {
			return fmt.Errorf("%w: cannot confirm a document without lines", shared.ErrValidation)
		}
		if err := s.verifyPartner(ctx, doc.DocType, doc.PartnerID); err != nil {
			return err
		}

		if err := ResolveLines(ctx, doc, s.md.GetTax); err != nil {
			return err
		}
		SumTotals(doc)

		won, err := tx.UpdateStatusIfCurrent(ctx, id, StatusDraft, StatusConfirmed, s.now())
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: only draft documents can be confirmed", shared.ErrStateConflict)
		}
		return tx.UpdateDocumentHeader(ctx, *doc)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, id)
}

// Cancel applies the per-type cancellation rules: drafts always cancel,
// confirmed sales orders never do, billed purchase orders never do, and a
// cancelled document stays cancelled.
func (s *Service) Cancel(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := cancelGuard(doc); err != nil {
		return nil, err
	}

	from := doc.Status
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		won, err := tx.UpdateStatusIfCurrent(ctx, id, from, StatusCancelled, s.now())
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: document is no longer %s", shared.ErrStateConflict, from)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, id)
}

func cancelGuard(doc *Document) error {
	switch doc.Status {
	case StatusDraft:
		return nil
	case StatusCancelled:
		return fmt.Errorf("%w: document is already cancelled", shared.ErrStateConflict)
	case StatusBilled:
		return fmt.Errorf("%w: a billed purchase order cannot be cancelled", shared.ErrStateConflict)
	case StatusConfirmed:
		if doc.DocType == DocTypeSalesOrder {
			return fmt.Errorf("%w: a confirmed sales order cannot be cancelled", shared.ErrStateConflict)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrStateConflict, doc.Status)
	}
}

// CreateDerived spawns a vendor bill from a confirmed purchase order or a
// customer invoice from a confirmed sales order. Lines are copied verbatim
// and the new document is persisted CONFIRMED directly.
func (s *Service) CreateDerived(ctx context.Context, sourceID int64, target DocType) (*Document, error) {
	var sourceType DocType
	switch target {
	case DocTypeVendorBill:
		sourceType = DocTypePurchaseOrder
	case DocTypeCustomerInvoice:
		sourceType = DocTypeSalesOrder
	default:
		return nil, fmt.Errorf("%w: cannot derive a %s", shared.ErrValidation, target)
	}

	source, err := s.repo.GetDocument(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source document: %w", err)
	}
	if source.DocType != sourceType {
		return nil, fmt.Errorf("%w: a %s derives from a %s", shared.ErrValidation, target, sourceType)
	}
	if source.Status == StatusBilled {
		return nil, fmt.Errorf("%w: purchase order is already billed", shared.ErrStateConflict)
	}
	if source.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed documents can be converted", shared.ErrStateConflict)
	}

	now := s.now()
	number, err := s.allocateNumber(ctx, target, now)
	if err != nil {
		return nil, err
	}
	due := now.AddDate(0, 0, defaultDueDays)

	derived := Document{
		Number:      number,
		DocType:     target,
		PartnerID:   source.PartnerID,
		Status:      StatusConfirmed,
		IssueDate:   now,
		DueDate:     &due,
		SourceDocID: &source.ID,
		Notes:       source.Notes,
		ConfirmedAt: &now,
	}
	for _, l := range source.Lines {
		derived.Lines = append(derived.Lines, Line{
			ProductID:   l.ProductID,
			AccountID:   l.AccountID,
			HSNCode:     l.HSNCode,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxID:       l.TaxID,
			LineUntaxed: l.LineUntaxed,
			LineTax:     l.LineTax,
			LineTotal:   l.LineTotal,
			LineOrder:   l.LineOrder,
		})
	}
	SumTotals(&derived)

	var derivedID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if sourceType == DocTypePurchaseOrder {
			won, err := tx.UpdateStatusIfCurrent(ctx, source.ID, StatusConfirmed, StatusBilled, now)
			if err != nil {
				return err
			}
			if !won {
				return fmt.Errorf("%w: purchase order is already billed", shared.ErrStateConflict)
			}
		}
		id, err := tx.CreateDocument(ctx, derived)
		if err != nil {
			return err
		}
		derivedID = id
		for i := range derived.Lines {
			derived.Lines[i].DocumentID = id
			if _, err := tx.InsertLine(ctx, derived.Lines[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDocument(ctx, derivedID)
}

// Get retrieves a document with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// List returns a filtered, paginated document listing.
func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	if req.DocType != "" && !req.DocType.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, req.DocType)
	}
	return s.repo.ListDocuments(ctx, req)
}

func (s *Service) verifyPartner(ctx context.Context, t DocType, partnerID int64) error {
	partner, err := s.md.GetPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: partner %d", shared.ErrReferential, partnerID)
		}
		return fmt.Errorf("verify partner: %w", err)
	}
	if t.SalesSide() && partner.Kind != masterdata.PartnerKindCustomer {
		return fmt.Errorf("%w: partner %d is not a customer", shared.ErrValidation, partnerID)
	}
	if !t.SalesSide() && partner.Kind != masterdata.PartnerKindVendor {
		return fmt.Errorf("%w: partner %d is not a vendor", shared.ErrValidation, partnerID)
	}
	return nil
}

// buildLines materialises request lines, filling unit price, HSN code, and
// account defaults from the product master.
func (s *Service) buildLines(ctx context.Context, t DocType, reqs []CreateLineRequest) ([]Line, error) {
	lines := make([]Line, 0, len(reqs))
	for i, lr := range reqs {
		if lr.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", shared.ErrValidation, i+1)
		}
		line := Line{
			ProductID:   lr.ProductID,
			AccountID:   lr.AccountID,
			HSNCode:     lr.HSNCode,
			Description: lr.Description,
			Quantity:    lr.Quantity,
			TaxID:       lr.TaxID,
			LineOrder:   lr.LineOrder,
		}
		if line.LineOrder == 0 {
			line.LineOrder = i + 1
		}
		if lr.UnitPrice != nil {
			if *lr.UnitPrice < 0 {
				return nil, fmt.Errorf("%w: line %d unit price must not be negative", shared.ErrValidation, i+1)
			}
			line.UnitPrice = *lr.UnitPrice
		}

		if lr.ProductID != nil {
			product, err := s.md.GetProduct(ctx, *lr.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, fmt.Errorf("%w: product %d on line %d", shared.ErrReferential, *lr.ProductID, i+1)
				}
				return nil, fmt.Errorf("resolve product: %w", err)
			}
			if lr.UnitPrice == nil {
				if t.SalesSide() {
					line.UnitPrice = product.SalesPrice
				} else {
					line.UnitPrice = product.PurchasePrice
				}
			}
			if line.HSNCode == nil {
				line.HSNCode = product.HSNCode
			}
			if line.AccountID == nil {
				if t.SalesSide() {
					line.AccountID = product.IncomeAccountID
				} else {
					line.AccountID = product.ExpenseAccountID
				}
			}
		} else if lr.UnitPrice == nil {
			return nil, fmt.Errorf("%w: line %d needs a unit price or a product reference", shared.ErrValidation, i+1)
		}

		if line.AccountID != nil {
			if _, err := s.md.GetAccount(ctx, *line.AccountID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, fmt.Errorf("%w: account %d on line %d", shared.ErrReferential, *line.AccountID, i+1)
				}
				return nil, fmt.Errorf("resolve account: %w", err)
			}
		}

		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) allocateNumber(ctx context.Context, t DocType, date time.Time) (string, error) {
	switch t {
	case DocTypeSalesOrder:
		n, err := s.seq.Next(ctx, sequence.KeySalesOrder)
		if err != nil {
			return "", err
		}
		return sequence.Format("SO", n), nil
	case DocTypePurchaseOrder:
		n, err := s.seq.Next(ctx, sequence.KeyPurchaseOrder)
		if err != nil {
			return "", err
		}
		return sequence.Format("PO", n), nil
	case DocTypeCustomerInvoice:
		n, err := s.seq.Next(ctx, sequence.YearKey(sequence.KeyInvoice, date))
		if err != nil {
			return "", err
		}
		return sequence.FormatYear("INV", date.UTC().Year(), n), nil
	case DocTypeVendorBill:
		n, err := s.seq.Next(ctx, sequence.YearKey(sequence.KeyBill, date))
		if err != nil {
			return "", err
		}
		return sequence.FormatYear("BILL", date.UTC().Year(), n), nil
	default:
		return "", fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, t)
	}
}
