package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/sequence"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// amountEpsilon absorbs float accumulation noise when comparing a payment
// against the open balance.
const amountEpsilon = 1e-6

// Service runs the payment lifecycle and keeps document balances in step
// with confirmed payments.
type Service struct {
	repo Repository
	md   masterdata.Reader
	seq  sequence.Allocator
	now  func() time.Time
}

// NewService constructs a payment service.
func NewService(repo Repository, md masterdata.Reader, seq sequence.Allocator) *Service {
	return &Service{
		repo: repo,
		md:   md,
		seq:  seq,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateDraft registers a draft payment. Supplying an idempotency key makes
// the call replay-safe: a repeated key returns the previously created
// payment instead of a duplicate.
func (s *Service) CreateDraft(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", shared.ErrValidation, req.Direction)
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown payment mode %q", shared.ErrValidation, req.Mode)
	}

	key := req.IdempotencyKey
	if key != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	} else {
		key = uuid.NewString()
	}

	if err := s.verifyPartner(ctx, req.Direction, req.PartnerID); err != nil {
		return nil, err
	}

	amount := 0.0
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.DocumentID != nil {
		balance, err := s.repo.GetDocumentBalance(ctx, *req.DocumentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: document %d", shared.ErrReferential, *req.DocumentID)
			}
			return nil, err
		}
		if err := matchDocument(req.Direction, req.PartnerID, balance); err != nil {
			return nil, err
		}
		// The amount default is a snapshot of the balance at creation time;
		// it is not re-evaluated when the payment confirms later.
		if req.Amount == nil {
			amount = balance.AmountDue
		}
	} else if req.Amount == nil {
		return nil, fmt.Errorf("%w: amount is required without a linked document", shared.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", shared.ErrValidation)
	}

	date := s.now()
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}

	n, err := s.seq.Next(ctx, sequence.YearKey(sequence.KeyPayment, date))
	if err != nil {
		return nil, err
	}

	payment := Payment{
		Number:         sequence.FormatYear("PAY", date.UTC().Year(), n),
		Direction:      req.Direction,
		PartnerID:      req.PartnerID,
		Mode:           req.Mode,
		Status:         StatusDraft,
		DocumentID:     req.DocumentID,
		Amount:         amount,
		PaymentDate:    date,
		Notes:          req.Notes,
		IdempotencyKey: key,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.CreatePayment(ctx, payment)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPayment(ctx, id)
}

// Confirm applies a draft payment. For document-linked payments the amount
// lands in the cash or bank accumulator and the amount due shrinks, all in
// one transaction with the target row locked.
func (s *Service) Confirm(ctx context.Context, id int64) (*Payment, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusDraft {
			return fmt.Errorf("%w: only draft payments can be confirmed", shared.ErrStateConflict)
		}

		if p.DocumentID != nil {
			b, err := tx.LockDocumentBalance(ctx, *p.DocumentID)
			if err != nil {
				return err
			}
			if b.Status != documents.StatusConfirmed {
				return fmt.Errorf("%w: document %s is not open for payment", shared.ErrStateConflict, b.Status)
			}
			if p.Amount > b.AmountDue+amountEpsilon {
				return fmt.Errorf("%w: payment %.2f exceeds amount due %.2f", shared.ErrStateConflict, p.Amount, b.AmountDue)
			}
			applyAmount(b, p.Mode, p.Amount)
			if err := tx.ApplyDocumentBalance(ctx, b.ID, b.PaidCash, b.PaidBank, b.AmountDue); err != nil {
				return err
			}
		}

		won, err := tx.UpdateStatusIfCurrent(ctx, id, StatusDraft, StatusConfirmed, s.now())
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: only draft payments can be confirmed", shared.ErrStateConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPayment(ctx, id)
}

// Cancel voids a payment. A confirmed payment is backed out of its document
// exactly, restoring the amount due it had consumed.
func (s *Service) Cancel(ctx context.Context, id int64) (*Payment, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		switch p.Status {
		case StatusCancelled:
			return fmt.Errorf("%w: payment is already cancelled", shared.ErrStateConflict)
		case StatusDraft:
			// nothing was applied, just flip
		case StatusConfirmed:
			if p.DocumentID != nil {
				b, err := tx.LockDocumentBalance(ctx, *p.DocumentID)
				if err != nil {
					return err
				}
				applyAmount(b, p.Mode, -p.Amount)
				if err := tx.ApplyDocumentBalance(ctx, b.ID, b.PaidCash, b.PaidBank, b.AmountDue); err != nil {
					return err
				}
			}
		}

		won, err := tx.UpdateStatusIfCurrent(ctx, id, p.Status, StatusCancelled, s.now())
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: payment is no longer %s", shared.ErrStateConflict, p.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetPayment(ctx, id)
}

// Get retrieves a payment.
func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// List returns a filtered, paginated payment listing.
func (s *Service) List(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, req)
}

// applyAmount moves a signed amount into the balance's accumulator for mode
// and re-derives the amount due, floored at zero.
func applyAmount(b *DocumentBalance, mode Mode, amount float64) {
	switch mode {
	case ModeCash:
		b.PaidCash += amount
		if b.PaidCash < 0 {
			b.PaidCash = 0
		}
	case ModeBank:
		b.PaidBank += amount
		if b.PaidBank < 0 {
			b.PaidBank = 0
		}
	}
	b.AmountDue = b.GrandTotal - b.PaidCash - b.PaidBank
	if b.AmountDue < 0 {
		b.AmountDue = 0
	}
}

func (s *Service) verifyPartner(ctx context.Context, d Direction, partnerID int64) error {
	partner, err := s.md.GetPartner(ctx, partnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: partner %d", shared.ErrReferential, partnerID)
		}
		return fmt.Errorf("verify partner: %w", err)
	}
	if d == DirectionReceive && partner.Kind != masterdata.PartnerKindCustomer {
		return fmt.Errorf("%w: payments are received from customers only", shared.ErrValidation)
	}
	if d == DirectionSend && partner.Kind != masterdata.PartnerKindVendor {
		return fmt.Errorf("%w: payments are sent to vendors only", shared.ErrValidation)
	}
	return nil
}

// matchDocument checks a linked document fits the payment: receives settle
// customer invoices, sends settle vendor bills, and the partner must match.
func matchDocument(d Direction, partnerID int64, b *DocumentBalance) error {
	if !b.DocType.Payable() {
		return fmt.Errorf("%w: %s does not carry a balance", shared.ErrValidation, b.DocType)
	}
	if d == DirectionReceive && b.DocType != documents.DocTypeCustomerInvoice {
		return fmt.Errorf("%w: received payments settle customer invoices", shared.ErrValidation)
	}
	if d == DirectionSend && b.DocType != documents.DocTypeVendorBill {
		return fmt.Errorf("%w: sent payments settle vendor bills", shared.ErrValidation)
	}
	if b.PartnerID != partnerID {
		return fmt.Errorf("%w: document belongs to partner %d", shared.ErrValidation, b.PartnerID)
	}
	return nil
}
