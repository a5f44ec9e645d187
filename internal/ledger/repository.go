package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/payments"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DocumentRow is a confirmed invoice or bill as the ledger sees it.
type DocumentRow struct {
	DocType     documents.DocType
	Number      string
	PartnerID   int64
	PartnerName string
	IssueDate   time.Time
	DueDate     *time.Time
	GrandTotal  float64
}

// PaymentRow is a confirmed payment as the ledger sees it.
type PaymentRow struct {
	Number      string
	Direction   payments.Direction
	PartnerID   int64
	PartnerName string
	PartnerKind masterdata.PartnerKind
	PaymentDate time.Time
	Amount      float64
}

// Repository fetches ledger source rows.
type Repository interface {
	ConfirmedDocuments(ctx context.Context, partnerID int64, rng shared.DateRange) ([]DocumentRow, error)
	ConfirmedPayments(ctx context.Context, partnerID int64, rng shared.DateRange) ([]PaymentRow, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) ConfirmedDocuments(ctx context.Context, partnerID int64, rng shared.DateRange) ([]DocumentRow, error) {
	var (
		where = []string{"d.status = 'CONFIRMED'", "d.doc_type IN ('CUSTOMER_INVOICE', 'VENDOR_BILL')"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if partnerID != 0 {
		where = append(where, "d.partner_id = "+arg(partnerID))
	}
	if rng.From != nil {
		where = append(where, "d.issue_date >= "+arg(*rng.From))
	}
	if rng.To != nil {
		where = append(where, "d.issue_date <= "+arg(*rng.To))
	}

	query := `SELECT d.doc_type, d.number, d.partner_id, p.name, d.issue_date, d.due_date, d.grand_total
		FROM documents d
		JOIN partners p ON p.id = d.partner_id
		WHERE ` + strings.Join(where, " AND ")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.DocType, &d.Number, &d.PartnerID, &d.PartnerName, &d.IssueDate, &d.DueDate, &d.GrandTotal); err != nil {
			return nil, fmt.Errorf("scan ledger document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger documents: %w", err)
	}
	return out, nil
}

func (r *pgRepository) ConfirmedPayments(ctx context.Context, partnerID int64, rng shared.DateRange) ([]PaymentRow, error) {
	var (
		where = []string{"pay.status = 'CONFIRMED'"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if partnerID != 0 {
		where = append(where, "pay.partner_id = "+arg(partnerID))
	}
	if rng.From != nil {
		where = append(where, "pay.payment_date >= "+arg(*rng.From))
	}
	if rng.To != nil {
		where = append(where, "pay.payment_date <= "+arg(*rng.To))
	}

	query := `SELECT pay.number, pay.direction, pay.partner_id, p.name, p.kind, pay.payment_date, pay.amount
		FROM payments pay
		JOIN partners p ON p.id = pay.partner_id
		WHERE ` + strings.Join(where, " AND ")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger payments: %w", err)
	}
	defer rows.Close()

	var out []PaymentRow
	for rows.Next() {
		var p PaymentRow
		if err := rows.Scan(&p.Number, &p.Direction, &p.PartnerID, &p.PartnerName, &p.PartnerKind, &p.PaymentDate, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan ledger payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger payments: %w", err)
	}
	return out, nil
}
