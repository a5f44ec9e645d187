package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/documents"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DocumentBalance is the slice of a document the payment engine touches:
// lifecycle state plus the money accumulators.
type DocumentBalance struct {
	ID         int64
	DocType    documents.DocType
	PartnerID  int64
	Status     documents.DocStatus
	GrandTotal float64
	PaidCash   float64
	PaidBank   float64
	AmountDue  float64
}

// Repository defines payment data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetPayment(ctx context.Context, id int64) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
	GetDocumentBalance(ctx context.Context, id int64) (*DocumentBalance, error)
}

// TxRepository defines the operations a payment application runs inside one
// transaction. LockDocumentBalance takes a row lock so two confirms against
// the same document serialise.
type TxRepository interface {
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	CreatePayment(ctx context.Context, p Payment) (int64, error)
	UpdateStatusIfCurrent(ctx context.Context, id int64, from, to Status, at time.Time) (bool, error)
	LockDocumentBalance(ctx context.Context, id int64) (*DocumentBalance, error)
	ApplyDocumentBalance(ctx context.Context, docID int64, paidCash, paidBank, amountDue float64) error
}

var (
	_ Repository   = (*pgRepository)(nil)
	_ TxRepository = (*pgTxRepository)(nil)
)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &pgTxRepository{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback: %v (original: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const paymentColumns = `id, number, direction, partner_id, mode, status, document_id,
	amount, payment_date, notes, idempotency_key, confirmed_at, cancelled_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.Number, &p.Direction, &p.PartnerID, &p.Mode, &p.Status, &p.DocumentID,
		&p.Amount, &p.PaymentDate, &p.Notes, &p.IdempotencyKey, &p.ConfirmedAt, &p.CancelledAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func getPayment(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id int64) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *pgRepository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return getPayment(ctx, r.pool, id)
}

func (r *pgRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`
	p, err := scanPayment(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment key %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by key: %w", err)
	}
	return p, nil
}

func (r *pgRepository) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.Direction != "" {
		where = append(where, "direction = "+arg(req.Direction))
	}
	if req.Status != "" {
		where = append(where, "status = "+arg(req.Status))
	}
	if req.PartnerID != 0 {
		where = append(where, "partner_id = "+arg(req.PartnerID))
	}
	if req.DocumentID != 0 {
		where = append(where, "document_id = "+arg(req.DocumentID))
	}
	if req.DateFrom != nil {
		where = append(where, "payment_date >= "+arg(*req.DateFrom))
	}
	if req.DateTo != nil {
		where = append(where, "payment_date <= "+arg(*req.DateTo))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM payments"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + clause +
		` ORDER BY payment_date DESC, id DESC LIMIT ` + arg(req.Limit) + ` OFFSET ` + arg(req.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := make([]Payment, 0, req.Limit)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return out, total, nil
}

const balanceColumns = `id, doc_type, partner_id, status, grand_total, paid_cash, paid_bank, amount_due`

func scanBalance(row pgx.Row, id int64) (*DocumentBalance, error) {
	var b DocumentBalance
	err := row.Scan(&b.ID, &b.DocType, &b.PartnerID, &b.Status, &b.GrandTotal, &b.PaidCash, &b.PaidBank, &b.AmountDue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document balance: %w", err)
	}
	return &b, nil
}

func (r *pgRepository) GetDocumentBalance(ctx context.Context, id int64) (*DocumentBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM documents WHERE id = $1`
	return scanBalance(r.pool.QueryRow(ctx, query, id), id)
}

func (t *pgTxRepository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return getPayment(ctx, t.tx, id)
}

func (t *pgTxRepository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	const q = `INSERT INTO payments
		(number, direction, partner_id, mode, status, document_id, amount, payment_date, notes, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, q,
		p.Number, p.Direction, p.PartnerID, p.Mode, p.Status, p.DocumentID,
		p.Amount, p.PaymentDate, p.Notes, p.IdempotencyKey,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

func (t *pgTxRepository) UpdateStatusIfCurrent(ctx context.Context, id int64, from, to Status, at time.Time) (bool, error) {
	q := `UPDATE payments SET status = $3, updated_at = now()`
	switch to {
	case StatusConfirmed:
		q += `, confirmed_at = $4`
	case StatusCancelled:
		q += `, cancelled_at = $4`
	default:
		return false, fmt.Errorf("unsupported payment transition to %s", to)
	}
	q += ` WHERE id = $1 AND status = $2`
	tag, err := t.tx.Exec(ctx, q, id, from, to, at)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTxRepository) LockDocumentBalance(ctx context.Context, id int64) (*DocumentBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	return scanBalance(t.tx.QueryRow(ctx, query, id), id)
}

func (t *pgTxRepository) ApplyDocumentBalance(ctx context.Context, docID int64, paidCash, paidBank, amountDue float64) error {
	const q = `UPDATE documents SET paid_cash = $2, paid_bank = $3, amount_due = $4, updated_at = now() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, docID, paidCash, paidBank, amountDue)
	if err != nil {
		return fmt.Errorf("apply document balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %d", shared.ErrNotFound, docID)
	}
	return nil
}
