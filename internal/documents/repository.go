package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines document data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetDocument(ctx context.Context, id int64) (*Document, error)
	ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
}

// TxRepository defines operations within a transaction. A lifecycle
// transition and its totals recomputation always land through one tx.
type TxRepository interface {
	GetDocument(ctx context.Context, id int64) (*Document, error)
	CreateDocument(ctx context.Context, doc Document) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	DeleteLines(ctx context.Context, documentID int64) error
	UpdateDocumentHeader(ctx context.Context, doc Document) error
	// UpdateStatusIfCurrent flips status only when the stored status still
	// matches from, reporting whether the row was won. Concurrent transition
	// attempts therefore produce exactly one success.
	UpdateStatusIfCurrent(ctx context.Context, id int64, from, to DocStatus, at time.Time) (bool, error)
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
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const documentColumns = `id, number, doc_type, partner_id, status, issue_date, due_date,
	total_untaxed, total_tax, grand_total, paid_cash, paid_bank, amount_due,
	source_doc_id, notes, confirmed_at, cancelled_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.Number, &d.DocType, &d.PartnerID, &d.Status, &d.IssueDate, &d.DueDate,
		&d.TotalUntaxed, &d.TotalTax, &d.GrandTotal, &d.PaidCash, &d.PaidBank, &d.AmountDue,
		&d.SourceDocID, &d.Notes, &d.ConfirmedAt, &d.CancelledAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

func getDocument(ctx context.Context, q querier, id int64) (*Document, error) {
	doc, err := scanDocument(q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT id, document_id, product_id, account_id, hsn_code, description,
		quantity, unit_price, tax_id, line_untaxed, line_tax, line_total, line_order
		FROM document_lines WHERE document_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.ProductID, &l.AccountID, &l.HSNCode, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.TaxID, &l.LineUntaxed, &l.LineTax, &l.LineTotal, &l.LineOrder,
		); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		doc.Lines = append(doc.Lines, l)
	}
	return doc, rows.Err()
}

// querier abstracts pool and tx for shared read paths.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *pgRepository) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return getDocument(ctx, r.pool, id)
}

func (t *pgTxRepository) GetDocument(ctx context.Context, id int64) (*Document, error) {
	return getDocument(ctx, t.tx, id)
}

func (r *pgRepository) ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.DocType != "" {
		where = append(where, "doc_type = "+arg(string(req.DocType)))
	}
	if req.Status != "" {
		where = append(where, "status = "+arg(string(req.Status)))
	}
	if req.PartnerID != 0 {
		where = append(where, "partner_id = "+arg(req.PartnerID))
	}
	if req.DateFrom != nil {
		where = append(where, "issue_date >= "+arg(*req.DateFrom))
	}
	if req.DateTo != nil {
		where = append(where, "issue_date <= "+arg(*req.DateTo))
	}
	if req.Search != "" {
		where = append(where, "number ILIKE "+arg("%"+req.Search+"%"))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE ` + cond +
		` ORDER BY issue_date DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(req.Offset)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *doc)
	}
	return out, total, rows.Err()
}

func (t *pgTxRepository) CreateDocument(ctx context.Context, doc Document) (int64, error) {
	const q = `INSERT INTO documents
		(number, doc_type, partner_id, status, issue_date, due_date,
		 total_untaxed, total_tax, grand_total, paid_cash, paid_bank, amount_due,
		 source_doc_id, notes, confirmed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, q,
		doc.Number, doc.DocType, doc.PartnerID, doc.Status, doc.IssueDate, doc.DueDate,
		doc.TotalUntaxed, doc.TotalTax, doc.GrandTotal, doc.PaidCash, doc.PaidBank, doc.AmountDue,
		doc.SourceDocID, doc.Notes, doc.ConfirmedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create document: %w", err)
	}
	return id, nil
}

func (t *pgTxRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	const q = `INSERT INTO document_lines
		(document_id, product_id, account_id, hsn_code, description,
		 quantity, unit_price, tax_id, line_untaxed, line_tax, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, q,
		line.DocumentID, line.ProductID, line.AccountID, line.HSNCode, line.Description,
		line.Quantity, line.UnitPrice, line.TaxID, line.LineUntaxed, line.LineTax, line.LineTotal, line.LineOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert line: %w", err)
	}
	return id, nil
}

func (t *pgTxRepository) DeleteLines(ctx context.Context, documentID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return nil
}

func (t *pgTxRepository) UpdateDocumentHeader(ctx context.Context, doc Document) error {
	const q = `UPDATE documents SET
		partner_id = $2, issue_date = $3, due_date = $4, notes = $5,
		total_untaxed = $6, total_tax = $7, grand_total = $8,
		paid_cash = $9, paid_bank = $10, amount_due = $11, updated_at = now()
		WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q,
		doc.ID, doc.PartnerID, doc.IssueDate, doc.DueDate, doc.Notes,
		doc.TotalUntaxed, doc.TotalTax, doc.GrandTotal,
		doc.PaidCash, doc.PaidBank, doc.AmountDue,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %d", shared.ErrNotFound, doc.ID)
	}
	return nil
}

func (t *pgTxRepository) UpdateStatusIfCurrent(ctx context.Context, id int64, from, to DocStatus, at time.Time) (bool, error) {
	q := `UPDATE documents SET status = $3, updated_at = now()`
	switch to {
	case StatusConfirmed:
		q += `, confirmed_at = $4`
	case StatusCancelled:
		q += `, cancelled_at = $4`
	default:
		q += `, updated_at = GREATEST(updated_at, $4)`
	}
	q += ` WHERE id = $1 AND status = $2`
	tag, err := t.tx.Exec(ctx, q, id, from, to, at)
	if err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
