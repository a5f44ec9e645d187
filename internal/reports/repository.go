package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// StockRow is one product with its signed on-hand quantity and current
// purchase price.
type StockRow struct {
	ProductID     int64
	Code          string
	Name          string
	OnHand        float64
	PurchasePrice float64
}

// AccountAmount is a summed bucket per account name.
type AccountAmount struct {
	Account string
	Amount  float64
}

// BalanceSums carries the document-level aggregates the balance sheet
// needs, split by invoice and bill side.
type BalanceSums struct {
	InvoicePaidBank float64
	InvoicePaidCash float64
	BillPaidBank    float64
	BillPaidCash    float64
	InvoiceDue      float64
	BillDue         float64
	InvoiceTotal    float64
	BillTotal       float64
}

// Repository fetches report source aggregates.
type Repository interface {
	StockRows(ctx context.Context) ([]StockRow, error)
	IncomeByAccount(ctx context.Context, rng shared.DateRange) ([]AccountAmount, error)
	ExpenseByAccount(ctx context.Context, rng shared.DateRange) ([]AccountAmount, error)
	BalanceSums(ctx context.Context, rng shared.DateRange) (*BalanceSums, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) StockRows(ctx context.Context) ([]StockRow, error) {
	const q = `SELECT p.id, p.code, p.name,
		coalesce(sum(CASE WHEN m.movement_type = 'IN' THEN m.quantity ELSE -m.quantity END), 0) AS on_hand,
		p.purchase_price
		FROM products p
		LEFT JOIN inventory_movements m ON m.product_id = p.id
		WHERE p.is_active
		GROUP BY p.id, p.code, p.name, p.purchase_price
		ORDER BY p.code`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("stock rows: %w", err)
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.ProductID, &s.Code, &s.Name, &s.OnHand, &s.PurchasePrice); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock rows: %w", err)
	}
	return out, nil
}

func (r *pgRepository) IncomeByAccount(ctx context.Context, rng shared.DateRange) ([]AccountAmount, error) {
	return r.accountAmounts(ctx, rng, "CUSTOMER_INVOICE", "INCOME")
}

func (r *pgRepository) ExpenseByAccount(ctx context.Context, rng shared.DateRange) ([]AccountAmount, error) {
	return r.accountAmounts(ctx, rng, "VENDOR_BILL", "EXPENSE")
}

func (r *pgRepository) accountAmounts(ctx context.Context, rng shared.DateRange, docType, accountType string) ([]AccountAmount, error) {
	where := []string{"d.status = 'CONFIRMED'", "d.doc_type = $1", "a.type = $2"}
	args := []any{docType, accountType}
	if rng.From != nil {
		args = append(args, *rng.From)
		where = append(where, fmt.Sprintf("d.issue_date >= $%d", len(args)))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		where = append(where, fmt.Sprintf("d.issue_date <= $%d", len(args)))
	}

	query := `SELECT a.name, sum(l.line_untaxed)
		FROM document_lines l
		JOIN documents d ON d.id = l.document_id
		JOIN accounts a ON a.id = l.account_id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY a.name
		ORDER BY a.name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("account amounts: %w", err)
	}
	defer rows.Close()

	var out []AccountAmount
	for rows.Next() {
		var a AccountAmount
		if err := rows.Scan(&a.Account, &a.Amount); err != nil {
			return nil, fmt.Errorf("scan account amount: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account amounts: %w", err)
	}
	return out, nil
}

func (r *pgRepository) BalanceSums(ctx context.Context, rng shared.DateRange) (*BalanceSums, error) {
	where := []string{"status = 'CONFIRMED'", "doc_type IN ('CUSTOMER_INVOICE', 'VENDOR_BILL')"}
	var args []any
	if rng.From != nil {
		args = append(args, *rng.From)
		where = append(where, fmt.Sprintf("issue_date >= $%d", len(args)))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		where = append(where, fmt.Sprintf("issue_date <= $%d", len(args)))
	}

	query := `SELECT
		coalesce(sum(paid_bank) FILTER (WHERE doc_type = 'CUSTOMER_INVOICE'), 0),
		coalesce(sum(paid_cash) FILTER (WHERE doc_type = 'CUSTOMER_INVOICE'), 0),
		coalesce(sum(paid_bank) FILTER (WHERE doc_type = 'VENDOR_BILL'), 0),
		coalesce(sum(paid_cash) FILTER (WHERE doc_type = 'VENDOR_BILL'), 0),
		coalesce(sum(amount_due) FILTER (WHERE doc_type = 'CUSTOMER_INVOICE'), 0),
		coalesce(sum(amount_due) FILTER (WHERE doc_type = 'VENDOR_BILL'), 0),
		coalesce(sum(grand_total) FILTER (WHERE doc_type = 'CUSTOMER_INVOICE'), 0),
		coalesce(sum(grand_total) FILTER (WHERE doc_type = 'VENDOR_BILL'), 0)
		FROM documents WHERE ` + strings.Join(where, " AND ")

	var b BalanceSums
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&b.InvoicePaidBank, &b.InvoicePaidCash, &b.BillPaidBank, &b.BillPaidCash,
		&b.InvoiceDue, &b.BillDue, &b.InvoiceTotal, &b.BillTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("balance sums: %w", err)
	}
	return &b, nil
}
