package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Reader is the lookup surface the document engine consumes. A missing id
// reports shared.ErrNotFound, never a panic or a zero value.
type Reader interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetPartner(ctx context.Context, id int64) (Partner, error)
	GetTax(ctx context.Context, id int64) (Tax, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
}

// Repository provides PostgreSQL backed persistence for master data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	const q = `SELECT id, code, name, sales_price, purchase_price, hsn_code, tax_id,
		income_account_id, expense_account_id, is_active, created_at, updated_at
		FROM products WHERE id = $1`
	var p Product
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.SalesPrice, &p.PurchasePrice, &p.HSNCode, &p.TaxID,
		&p.IncomeAccountID, &p.ExpenseAccountID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetPartner(ctx context.Context, id int64) (Partner, error) {
	const q = `SELECT id, code, name, kind, email, phone, is_active, created_at, updated_at
		FROM partners WHERE id = $1`
	var p Partner
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.Kind, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, fmt.Errorf("%w: partner %d", shared.ErrNotFound, id)
		}
		return Partner{}, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

func (r *Repository) GetTax(ctx context.Context, id int64) (Tax, error) {
	const q = `SELECT id, name, method, rate FROM taxes WHERE id = $1`
	var t Tax
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Method, &t.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
		}
		return Tax{}, fmt.Errorf("get tax: %w", err)
	}
	return t, nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	const q = `SELECT id, code, name, type FROM accounts WHERE id = $1`
	var a Account
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Code, &a.Name, &a.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account %d", shared.ErrNotFound, id)
		}
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p Product) (int64, error) {
	const q = `INSERT INTO products
		(code, name, sales_price, purchase_price, hsn_code, tax_id, income_account_id, expense_account_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now()) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, q,
		p.Code, p.Name, p.SalesPrice, p.PurchasePrice, p.HSNCode, p.TaxID,
		p.IncomeAccountID, p.ExpenseAccountID, p.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

func (r *Repository) CreatePartner(ctx context.Context, p Partner) (int64, error) {
	const q = `INSERT INTO partners (code, name, kind, email, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now()) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, q, p.Code, p.Name, p.Kind, p.Email, p.Phone, p.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create partner: %w", err)
	}
	return id, nil
}

func (r *Repository) CreateTax(ctx context.Context, t Tax) (int64, error) {
	const q = `INSERT INTO taxes (name, method, rate) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, q, t.Name, t.Method, t.Rate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create tax: %w", err)
	}
	return id, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a Account) (int64, error) {
	const q = `INSERT INTO accounts (code, name, type) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, q, a.Code, a.Name, a.Type).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

func (r *Repository) ListProducts(ctx context.Context, params shared.ListParams) ([]Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	const q = `SELECT id, code, name, sales_price, purchase_price, hsn_code, tax_id,
		income_account_id, expense_account_id, is_active, created_at, updated_at
		FROM products ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.SalesPrice, &p.PurchasePrice, &p.HSNCode, &p.TaxID,
			&p.IncomeAccountID, &p.ExpenseAccountID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repository) ListPartners(ctx context.Context, kind PartnerKind, params shared.ListParams) ([]Partner, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM partners WHERE ($1 = '' OR kind = $1)`, string(kind)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count partners: %w", err)
	}
	const q = `SELECT id, code, name, kind, email, phone, is_active, created_at, updated_at
		FROM partners WHERE ($1 = '' OR kind = $1) ORDER BY code LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, string(kind), params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()
	var out []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Kind, &p.Email, &p.Phone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan partner: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repository) ListTaxes(ctx context.Context) ([]Tax, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, method, rate FROM taxes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()
	var out []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Method, &t.Rate); err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, type FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
