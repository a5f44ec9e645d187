package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines movement data access.
type Repository interface {
	CreateMovement(ctx context.Context, m Movement) (int64, error)
	ListMovements(ctx context.Context, productID int64, limit, offset int) ([]Movement, int, error)
	OnHandByProduct(ctx context.Context) ([]OnHand, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

var _ Repository = (*pgRepository)(nil)

func (r *pgRepository) CreateMovement(ctx context.Context, m Movement) (int64, error) {
	const q = `INSERT INTO inventory_movements (product_id, movement_type, quantity, reference, moved_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, q, m.ProductID, m.Type, m.Quantity, m.Reference, m.MovedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert movement: %w", err)
	}
	return id, nil
}

func (r *pgRepository) ListMovements(ctx context.Context, productID int64, limit, offset int) ([]Movement, int, error) {
	clause := ""
	args := []any{}
	if productID != 0 {
		clause = " WHERE product_id = $1"
		args = append(args, productID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM inventory_movements"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, product_id, movement_type, quantity, reference, moved_at, created_at
		FROM inventory_movements%s ORDER BY moved_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		clause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]Movement, 0, limit)
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Reference, &m.MovedAt, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return out, total, nil
}

func (r *pgRepository) OnHandByProduct(ctx context.Context) ([]OnHand, error) {
	const q = `SELECT product_id,
		sum(CASE WHEN movement_type = 'IN' THEN quantity ELSE -quantity END) AS on_hand
		FROM inventory_movements GROUP BY product_id ORDER BY product_id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("on-hand query: %w", err)
	}
	defer rows.Close()

	var out []OnHand
	for rows.Next() {
		var o OnHand
		if err := rows.Scan(&o.ProductID, &o.Quantity); err != nil {
			return nil, fmt.Errorf("scan on-hand: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("on-hand query: %w", err)
	}
	return out, nil
}
