package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const maxAttempts = 3

// Repository is the PostgreSQL backed allocator. The increment is a single
// atomic upsert, never a read-then-write.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Next allocates the next value for key, retrying a bounded number of times
// on transient store conflicts before surfacing shared.ErrSequenceExhausted.
func (r *Repository) Next(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("%w: empty sequence key", shared.ErrValidation)
	}
	const q = `INSERT INTO sequence_counters (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var value int64
		err := r.pool.QueryRow(ctx, q, key).Scan(&value)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !transient(err) {
			break
		}
	}
	return 0, fmt.Errorf("%w: key %q: %v", shared.ErrSequenceExhausted, key, lastErr)
}

// transient reports whether the error is a serialization or deadlock failure
// worth one more attempt.
func transient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// MemoryAllocator is a mutex-guarded in-process allocator for tests and the
// seeder.
type MemoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryAllocator constructs an empty allocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{counters: make(map[string]int64)}
}

func (a *MemoryAllocator) Next(_ context.Context, key string) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("%w: empty sequence key", shared.ErrValidation)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[key]++
	return a.counters[key], nil
}

var (
	_ Allocator = (*Repository)(nil)
	_ Allocator = (*MemoryAllocator)(nil)
)
