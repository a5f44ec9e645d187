package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	movements []Movement
	nextID    int64
}

func (m *memoryRepo) CreateMovement(_ context.Context, mv Movement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	mv.ID = m.nextID
	m.movements = append(m.movements, mv)
	return mv.ID, nil
}

func (m *memoryRepo) ListMovements(_ context.Context, productID int64, limit, offset int) ([]Movement, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Movement
	for _, mv := range m.movements {
		if productID != 0 && mv.ProductID != productID {
			continue
		}
		out = append(out, mv)
	}
	return out, len(out), nil
}

func (m *memoryRepo) OnHandByProduct(_ context.Context) ([]OnHand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[int64]float64{}
	var order []int64
	for _, mv := range m.movements {
		if _, ok := sums[mv.ProductID]; !ok {
			order = append(order, mv.ProductID)
		}
		if mv.Type == MovementIn {
			sums[mv.ProductID] += mv.Quantity
		} else {
			sums[mv.ProductID] -= mv.Quantity
		}
	}
	var out []OnHand
	for _, id := range order {
		out = append(out, OnHand{ProductID: id, Quantity: sums[id]})
	}
	return out, nil
}

var _ Repository = (*memoryRepo)(nil)

func newService(t *testing.T) (*Service, *memoryRepo, masterdata.Product) {
	t.Helper()
	md := masterdata.NewMemoryStore()
	product := md.PutProduct(masterdata.Product{Code: "DESK-01", Name: "Office Desk", PurchasePrice: 1500, IsActive: true})
	repo := &memoryRepo{}
	return NewService(repo, md), repo, product
}

func TestCreateMovement(t *testing.T) {
	svc, _, product := newService(t)

	m, err := svc.Create(context.Background(), CreateMovementRequest{
		ProductID: product.ID, Type: MovementIn, Quantity: 10,
	})
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.False(t, m.MovedAt.IsZero())
}

func TestCreateMovementUnknownProduct(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), CreateMovementRequest{
		ProductID: 999, Type: MovementIn, Quantity: 1,
	})
	require.ErrorIs(t, err, shared.ErrReferential)
}

func TestCreateMovementBadType(t *testing.T) {
	svc, _, product := newService(t)

	_, err := svc.Create(context.Background(), CreateMovementRequest{
		ProductID: product.ID, Type: "SIDEWAYS", Quantity: 1,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestOnHandSignsMovements(t *testing.T) {
	svc, _, product := newService(t)
	ctx := context.Background()

	for _, mv := range []struct {
		typ MovementType
		qty float64
	}{{MovementIn, 10}, {MovementIn, 5}, {MovementOut, 3}} {
		_, err := svc.Create(ctx, CreateMovementRequest{ProductID: product.ID, Type: mv.typ, Quantity: mv.qty})
		require.NoError(t, err)
	}

	onHand, err := svc.OnHand(ctx)
	require.NoError(t, err)
	require.Len(t, onHand, 1)
	require.InDelta(t, 12.0, onHand[0].Quantity, 1e-9)
}

func TestOnHandCanGoNegative(t *testing.T) {
	svc, _, product := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateMovementRequest{ProductID: product.ID, Type: MovementOut, Quantity: 4})
	require.NoError(t, err)

	onHand, err := svc.OnHand(ctx)
	require.NoError(t, err)
	require.InDelta(t, -4.0, onHand[0].Quantity, 1e-9)
}
