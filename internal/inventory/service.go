package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/masterdata"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service records and lists stock movements.
type Service struct {
	repo Repository
	md   masterdata.Reader
	now  func() time.Time
}

// NewService constructs an inventory service.
func NewService(repo Repository, md masterdata.Reader) *Service {
	return &Service{repo: repo, md: md, now: func() time.Time { return time.Now().UTC() }}
}

// Create records a movement after checking the product exists.
func (s *Service) Create(ctx context.Context, req CreateMovementRequest) (*Movement, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown movement type %q", shared.ErrValidation, req.Type)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	if _, err := s.md.GetProduct(ctx, req.ProductID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", shared.ErrReferential, req.ProductID)
		}
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	m := Movement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reference: req.Reference,
		MovedAt:   s.now(),
	}
	if req.MovedAt != nil {
		m.MovedAt = *req.MovedAt
	}

	id, err := s.repo.CreateMovement(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// List returns movements, optionally filtered to one product.
func (s *Service) List(ctx context.Context, productID int64, params shared.ListParams) ([]Movement, int, error) {
	return s.repo.ListMovements(ctx, productID, params.Limit, params.Offset)
}

// OnHand returns the signed quantity per product.
func (s *Service) OnHand(ctx context.Context) ([]OnHand, error) {
	return s.repo.OnHandByProduct(ctx)
}
