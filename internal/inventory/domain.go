// Package inventory records signed stock movements per product. On-hand
// quantity is the sum of IN minus OUT movements; valuation happens in the
// reports package.
package inventory

import (
	"time"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// Movement is one recorded stock change.
type Movement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  float64      `json:"quantity"`
	Reference *string      `json:"reference,omitempty"`
	MovedAt   time.Time    `json:"moved_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// CreateMovementRequest records a movement.
type CreateMovementRequest struct {
	ProductID int64        `json:"product_id" validate:"required,gt=0"`
	Type      MovementType `json:"type" validate:"required"`
	Quantity  float64      `json:"quantity" validate:"required,gt=0"`
	Reference *string      `json:"reference,omitempty"`
	MovedAt   *time.Time   `json:"moved_at,omitempty"`
}

// OnHand is a product's current signed quantity.
type OnHand struct {
	ProductID int64   `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}
