// Package payments records cash and bank payments against customer invoices
// and vendor bills, and keeps each document's paid accumulators and amount
// due consistent with the payments applied to it.
package payments

import (
	"time"
)

// Direction distinguishes money received from customers and money sent to
// vendors.
type Direction string

const (
	DirectionSend    Direction = "SEND"
	DirectionReceive Direction = "RECEIVE"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionSend || d == DirectionReceive
}

// Mode is the payment channel. It decides which paid accumulator on the
// settled document the amount lands in.
type Mode string

const (
	ModeCash Mode = "CASH"
	ModeBank Mode = "BANK"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCash || m == ModeBank
}

// Status is the payment lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Payment is a registered cash or bank movement, optionally settling one
// invoice or bill. Confirmed payments have already been applied to their
// document; cancelling reverses the application exactly.
type Payment struct {
	ID             int64      `json:"id"`
	Number         string     `json:"number"`
	Direction      Direction  `json:"direction"`
	PartnerID      int64      `json:"partner_id"`
	Mode           Mode       `json:"mode"`
	Status         Status     `json:"status"`
	DocumentID     *int64     `json:"document_id,omitempty"`
	Amount         float64    `json:"amount"`
	PaymentDate    time.Time  `json:"payment_date"`
	Notes          *string    `json:"notes,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreatePaymentRequest creates a draft payment. A nil Amount on a
// document-linked payment defaults to the document's amount due at creation
// time; the default is not re-evaluated afterwards.
type CreatePaymentRequest struct {
	Direction      Direction  `json:"direction" validate:"required"`
	PartnerID      int64      `json:"partner_id" validate:"required,gt=0"`
	Mode           Mode       `json:"mode" validate:"required"`
	DocumentID     *int64     `json:"document_id,omitempty" validate:"omitempty,gt=0"`
	Amount         *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty" validate:"omitempty,uuid4"`
}

// ListPaymentsRequest filters payment listings.
type ListPaymentsRequest struct {
	Direction  Direction
	Status     Status
	PartnerID  int64
	DocumentID int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
