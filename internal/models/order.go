package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusCompleted = "completed"
)

// Order records a completed credit purchase. SessionID is the external
// payment-session identifier and is unique: replaying the same checkout
// session yields the same order row and credits the balance only once.
type Order struct {
	ID         uuid.UUID
	SessionID  string
	UserID     uuid.UUID
	Pack       string
	Credits    int64
	AmountPaid decimal.Decimal
	Status     string
	CreatedAt  time.Time
}
