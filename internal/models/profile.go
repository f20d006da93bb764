package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CreditReasonPurchase = "purchase"
	CreditReasonSignup   = "signup"
	CreditReasonAdmin    = "admin"
)

// Profile is the per-user record holding the credit balance.
// Balance is debited per generation job and never goes below zero.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   int64
	Debited   int64 // lifetime total of successful debits
	CreatedAt time.Time
	UpdatedAt time.Time
}
