package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OTPCodeTTL is how long an issued login code stays valid.
const OTPCodeTTL = 5 * time.Minute

// OTPStore persists pending one-time login codes.
type OTPStore interface {
	Create(ctx context.Context, code OTPCode) error
	GetActiveByIdentifier(ctx context.Context, identifier string) (OTPCode, error)
	Consume(ctx context.Context, id uuid.UUID) error
}

// OTPCode is a pending one-time login code. The identifier is the raw
// email or phone number the code was requested for; only a hash of the
// code itself is stored.
type OTPCode struct {
	ID         uuid.UUID
	Identifier string
	CodeHash   []byte
	Purpose    string
	ExpiresAt  time.Time
	Consumed   bool
	CreatedAt  time.Time
}

// OTPPurposeLogin is the only purpose currently issued.
const OTPPurposeLogin = "LOGIN"
