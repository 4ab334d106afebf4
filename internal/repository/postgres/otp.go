package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fieldcart/backoffice/internal/model"
)

var _ model.OTPStore = (*OTPRepository)(nil)

type OTPRepository struct {
	db *Connection
}

func NewOTPRepository(db *Connection) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, code model.OTPCode) error {
	const query = `
        INSERT INTO otp_codes (id, identifier, code_hash, purpose, expires_at, consumed, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())
    `

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		code.ID, code.Identifier, code.CodeHash, code.Purpose, code.ExpiresAt, code.Consumed,
	)
	if err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

// GetActiveByIdentifier returns the most recently issued unconsumed code for
// the identifier. Re-requesting a code supersedes earlier ones.
func (r *OTPRepository) GetActiveByIdentifier(ctx context.Context, identifier string) (model.OTPCode, error) {
	const query = `
        SELECT id, identifier, code_hash, purpose, expires_at, consumed, created_at
        FROM otp_codes
        WHERE identifier = $1 AND consumed = FALSE
        ORDER BY created_at DESC
        LIMIT 1
    `
	var c model.OTPCode
	err := r.db.QueryRow(ctx, query, identifier).Scan(
		&c.ID, &c.Identifier, &c.CodeHash, &c.Purpose, &c.ExpiresAt, &c.Consumed, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OTPCode{}, model.ErrNotFound
		}
		return model.OTPCode{}, fmt.Errorf("failed to get otp code: %w", err)
	}
	return c, nil
}

func (r *OTPRepository) Consume(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE otp_codes SET consumed = TRUE WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}
	return nil
}
