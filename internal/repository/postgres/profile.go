package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (id, user_id, balance, debited)
VALUES ($1, $2, 0, 0)
RETURNING id, user_id, balance, debited, created_at, updated_at
`

func (r *ProfileRepo) CreateProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile, uuid.New(), userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return profile, apperrors.ErrProfileAlreadyExists
		}

		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getProfile = `-- name: GetProfile
SELECT id, user_id, balance, debited, created_at, updated_at FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Profile, error) {
	query := getProfile
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

// Conditional on sufficient balance: the predicate plus the CHECK
// constraint keep the balance non negative whatever the caller does
const applyDebit = `-- name: ApplyDebit
UPDATE profiles
SET balance = balance - $2, debited = debited + $2, updated_at = now()
WHERE user_id = $1 AND balance >= $2
RETURNING id, user_id, balance, debited, created_at, updated_at
`

func (r *ProfileRepo) ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, applyDebit, userID, amount)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No row updated: either the profile is missing or the balance is short
		_, getErr := r.GetProfile(ctx, userID, false)
		if getErr != nil {
			return profile, getErr
		}
		return profile, apperrors.ErrInsufficientCredits
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

const applyCredit = `-- name: ApplyCredit
INSERT INTO profiles (id, user_id, balance, debited)
VALUES ($1, $2, $3, 0)
ON CONFLICT (user_id) DO UPDATE
SET balance = profiles.balance + EXCLUDED.balance, updated_at = now()
RETURNING id, user_id, balance, debited, created_at, updated_at
`

func (r *ProfileRepo) ApplyCredit(ctx context.Context, userID uuid.UUID, amount int64) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, applyCredit, uuid.New(), userID, amount)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Balance, &p.Debited, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
