package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/itdesk/internal/domain"
)

// PasscodeRepository manages one-time passcode persistence.
type PasscodeRepository interface {
	Create(ctx context.Context, code *domain.Passcode) error
	// Latest returns the most recently issued passcode for the pair,
	// consumed or not. pgx.ErrNoRows when none exists.
	Latest(ctx context.Context, email string, purpose domain.PasscodePurpose) (*domain.Passcode, error)
	// InvalidateOutstanding marks every unconsumed passcode for the pair
	// consumed, so only the next issued code remains valid.
	InvalidateOutstanding(ctx context.Context, email string, purpose domain.PasscodePurpose) error
	// MarkConsumed consumes a passcode. The update is guarded on the row
	// still being unconsumed; pgx.ErrNoRows signals a lost race.
	MarkConsumed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type passcodeRepository struct {
	pool *pgxpool.Pool
}

// NewPasscodeRepository constructs the repository.
func NewPasscodeRepository(pool *pgxpool.Pool) PasscodeRepository {
	return &passcodeRepository{pool: pool}
}

func (r *passcodeRepository) Create(ctx context.Context, code *domain.Passcode) error {
	const query = `
        INSERT INTO passcodes (email, code_hash, purpose, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		code.Email,
		code.CodeHash,
		code.Purpose,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

func (r *passcodeRepository) Latest(ctx context.Context, email string, purpose domain.PasscodePurpose) (*domain.Passcode, error) {
	const query = `
        SELECT id, email, code_hash, purpose, created_at, expires_at, consumed_at
        FROM passcodes
        WHERE LOWER(email)=LOWER($1) AND purpose=$2
        ORDER BY created_at DESC
        LIMIT 1`
	var code domain.Passcode
	if err := r.pool.QueryRow(ctx, query, email, purpose).Scan(
		&code.ID,
		&code.Email,
		&code.CodeHash,
		&code.Purpose,
		&code.CreatedAt,
		&code.ExpiresAt,
		&code.ConsumedAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *passcodeRepository) InvalidateOutstanding(ctx context.Context, email string, purpose domain.PasscodePurpose) error {
	const query = `
        UPDATE passcodes SET consumed_at=NOW()
        WHERE LOWER(email)=LOWER($1) AND purpose=$2 AND consumed_at IS NULL`
	_, err := r.pool.Exec(ctx, query, email, purpose)
	return err
}

func (r *passcodeRepository) MarkConsumed(ctx context.Context, id string) error {
	const query = `
        UPDATE passcodes SET consumed_at=NOW()
        WHERE id=$1 AND consumed_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *passcodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM passcodes WHERE expires_at < $1`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
