package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string, replacedBy *string) error
	RevokeExpiredForUser(ctx context.Context, userID uuid.UUID) error
}

type postgresRefreshTokenRepository struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepository(db *pgxpool.Pool) RefreshTokenRepository {
	return &postgresRefreshTokenRepository{db: db}
}

func (r *postgresRefreshTokenRepository) Create(ctx context.Context, t *RefreshToken) error {
	t.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked_at, replaced_by_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.UserID, t.Token, t.ExpiresAt, t.RevokedAt, t.ReplacedByToken, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert refresh token: %w", err)
	}

	return nil
}

func (r *postgresRefreshTokenRepository) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, revoked_at, replaced_by_token, created_at
		FROM refresh_tokens
		WHERE token = $1
	`

	var t RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedByToken, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("repository: failed to select refresh token: %w", err)
	}

	return &t, nil
}

func (r *postgresRefreshTokenRepository) Revoke(ctx context.Context, token string, replacedBy *string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1, replaced_by_token = $2
		WHERE token = $3 AND revoked_at IS NULL
	`
	cmdTag, err := r.db.Exec(ctx, query, time.Now().UTC(), replacedBy, token)
	if err != nil {
		return fmt.Errorf("repository: failed to revoke refresh token: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

func (r *postgresRefreshTokenRepository) RevokeExpiredForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1
		WHERE user_id = $2 AND revoked_at IS NULL AND expires_at <= $1
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("repository: failed to revoke expired refresh tokens for user %s: %w", userID, err)
	}

	return nil
}
