package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo stores refresh token hashes.  Raw tokens never touch the
// database; only their SHA-256 hex digest is persisted.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// ErrTokenInvalid covers unknown, expired and revoked refresh tokens alike,
// so callers cannot distinguish which case they hit.
var ErrTokenInvalid = errors.New("refresh token invalid")

// Store persists a refresh token hash for a user.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, expiresAt.UTC())
	return err
}

// Validate resolves a token hash to its user id when the token is live.
func (r *TokenRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()
		 LIMIT 1`, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Revoke marks a single token as revoked.  Revoking an unknown or already
// revoked token returns ErrTokenInvalid.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeAllForUser revokes every live token a user holds, for logout
// everywhere and account deactivation.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL",
		userID)
	return err
}

// PurgeExpired deletes tokens that expired before the cutoff.  Run by the
// background sweep to keep the table from growing without bound.
func (r *TokenRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
