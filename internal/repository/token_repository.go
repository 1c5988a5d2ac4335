package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid is returned when a refresh token hash does not match an
// active session. Unknown, revoked and expired tokens all collapse into this
// one error so login-probing clients learn nothing about which case applied.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// TokenRepo persists refresh-token sessions in the `refresh_tokens` table.
// A row is one login session: it holds the SHA-256 hash of the token (never
// the raw value) and is revoked rather than deleted, so a user's session
// history survives logout and password changes.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh records a new session for the user. Expiry is stored in UTC
// to match the rest of the schema.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
	           VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt.UTC())
	return err
}

// ValidateRefresh resolves a token hash to its owning user id, or returns
// ErrRefreshInvalid when the session cannot authenticate anymore.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens
	           WHERE token_hash = ? LIMIT 1`
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRefreshInvalid
		}
		return 0, err
	}
	if !refreshUsable(expiresAt, revokedAt, time.Now().UTC()) {
		return 0, ErrRefreshInvalid
	}
	return userID, nil
}

// refreshUsable reports whether a session row still authenticates at the
// given instant: not revoked and not past its expiry.
func refreshUsable(expiresAt time.Time, revokedAt sql.NullTime, now time.Time) bool {
	if revokedAt.Valid {
		return false
	}
	return now.Before(expiresAt)
}

// RevokeByHash ends the session behind one token (logout, or rotation after
// a refresh). Revoking an unknown or already revoked hash is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
	           WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForUser ends every active session of a user. Called after a
// password change so refresh tokens issued under the old password die with
// it.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
	           WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
