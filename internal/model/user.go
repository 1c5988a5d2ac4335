package model

import "time"

// User represents an application user record as stored in the `users`
// table. Handlers define separate response types with their own JSON
// tags; these structs are used by the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name (at most 16 characters).
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (USER or ADMIN).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Roles recognised by the application. Standard users may only manage
// their own reservations; administrators may list and cancel any.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user and carries expiry and revocation metadata. The
// plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
