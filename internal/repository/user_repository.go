package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/table-reservation/internal/model"
	"github.com/example/table-reservation/internal/utils"
)

// UserRepo persists users (single `users` table).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUsernameExists is returned when registering with a taken username.
var ErrUsernameExists = errors.New("username already exists")

// Create inserts a user and returns its ID. Usernames are stored as
// given minus surrounding whitespace; uniqueness is enforced by the DB.
func (r *UserRepo) Create(ctx context.Context, username, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?,?,?)",
		username, hash, role)
	if err != nil {
		// 1062 = MySQL duplicate entry on the unique username index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.TrimSpace(username)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,is_active,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?",
		hash, time.Now().UTC(), id)
	return err
}

// EnsureAdmin creates the initial administrator account when no ADMIN
// user exists yet. It returns true when an account was created.
func (r *UserRepo) EnsureAdmin(ctx context.Context, username, password string, cost int) (bool, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE role=? LIMIT 1", model.RoleAdmin).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	if _, err := r.Create(ctx, username, password, model.RoleAdmin, cost); err != nil {
		return false, err
	}
	return true, nil
}
