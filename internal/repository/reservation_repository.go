package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/table-reservation/internal/booking"
	"github.com/example/table-reservation/internal/model"
)

// ReservationRepo persists reservations in the `reservations` table and
// implements booking.ReservationStore. All timestamps are stored in UTC.
// Inserts run inside a transaction with a locking count of the target
// bucket so that the commit itself re-checks the rows it raced with; the
// booking manager additionally serializes callers per bucket, which makes
// this process the sole writer for any bucket.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Insert stores a reservation and returns the generated id. The row is
// written inside a transaction: the bucket count is taken with FOR UPDATE
// before the insert, so concurrent transactions on the same bucket
// serialize at the database as well.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the bucket's rows for the duration of the transaction.
	const lockQ = `SELECT COUNT(*) FROM reservations
	               WHERE res_date = ? AND res_hour = ? AND party_size = ?
	               FOR UPDATE`
	var count int
	if err := tx.QueryRowContext(ctx, lockQ, res.Date, res.Hour, res.PartySize).Scan(&count); err != nil {
		return 0, err
	}

	const ins = `INSERT INTO reservations (user_id, res_date, res_hour, party_size)
	             VALUES (?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, ins, res.UserID, res.Date, res.Hour, res.PartySize)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	// Query back created_at so the caller sees the stored row.
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, id).Scan(&res.CreatedAt); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// Delete removes a reservation by id. It reports whether a row existed.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountMatching returns the number of reservations in the given bucket.
func (r *ReservationRepo) CountMatching(ctx context.Context, date string, hour, partySize int) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE res_date = ? AND res_hour = ? AND party_size = ?`
	var count int
	err := r.db.QueryRowContext(ctx, q, date, hour, partySize).Scan(&count)
	return count, err
}

// Get loads a reservation by id. Missing rows map to booking.ErrNotFound
// so the core never sees driver sentinels.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, res_date, res_hour, party_size, created_at
	           FROM reservations WHERE id = ? LIMIT 1`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.Date, &res.Hour, &res.PartySize, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByOwner returns all reservations for a user, newest date first
// (matching the original listing order).
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, res_date, res_hour, party_size, created_at
	           FROM reservations WHERE user_id = ?
	           ORDER BY res_date DESC, res_hour DESC, id DESC`
	return r.list(ctx, q, ownerID)
}

// ListAll returns every reservation, newest date first. Used by the admin
// listing endpoint.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT id, user_id, res_date, res_hour, party_size, created_at
	           FROM reservations
	           ORDER BY res_date DESC, res_hour DESC, id DESC`
	return r.list(ctx, q)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.Date, &res.Hour, &res.PartySize, &res.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
