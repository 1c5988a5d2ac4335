package booking

import (
	"context"
	"errors"
	"log"

	"github.com/example/table-reservation/internal/inventory"
	"github.com/example/table-reservation/internal/model"
)

// ReservationStore is the persistence collaborator consumed by the core.
// Implementations must be safe for concurrent use; the manager is the only
// writer of reservation rows.
type ReservationStore interface {
	// Insert persists a reservation and returns its assigned id.
	Insert(ctx context.Context, r *model.Reservation) (uint64, error)
	// Delete removes a reservation by id; it reports whether a row existed.
	Delete(ctx context.Context, id uint64) (bool, error)
	// CountMatching returns the number of reservations in the given bucket.
	CountMatching(ctx context.Context, date string, hour, partySize int) (int, error)
	// Get loads a reservation by id; missing rows return ErrNotFound.
	Get(ctx context.Context, id uint64) (*model.Reservation, error)
	// ListByOwner returns the owner's reservations, newest date first.
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error)
	// ListAll returns every reservation, newest date first.
	ListAll(ctx context.Context) ([]model.Reservation, error)
}

// Manager admits and cancels reservations against the inventory policy.
// Admission decisions for the same (date, hour, partySize) bucket are
// serialized by a keyed mutex so that the count-check-insert sequence is
// atomic per bucket; different buckets never block each other.
type Manager struct {
	store     ReservationStore
	policy    *inventory.Policy
	validator *Validator
	locks     *bucketLocks
}

// NewManager constructs a Manager. All dependencies must be non-nil.
func NewManager(store ReservationStore, policy *inventory.Policy, validator *Validator) *Manager {
	if store == nil || policy == nil || validator == nil {
		panic("nil dependency passed to NewManager")
	}
	return &Manager{
		store:     store,
		policy:    policy,
		validator: validator,
		locks:     newBucketLocks(),
	}
}

// AttemptBook validates the request, then, holding the bucket's lock,
// re-reads the current count and inserts a reservation if capacity
// remains. It returns the admitted reservation, or a *ValidationError,
// ErrNoCapacity or *StorageError. Transient storage failures are retried
// once with fresh re-validation before being surfaced.
func (m *Manager) AttemptBook(ctx context.Context, date string, hour, partySize int, ownerID uint64) (*model.Reservation, error) {
	res, err := m.attemptBookOnce(ctx, date, hour, partySize, ownerID)
	if err != nil && IsStorage(err) {
		// One retry with re-validation; the clock may have crossed midnight
		// and the first failure may have been transient.
		res, err = m.attemptBookOnce(ctx, date, hour, partySize, ownerID)
	}
	return res, err
}

func (m *Manager) attemptBookOnce(ctx context.Context, date string, hour, partySize int, ownerID uint64) (*model.Reservation, error) {
	normDate, err := m.validator.Validate(date, hour, partySize)
	if err != nil {
		return nil, err
	}
	capacity, err := m.policy.CapacityFor(partySize)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonBadPartySize}
	}

	b := Bucket{Date: normDate, Hour: hour, PartySize: partySize}
	release := m.locks.acquire(b)
	defer release()

	count, err := m.store.CountMatching(ctx, normDate, hour, partySize)
	if err != nil {
		return nil, &StorageError{Op: "count", Err: err}
	}
	if count >= capacity {
		if count > capacity {
			// Invariant violation: more rows than tables. Degrade to "full"
			// and alarm; never crash the process over it.
			log.Printf("booking: WARNING bucket %s/%d/%d holds %d reservations, capacity %d",
				normDate, hour, partySize, count, capacity)
		}
		return nil, ErrNoCapacity
	}

	res := &model.Reservation{
		UserID:    ownerID,
		Date:      normDate,
		Hour:      hour,
		PartySize: partySize,
	}
	id, err := m.store.Insert(ctx, res)
	if err != nil {
		return nil, &StorageError{Op: "insert", Err: err}
	}
	res.ID = id
	return res, nil
}

// RemainingCapacity reports how many tables are still free in the bucket.
// The read happens under the bucket's lock so it reflects a consistent
// snapshot with respect to concurrent admissions. A count beyond capacity
// is logged as a warning and floored to zero.
func (m *Manager) RemainingCapacity(ctx context.Context, date string, hour, partySize int) (int, error) {
	normDate, err := m.validator.Validate(date, hour, partySize)
	if err != nil {
		return 0, err
	}
	capacity, err := m.policy.CapacityFor(partySize)
	if err != nil {
		return 0, &ValidationError{Reason: ReasonBadPartySize}
	}

	b := Bucket{Date: normDate, Hour: hour, PartySize: partySize}
	release := m.locks.acquire(b)
	defer release()

	count, err := m.store.CountMatching(ctx, normDate, hour, partySize)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	remaining := capacity - count
	if remaining < 0 {
		log.Printf("booking: WARNING bucket %s/%d/%d holds %d reservations, capacity %d",
			normDate, hour, partySize, count, capacity)
		remaining = 0
	}
	return remaining, nil
}

// AttemptCancel deletes a reservation if the actor is allowed to: owners
// may cancel their own reservations, administrators may cancel any. It
// returns ErrNotFound, ErrForbidden or a *StorageError; nil means the
// reservation was cancelled. A transient storage failure is retried once
// by re-running the whole sequence, so existence and ownership are checked
// afresh before the second delete.
func (m *Manager) AttemptCancel(ctx context.Context, reservationID, actorID uint64, actorRole string) error {
	err := m.attemptCancelOnce(ctx, reservationID, actorID, actorRole)
	if err != nil && IsStorage(err) {
		err = m.attemptCancelOnce(ctx, reservationID, actorID, actorRole)
	}
	return err
}

func (m *Manager) attemptCancelOnce(ctx context.Context, reservationID, actorID uint64, actorRole string) error {
	res, err := m.store.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return &StorageError{Op: "get", Err: err}
	}
	if actorRole != model.RoleAdmin && res.UserID != actorID {
		return ErrForbidden
	}

	ok, err := m.store.Delete(ctx, reservationID)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	if !ok {
		// Row vanished between the ownership check and the delete; a
		// concurrent cancel already won.
		return ErrNotFound
	}
	return nil
}

// ListByOwner exposes the store's owner listing to the handler layer.
func (m *Manager) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	items, err := m.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return items, nil
}

// ListAll exposes the store's full listing for administrators.
func (m *Manager) ListAll(ctx context.Context) ([]model.Reservation, error) {
	items, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return items, nil
}
