package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/table-reservation/internal/inventory"
	"github.com/example/table-reservation/internal/model"
)

// memStore is an in-memory ReservationStore used to exercise the manager
// without a database. countDelay widens the check-then-insert window so a
// missing bucket lock would be caught by the concurrency tests. failCounts
// and failDeletes inject transient storage errors.
type memStore struct {
	mu          sync.Mutex
	rows        map[uint64]model.Reservation
	nextID      uint64
	countDelay  time.Duration
	failCounts  int
	failGets    int
	failDeletes int
	inserts     int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uint64]model.Reservation)}
}

var errTransient = errors.New("transient backend failure")

func (s *memStore) Insert(ctx context.Context, r *model.Reservation) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := *r
	rec.ID = s.nextID
	rec.CreatedAt = time.Now().UTC()
	s.rows[rec.ID] = rec
	s.inserts++
	return rec.ID, nil
}

func (s *memStore) Delete(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	if s.failDeletes > 0 {
		s.failDeletes--
		s.mu.Unlock()
		return false, errTransient
	}
	_, ok := s.rows[id]
	delete(s.rows, id)
	s.mu.Unlock()
	return ok, nil
}

func (s *memStore) CountMatching(ctx context.Context, date string, hour, partySize int) (int, error) {
	s.mu.Lock()
	if s.failCounts > 0 {
		s.failCounts--
		s.mu.Unlock()
		return 0, errTransient
	}
	count := 0
	for _, r := range s.rows {
		if r.Date == date && r.Hour == hour && r.PartySize == partySize {
			count++
		}
	}
	delay := s.countDelay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return count, nil
}

func (s *memStore) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGets > 0 {
		s.failGets--
		return nil, errTransient
	}
	r, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.rows {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ListAll(ctx context.Context) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) count(date string, hour, partySize int) int {
	n, _ := s.CountMatching(context.Background(), date, hour, partySize)
	return n
}

func testManager(t *testing.T, store *memStore, caps map[int]int) *Manager {
	t.Helper()
	policy, err := inventory.New(caps)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return NewManager(store, policy, NewValidator(DefaultHours(), policy, nil))
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestAttemptBook_AdmitsUntilCapacity(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{4: 2})
	ctx := context.Background()
	date := tomorrow()

	for i := 0; i < 2; i++ {
		res, err := m.AttemptBook(ctx, date, 19, 4, uint64(i+1))
		if err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
		if res.ID == 0 {
			t.Fatalf("booking %d: missing id", i)
		}
	}
	if _, err := m.AttemptBook(ctx, date, 19, 4, 99); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
	if got := store.count(date, 19, 4); got != 2 {
		t.Fatalf("expected 2 persisted reservations, got %d", got)
	}
}

func TestAttemptBook_CapacityInvariantUnderConcurrency(t *testing.T) {
	// Concrete scenario from the capacity requirements: inventory {4: 5},
	// five concurrent requests fill the bucket, a sixth is rejected.
	store := newMemStore()
	store.countDelay = time.Millisecond
	m := testManager(t, store, map[int]int{4: 5})
	date := tomorrow()

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.AttemptBook(context.Background(), date, 19, 4, uint64(i+1))
		}(i)
	}
	wg.Wait()

	admitted, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrNoCapacity):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if admitted != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", admitted)
	}
	if rejected != callers-5 {
		t.Fatalf("expected %d rejections, got %d", callers-5, rejected)
	}
	if got := store.count(date, 19, 4); got != 5 {
		t.Fatalf("bucket holds %d reservations, capacity 5", got)
	}

	remaining, err := m.RemainingCapacity(context.Background(), date, 19, 4)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}
}

func TestAttemptBook_DifferentBucketsDoNotInterfere(t *testing.T) {
	store := newMemStore()
	store.countDelay = time.Millisecond
	m := testManager(t, store, map[int]int{2: 3, 6: 3})
	date := tomorrow()

	var wg sync.WaitGroup
	for _, size := range []int{2, 6} {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(size, i int) {
				defer wg.Done()
				if _, err := m.AttemptBook(context.Background(), date, 20, size, uint64(i+1)); err != nil {
					t.Errorf("size %d booking %d: %v", size, i, err)
				}
			}(size, i)
		}
	}
	wg.Wait()

	if got := store.count(date, 20, 2); got != 3 {
		t.Fatalf("size-2 bucket: got %d, want 3", got)
	}
	if got := store.count(date, 20, 6); got != 3 {
		t.Fatalf("size-6 bucket: got %d, want 3", got)
	}
}

func TestAttemptBook_ValidationPrecedesAdmission(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{4: 5})
	ctx := context.Background()

	cases := []struct {
		name   string
		date   string
		hour   int
		size   int
		reason InvalidReason
	}{
		{"past date", "2020-01-01", 19, 4, ReasonBadDate},
		{"missing date", "", 19, 4, ReasonMissingField},
		{"closed hour", tomorrow(), 9, 4, ReasonBadTime},
		{"unknown party size", tomorrow(), 19, 11, ReasonBadPartySize},
	}
	for _, tc := range cases {
		_, err := m.AttemptBook(ctx, tc.date, tc.hour, tc.size, 1)
		ve, ok := AsValidation(err)
		if !ok {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if ve.Reason != tc.reason {
			t.Errorf("%s: reason = %d, want %d", tc.name, ve.Reason, tc.reason)
		}
	}
	if store.inserts != 0 {
		t.Fatalf("validation failures must not touch the store; %d inserts", store.inserts)
	}
}

func TestAttemptBook_RejectionDoesNotMutateStore(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{2: 1})
	ctx := context.Background()
	date := tomorrow()

	if _, err := m.AttemptBook(ctx, date, 12, 2, 1); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	before := store.count(date, 12, 2)
	if _, err := m.AttemptBook(ctx, date, 12, 2, 2); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
	if after := store.count(date, 12, 2); after != before {
		t.Fatalf("rejected attempt changed count: %d -> %d", before, after)
	}
}

func TestAttemptBook_RetriesOnceOnTransientStorageError(t *testing.T) {
	store := newMemStore()
	store.failCounts = 1
	m := testManager(t, store, map[int]int{4: 5})

	res, err := m.AttemptBook(context.Background(), tomorrow(), 19, 4, 1)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if res == nil || res.ID == 0 {
		t.Fatal("expected admitted reservation after retry")
	}
}

func TestAttemptBook_SurfacesPersistentStorageError(t *testing.T) {
	store := newMemStore()
	store.failCounts = 2 // first attempt and the retry
	m := testManager(t, store, map[int]int{4: 5})

	_, err := m.AttemptBook(context.Background(), tomorrow(), 19, 4, 1)
	if !IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestRemainingCapacity_FloorsAtZeroOnInconsistentStorage(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{2: 1})
	ctx := context.Background()
	date := tomorrow()

	// Write past the manager to simulate a corrupted bucket.
	for i := 0; i < 3; i++ {
		if _, err := store.Insert(ctx, &model.Reservation{UserID: 1, Date: date, Hour: 12, PartySize: 2}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	remaining, err := m.RemainingCapacity(ctx, date, 12, 2)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected defensive floor of 0, got %d", remaining)
	}
	// An overfull bucket is treated as full, not as a crash.
	if _, err := m.AttemptBook(ctx, date, 12, 2, 9); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity on overfull bucket, got %v", err)
	}
}

func TestAttemptCancel_Authorization(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{4: 5})
	ctx := context.Background()

	res, err := m.AttemptBook(ctx, tomorrow(), 19, 4, 7) // owned by user 7
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := m.AttemptCancel(ctx, res.ID, 8, model.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign standard user: expected ErrForbidden, got %v", err)
	}
	if got := store.count(res.Date, res.Hour, res.PartySize); got != 1 {
		t.Fatalf("forbidden cancel must not delete; count %d", got)
	}

	if err := m.AttemptCancel(ctx, res.ID, 7, model.RoleUser); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if err := m.AttemptCancel(ctx, res.ID, 7, model.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel: expected ErrNotFound, got %v", err)
	}

	// Admins may cancel anyone's reservation.
	res2, err := m.AttemptBook(ctx, tomorrow(), 20, 4, 7)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := m.AttemptCancel(ctx, res2.ID, 1, model.RoleAdmin); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}

func TestAttemptCancel_RetriesDeleteOnce(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{4: 5})
	ctx := context.Background()

	res, err := m.AttemptBook(ctx, tomorrow(), 19, 4, 3)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	store.failDeletes = 1
	if err := m.AttemptCancel(ctx, res.ID, 3, model.RoleUser); err != nil {
		t.Fatalf("expected delete retry to succeed, got %v", err)
	}

	res2, err := m.AttemptBook(ctx, tomorrow(), 19, 4, 3)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	store.failDeletes = 2
	if err := m.AttemptCancel(ctx, res2.ID, 3, model.RoleUser); !IsStorage(err) {
		t.Fatalf("expected storage error after failed retry, got %v", err)
	}
}

// reassignOnFailStore fails the first delete and hands the row to another
// user in the same breath, modeling a cancel racing an ownership-changing
// admin action. The retry must notice the new owner, not delete blindly.
type reassignOnFailStore struct {
	*memStore
	arm      bool
	newOwner uint64
}

func (s *reassignOnFailStore) Delete(ctx context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	if s.arm {
		s.arm = false
		if r, ok := s.rows[id]; ok {
			r.UserID = s.newOwner
			s.rows[id] = r
		}
		s.mu.Unlock()
		return false, errTransient
	}
	s.mu.Unlock()
	return s.memStore.Delete(ctx, id)
}

func TestAttemptCancel_RevalidatesOwnershipOnRetry(t *testing.T) {
	base := newMemStore()
	store := &reassignOnFailStore{memStore: base, newOwner: 42}
	policy, err := inventory.New(map[int]int{4: 5})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	m := NewManager(store, policy, NewValidator(DefaultHours(), policy, nil))
	ctx := context.Background()

	res, err := m.AttemptBook(ctx, tomorrow(), 19, 4, 7)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	store.arm = true
	if err := m.AttemptCancel(ctx, res.ID, 7, model.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("retry must re-check ownership: expected ErrForbidden, got %v", err)
	}
	if _, err := base.Get(ctx, res.ID); err != nil {
		t.Fatalf("reservation must survive a forbidden retry: %v", err)
	}
}

func TestAttemptCancel_RetriesTransientGet(t *testing.T) {
	store := newMemStore()
	m := testManager(t, store, map[int]int{4: 5})
	ctx := context.Background()

	res, err := m.AttemptBook(ctx, tomorrow(), 19, 4, 3)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	store.failGets = 1
	if err := m.AttemptCancel(ctx, res.ID, 3, model.RoleUser); err != nil {
		t.Fatalf("expected retry to survive a transient get failure, got %v", err)
	}
}

func TestAttemptBook_ConcurrentDistinctBucketsFillExactly(t *testing.T) {
	// Exercise many buckets at once to check bucket keys do not collide.
	store := newMemStore()
	m := testManager(t, store, map[int]int{2: 1, 3: 1, 4: 1, 5: 1, 6: 1})
	date := tomorrow()

	var wg sync.WaitGroup
	for size := 2; size <= 6; size++ {
		for hour := 10; hour <= 22; hour++ {
			wg.Add(1)
			go func(size, hour int) {
				defer wg.Done()
				if _, err := m.AttemptBook(context.Background(), date, hour, size, 1); err != nil {
					t.Errorf("bucket %d/%d: %v", hour, size, err)
				}
			}(size, hour)
		}
	}
	wg.Wait()

	for size := 2; size <= 6; size++ {
		for hour := 10; hour <= 22; hour++ {
			if got := store.count(date, hour, size); got != 1 {
				t.Fatalf("bucket %s/%d/%d: got %d rows, want 1", date, hour, size, got)
			}
		}
	}
}
