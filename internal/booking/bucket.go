package booking

import (
	"fmt"
	"sync"
)

// Bucket is the admission unit: all reservations sharing the same date,
// hour and party size compete for the same capacity.
type Bucket struct {
	Date      string
	Hour      int
	PartySize int
}

func (b Bucket) key() string { return fmt.Sprintf("%s|%d|%d", b.Date, b.Hour, b.PartySize) }

// bucketLocks hands out one mutex per bucket so admission decisions for
// the same bucket serialize while different buckets proceed independently.
// Entries are reference counted and removed once the last holder releases,
// so the map stays bounded by the number of in-flight buckets.
type bucketLocks struct {
	mu    sync.Mutex
	locks map[string]*bucketLock
}

type bucketLock struct {
	mu   sync.Mutex
	refs int
}

func newBucketLocks() *bucketLocks {
	return &bucketLocks{locks: make(map[string]*bucketLock)}
}

// acquire blocks until the caller holds the bucket's mutex and returns a
// release function. Release must be called exactly once.
func (bl *bucketLocks) acquire(b Bucket) func() {
	k := b.key()

	bl.mu.Lock()
	l, ok := bl.locks[k]
	if !ok {
		l = &bucketLock{}
		bl.locks[k] = l
	}
	l.refs++
	bl.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			bl.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(bl.locks, k)
			}
			bl.mu.Unlock()
		})
	}
}
