package booking

import (
	"sync"
	"testing"
	"time"
)

func TestBucketLocks_SerializeSameBucket(t *testing.T) {
	bl := newBucketLocks()
	b := Bucket{Date: "2026-09-01", Hour: 19, PartySize: 4}

	var inSection int
	var violations int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := bl.acquire(b)
			mu.Lock()
			inSection++
			if inSection > 1 {
				violations++
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inSection--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if violations != 0 {
		t.Fatalf("%d goroutines entered the critical section concurrently", violations)
	}
}

func TestBucketLocks_DifferentBucketsDoNotBlock(t *testing.T) {
	bl := newBucketLocks()

	releaseA := bl.acquire(Bucket{Date: "2026-09-01", Hour: 19, PartySize: 4})
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := bl.acquire(Bucket{Date: "2026-09-01", Hour: 20, PartySize: 4})
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different bucket blocked on an unrelated lock")
	}
}

func TestBucketLocks_EntriesRemovedAfterRelease(t *testing.T) {
	bl := newBucketLocks()
	b := Bucket{Date: "2026-09-01", Hour: 19, PartySize: 2}

	release := bl.acquire(b)
	bl.mu.Lock()
	if len(bl.locks) != 1 {
		bl.mu.Unlock()
		t.Fatalf("expected 1 live lock entry, got %d", len(bl.locks))
	}
	bl.mu.Unlock()

	release()
	release() // second call must be a no-op

	bl.mu.Lock()
	defer bl.mu.Unlock()
	if len(bl.locks) != 0 {
		t.Fatalf("expected lock map to be empty after release, got %d entries", len(bl.locks))
	}
}
