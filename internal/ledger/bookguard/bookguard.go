// Package bookguard serializes access to a book. Engine assumes exclusive
// access to a book for the duration of CreateTransaction and any
// IncreaseAmount/DeductAmount call, so a host serving concurrent requests
// needs to serialize callers per book itself. The lock is a weighted
// semaphore instead of a bare sync.Mutex so a future ctx-aware With can
// fail fast on a busy book rather than blocking forever.
package bookguard

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Registry hands out one weight-1 semaphore per book ID, lazily, and never
// releases the entry; a live registry accumulates one semaphore per book
// ever seen, which is acceptable for the lifetime of a process serving a
// bounded set of books.
type Registry struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*semaphore.Weighted
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[uuid.UUID]*semaphore.Weighted)}
}

func (r *Registry) lockFor(bookID uuid.UUID) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[bookID]
	if !ok {
		l = semaphore.NewWeighted(1)
		r.locks[bookID] = l
	}
	return l
}

// With runs fn while holding the exclusive lock for bookID, releasing it on
// return.
func (r *Registry) With(bookID uuid.UUID, fn func() error) error {
	l := r.lockFor(bookID)
	// Acquire never fails against context.Background(); it only returns an
	// error if ctx is cancelled first, which it cannot be here.
	_ = l.Acquire(context.Background(), 1)
	defer l.Release(1)
	return fn()
}
