// Package memory is an in-process ports.Store: a handful of maps behind one
// mutex, no query planner, good enough for the kernel's own unit tests and
// for hosts that don't need durability (dev mode, fixtures).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"

	"github.com/google/uuid"
)

// Store is a single-process, mutex-guarded ports.Store. WithinTransaction
// is best-effort: it snapshots nothing and simply runs fn, since every
// other method is already atomic under the same lock; good enough for
// tests, not a substitute for a real transactional store.
type Store struct {
	mu sync.RWMutex

	profiles     map[uuid.UUID]*models.Profile
	books        map[uuid.UUID]*models.Book
	groups       map[uuid.UUID]*models.Group
	accounts     map[uuid.UUID]*models.Account
	pockets      map[uuid.UUID]*models.Pocket
	transactions map[uuid.UUID]*models.Transaction
	splits       map[uuid.UUID]*models.Split
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		profiles:     make(map[uuid.UUID]*models.Profile),
		books:        make(map[uuid.UUID]*models.Book),
		groups:       make(map[uuid.UUID]*models.Group),
		accounts:     make(map[uuid.UUID]*models.Account),
		pockets:      make(map[uuid.UUID]*models.Pocket),
		transactions: make(map[uuid.UUID]*models.Transaction),
		splits:       make(map[uuid.UUID]*models.Split),
	}
}

func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "profile %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) SaveBook(ctx context.Context, b *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.books[b.ID] = &cp
	return nil
}

func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, kernelerr.Newf(kernelerr.BookNotReady, "book %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (s *Store) SaveGroup(ctx context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "group %s not found", id)
	}
	cp := *g
	return &cp, nil
}

func (s *Store) SaveAccount(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, kernelerr.Newf(kernelerr.NotLinked, "account %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) CodeExists(ctx context.Context, bookID uuid.UUID, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.BookID == bookID && g.Code == code {
			return true, nil
		}
	}
	for _, a := range s.accounts {
		if a.BookID == bookID && a.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PocketsByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Pocket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Pocket
	for _, p := range s.pockets {
		if p.AccountID == accountID && p.AccountBalance.IsPositive() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) SavePocket(ctx context.Context, p *models.Pocket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pockets[p.ID] = &cp
	return nil
}

func (s *Store) DeletePocket(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pockets, id)
	return nil
}

func (s *Store) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.transactions[t.ID] = &cp
	return nil
}

func (s *Store) SaveSplit(ctx context.Context, sp *models.Split) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sp
	s.splits[sp.ID] = &cp
	return nil
}

func (s *Store) SplitsAfter(ctx context.Context, accountID uuid.UUID, after time.Time) ([]*models.Split, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type dated struct {
		split *models.Split
		date  time.Time
	}
	var out []dated
	for _, sp := range s.splits {
		if sp.AccountID != accountID || !sp.IsLinked {
			continue
		}
		t, ok := s.transactions[sp.TransactionID]
		if !ok || !t.TransactionDate.After(after) {
			continue
		}
		cp := *sp
		out = append(out, dated{&cp, t.TransactionDate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })

	splits := make([]*models.Split, len(out))
	for i, d := range out {
		splits[i] = d.split
	}
	return splits, nil
}

func (s *Store) TransactionDateOf(ctx context.Context, sp *models.Split) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[sp.TransactionID]
	if !ok {
		return time.Time{}, kernelerr.Newf(kernelerr.NotLinked, "split %s has no transaction", sp.ID)
	}
	return t.TransactionDate, nil
}

// WithinTransaction runs fn directly and returns its error unchanged. Each
// other method holds the store's mutex only for its own mutation, so writes
// fn made before failing are not undone. The postgres store is where an
// actual transactional boundary is enforced.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
