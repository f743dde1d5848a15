// Package ledger is the accounting kernel: chart of accounts, pocket store,
// split processor and transaction builder. It is a
// library; HTTP handling, auth, and persistence wiring live in the host
// (internal/api, internal/pkg/components) and are invoked through Engine,
// never the other way around.
//
// Engine assumes exclusive access to a given book for the duration of any
// call; callers serialize per-book access themselves (see
// internal/ledger/bookguard for the helper the host uses).
package ledger

import (
	"context"
	"time"

	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/ledger/ports"

	"github.com/google/uuid"
)

// Engine is the kernel's single entry point. It holds no mutable state of
// its own beyond the currency registry and the persistence port; all ledger
// state lives behind Store.
type Engine struct {
	store      ports.Store
	currencies *currency.Registry
}

// New builds an Engine against the given Store. currencies may be nil, in
// which case currency.Default() (seeded with BRL/USD/EUR/CLP) is used.
func New(store ports.Store, currencies *currency.Registry) *Engine {
	if currencies == nil {
		currencies = currency.Default()
	}
	return &Engine{store: store, currencies: currencies}
}

// Currencies exposes the engine's currency registry.
func (e *Engine) Currencies() *currency.Registry {
	return e.currencies
}

// CreateProfile creates a Profile with the given default currency and
// accounting mode. Only FIFO is implemented; requesting LIFO fails fast
// rather than silently posting FIFO under a LIFO tag.
func (e *Engine) CreateProfile(ctx context.Context, defaultCurrency currency.Currency, name, owner string, mode models.AccountingMode) (*models.Profile, error) {
	if mode == "" {
		mode = models.FIFO
	}
	if mode != models.FIFO {
		return nil, kernelerr.Newf(kernelerr.UnsupportedAccountingMode, "accounting mode %q is not implemented", mode)
	}
	p := &models.Profile{
		ID:              uuid.New(),
		Name:            name,
		Owner:           owner,
		DefaultCurrency: defaultCurrency,
		AccountingMode:  mode,
	}
	if err := e.store.SaveProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetExchangeRateProvider attaches the runtime rate provider handle to a
// profile. Not persisted; callers must re-attach it after loading a Profile
// from the store.
func (e *Engine) SetExchangeRateProvider(p *models.Profile, provider models.ExchangeRateProvider) {
	p.RateProvider = provider
}

// CreateBook creates a Book owned by profile, with no designated accounts
// set yet (so it is not Ready() until those are assigned).
func (e *Engine) CreateBook(ctx context.Context, profile *models.Profile, code, name string, start time.Time, end *time.Time) (*models.Book, error) {
	b := &models.Book{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		Code:      code,
		Name:      name,
		Start:     start,
		End:       end,
	}
	if err := e.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DesignatedRole names one of the book's four system account roles that
// SetDesignatedAccount assigns.
type DesignatedRole int

const (
	InitialBalances DesignatedRole = iota
	ProfitLoss
	CurrencyXEIncome
	CurrencyXEExpense
)

// SetDesignatedAccount wires one of a book's four required system accounts,
// by identifier rather than direct ownership, so the Book <-> Account
// cycle never needs eager resolution.
func (e *Engine) SetDesignatedAccount(ctx context.Context, b *models.Book, role DesignatedRole, accountID uuid.UUID) error {
	id := accountID
	switch role {
	case InitialBalances:
		b.InitialBalancesAccountID = &id
	case ProfitLoss:
		b.ProfitLossAccountID = &id
	case CurrencyXEIncome:
		b.CurrencyXEIncomeAccountID = &id
	case CurrencyXEExpense:
		b.CurrencyXEExpenseAccountID = &id
	}
	return e.store.SaveBook(ctx, b)
}

// CreateTopLevelGroup creates a Group with no parent within a book.
func (e *Engine) CreateTopLevelGroup(ctx context.Context, b *models.Book, name, code string) (*models.Group, error) {
	return e.createGroup(ctx, b.ID, name, code, nil)
}

// CreateChildGroup creates a Group under parent, in parent's book.
func (e *Engine) CreateChildGroup(ctx context.Context, parent *models.Group, name, code string) (*models.Group, error) {
	id := parent.ID
	return e.createGroup(ctx, parent.BookID, name, code, &id)
}

func (e *Engine) createGroup(ctx context.Context, bookID uuid.UUID, name, code string, parentID *uuid.UUID) (*models.Group, error) {
	exists, err := e.store.CodeExists(ctx, bookID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, kernelerr.Newf(kernelerr.DuplicateCode, "group code %q already used in this book", code)
	}
	g := &models.Group{
		ID:       uuid.New(),
		BookID:   bookID,
		Code:     code,
		Name:     name,
		ParentID: parentID,
	}
	if err := e.store.SaveGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateAccount creates an Account under group. Result accounts (INCOME,
// EXPENSE) must be in the profile's local currency.
func (e *Engine) CreateAccount(ctx context.Context, profile *models.Profile, group *models.Group, code, name string, cur currency.Currency, accountType models.AccountType) (*models.Account, error) {
	if profile.IsForeign(cur) && (accountType == models.Income || accountType == models.Expense) {
		return nil, kernelerr.New(kernelerr.ForeignResultAccount, "a result account (INCOME | EXPENSE) cannot be in a foreign currency")
	}
	exists, err := e.store.CodeExists(ctx, group.BookID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, kernelerr.Newf(kernelerr.DuplicateCode, "account code %q already used in this book", code)
	}
	a := &models.Account{
		ID:                     uuid.New(),
		ProfileID:              profile.ID,
		BookID:                 group.BookID,
		GroupID:                group.ID,
		Code:                   code,
		Name:                   name,
		AccountType:            accountType,
		Currency:               cur,
		ProfileDefaultCurrency: profile.DefaultCurrency,
		Imbalance:              money.Zero,
	}
	if err := e.store.SaveAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
