// Package models holds the kernel's plain data records: Profile, Book,
// Group, Account, Pocket, Transaction and Split. Each entity is an explicit
// struct with explicit fields; collaborators are passed by stable
// identifier (uuid.UUID) and resolved through a ports.Store.
package models

import (
	"time"

	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/money"

	"github.com/google/uuid"
)

// AccountingMode is the profile-level posting strategy. Only FIFO is
// implemented; LIFO is a declared-but-unimplemented option that fails fast
// (see kernelerr and Engine.CreateProfile in package ledger).
type AccountingMode string

const (
	FIFO AccountingMode = "FIFO"
	LIFO AccountingMode = "LIFO"
)

// AccountType classifies an Account for the split processor's strategy table.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
	Equity    AccountType = "EQUITY"
)

// SplitType is the DEBIT/CREDIT leg of a Split.
type SplitType string

const (
	Debit  SplitType = "DEBIT"
	Credit SplitType = "CREDIT"
)

// natures maps each account type to the split side that increases it (its
// "nature" in accounting terms); the opposite side decreases it. A free
// lookup table, not a mutable cached object hanging off the account.
var natures = map[AccountType]SplitType{
	Asset:     Debit,
	Expense:   Debit,
	Liability: Credit,
	Income:    Credit,
	Equity:    Credit,
}

// IncreaseSide returns the split type that increases an account of type t.
func IncreaseSide(t AccountType) SplitType {
	return natures[t]
}

// DecreaseSide returns the split type that decreases an account of type t.
func DecreaseSide(t AccountType) SplitType {
	if natures[t] == Debit {
		return Credit
	}
	return Debit
}

// ExchangeRateProvider is the kernel's sole external capability: given a
// currency pair, return a rate. Implementations may cache within a single
// transaction; failures propagate as kernelerr.ExchangeRateUnavailable.
type ExchangeRateProvider interface {
	GetExchangeRate(from, to currency.Currency) (money.Amount, error)
}

// Profile is the top-level tenant: a named owner, a default (local) currency,
// an accounting mode, and a handle to the rate provider. RateProvider is a
// runtime handle only; it is never persisted.
type Profile struct {
	ID              uuid.UUID
	Name            string
	Owner           string
	DefaultCurrency currency.Currency
	AccountingMode  AccountingMode
	RateProvider    ExchangeRateProvider `json:"-"`
}

// IsLocal reports whether c is the profile's default (local) currency.
func (p *Profile) IsLocal(c currency.Currency) bool {
	return c.Code == p.DefaultCurrency.Code
}

// IsForeign reports whether c differs from the profile's default currency.
func (p *Profile) IsForeign(c currency.Currency) bool {
	return !p.IsLocal(c)
}

// Book is a time-bounded set of accounts under a Profile, with four
// designated system accounts referenced by ID (not owned directly) so the
// cyclic Book <-> Account relationship never needs to be resolved eagerly.
type Book struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	Code      string
	Name      string
	Start     time.Time
	End       *time.Time

	InitialBalancesAccountID   *uuid.UUID
	ProfitLossAccountID        *uuid.UUID
	CurrencyXEIncomeAccountID  *uuid.UUID
	CurrencyXEExpenseAccountID *uuid.UUID
}

// Ready reports whether all four designated accounts are set, the
// precondition for accepting transactions.
func (b *Book) Ready() bool {
	return b.InitialBalancesAccountID != nil &&
		b.ProfitLossAccountID != nil &&
		b.CurrencyXEIncomeAccountID != nil &&
		b.CurrencyXEExpenseAccountID != nil
}

// Group is a node in the chart-of-accounts tree within a Book.
type Group struct {
	ID       uuid.UUID
	BookID   uuid.UUID
	Code     string
	Name     string
	ParentID *uuid.UUID
}

// Account is a leaf holding lots ("pockets") of a single currency.
//
// ProfileDefaultCurrency is the owning profile's default currency at the
// time the account was created, denormalized onto the account so IsLocal/
// IsForeign can be evaluated without a separate profile lookup; an account
// cannot change group, book or currency after its first pocket, so this
// never drifts in practice.
type Account struct {
	ID                     uuid.UUID
	ProfileID              uuid.UUID
	BookID                 uuid.UUID
	GroupID                uuid.UUID
	Code                   string
	Name                   string
	AccountType            AccountType
	Currency               currency.Currency
	ProfileDefaultCurrency currency.Currency
	Imbalance              money.Amount
}

// IsForeign reports whether the account's currency differs from its
// profile's default currency.
func (a *Account) IsForeign() bool {
	return a.Currency.Code != a.ProfileDefaultCurrency.Code
}

// IsLocal reports whether the account's currency is its profile's default.
func (a *Account) IsLocal() bool {
	return !a.IsForeign()
}

// Nature is the split side that increases this account.
func (a *Account) Nature() SplitType {
	return IncreaseSide(a.AccountType)
}

// Pocket is a single lot of currency acquired on a specific date, carrying
// both the account-currency amount and the profile-currency cost basis.
type Pocket struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	AccountAmount  money.Amount
	ProfileAmount  money.Amount
	AccountBalance money.Amount
	ProfileBalance money.Amount
	Date           time.Time
}

// Transaction is a balanced (in profile currency) collection of splits
// posted as of TransactionDate.
type Transaction struct {
	ID              uuid.UUID
	BookID          uuid.UUID
	Description     string
	TransactionDate time.Time
	CreationDate    time.Time
	Splits          []*Split
}

// Split is one leg of a Transaction, affecting exactly one Account.
//
// LocalCost is the profile-currency amount actually produced by the split
// processor's increase_amount/deduct_amount call; distinct from
// ProfileAmount, which the transaction builder imputes up front. unlink uses
// LocalCost to re-introduce the exact cost basis when reversing a decrease.
type Split struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	AccountAmount money.Amount
	ProfileAmount money.Amount
	LocalCost     money.Amount
	SplitType     SplitType
	IsLinked      bool
}

// NewSplit builds an unlinked split. ProfileAmount defaults to zero and is
// filled in during processing (imputed on credits, replaced by the actual
// deduction cost on decreases).
func NewSplit(accountID uuid.UUID, amount money.Amount, splitType SplitType) *Split {
	return &Split{
		ID:            uuid.New(),
		AccountID:     accountID,
		AccountAmount: amount,
		ProfileAmount: money.Zero,
		SplitType:     splitType,
		IsLinked:      false,
	}
}

// OperationSign is +1 if split_type matches the account's nature (this split
// increases the account), -1 otherwise.
func (s *Split) OperationSign(a *Account) int {
	if s.SplitType == a.Nature() {
		return 1
	}
	return -1
}
