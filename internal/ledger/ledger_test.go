package ledger_test

// End-to-end scenarios against the in-memory store: FIFO pocket
// consumption, imbalance recovery, and the transaction builder's
// balancing/exchange-reconciliation rules.

import (
	"context"
	"testing"
	"time"

	"ledger-api/internal/infrastructure/persistence/memory"
	"ledger-api/internal/ledger"
	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/ledger/ports"
	"ledger-api/internal/ledger/rates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*ledger.Engine, *models.Profile, *models.Book, currency.Currency, currency.Currency) {
	t.Helper()
	eng, profile, book, brl, usd, _ := newFixtureWithStore(t)
	return eng, profile, book, brl, usd
}

func newFixtureWithStore(t *testing.T) (*ledger.Engine, *models.Profile, *models.Book, currency.Currency, currency.Currency, ports.Store) {
	t.Helper()
	reg := currency.NewSeededRegistry()

	brl, _ := reg.Get("BRL")
	usd, _ := reg.Get("USD")

	provider := rates.NewStaticRateProvider()
	provider.Set(usd, brl, money.New(2))

	// The engine reloads the profile from the store on every transaction, so
	// the provider has to ride along on every read, not just the in-memory
	// handle SetExchangeRateProvider attaches.
	store := rates.WithDefaultRateProvider(memory.New(), provider)
	eng := ledger.New(store, reg)

	ctx := context.Background()
	profile, err := eng.CreateProfile(ctx, brl, "test profile", "owner", models.FIFO)
	require.NoError(t, err)
	eng.SetExchangeRateProvider(profile, provider)

	book, err := eng.CreateBook(ctx, profile, "BK", "book", time.Now(), nil)
	require.NoError(t, err)

	return eng, profile, book, brl, usd, store
}

func mustAccount(t *testing.T, eng *ledger.Engine, profile *models.Profile, group *models.Group, code, name string, cur currency.Currency, at models.AccountType) *models.Account {
	t.Helper()
	a, err := eng.CreateAccount(context.Background(), profile, group, code, name, cur, at)
	require.NoError(t, err)
	return a
}

// readyBook creates the four designated system accounts a book needs before
// it will accept transactions.
func readyBook(t *testing.T, eng *ledger.Engine, profile *models.Profile, book *models.Book, group *models.Group, brl currency.Currency) {
	t.Helper()
	ctx := context.Background()
	ib := mustAccount(t, eng, profile, group, "IB", "initial balances", brl, models.Equity)
	pl := mustAccount(t, eng, profile, group, "PL", "profit and loss", brl, models.Equity)
	xeIn := mustAccount(t, eng, profile, group, "XEIN", "xe income", brl, models.Income)
	xeOut := mustAccount(t, eng, profile, group, "XEOUT", "xe expense", brl, models.Expense)

	for role, acc := range map[ledger.DesignatedRole]*models.Account{
		ledger.InitialBalances:   ib,
		ledger.ProfitLoss:        pl,
		ledger.CurrencyXEIncome:  xeIn,
		ledger.CurrencyXEExpense: xeOut,
	} {
		require.NoError(t, eng.SetDesignatedAccount(ctx, book, role, acc.ID))
	}
}

// Scenario 1: Equal local amounts.
func TestIncreaseAmount_EqualLocalAmounts(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, err := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	require.NoError(t, err)
	acc := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)

	cost, err := eng.IncreaseAmount(ctx, acc, money.New(100), nil)
	require.NoError(t, err)
	assert.True(t, cost.Equal(money.New(100)))

	ab, pb, err := eng.GetBalances(ctx, acc)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(100)))
	assert.True(t, pb.Equal(money.New(100)))
	assert.True(t, acc.Imbalance.IsZero())
}

// Scenario 2: Local FIFO deduction; increase 1000, deduct 100 ten times.
func TestDeductAmount_LocalFIFO(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	acc := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)

	_, err := eng.IncreaseAmount(ctx, acc, money.New(1000), nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		cost, err := eng.DeductAmount(ctx, acc, money.New(100))
		require.NoError(t, err)
		assert.True(t, cost.Equal(money.New(100)), "iteration %d", i)
	}

	ab, pb, err := eng.GetBalances(ctx, acc)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
	assert.True(t, acc.Imbalance.IsZero())
}

// Scenario 3: Multi-pocket foreign FIFO deduction.
func TestDeductAmount_MultiPocketForeignFIFO(t *testing.T) {
	eng, profile, book, _, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	acc := mustAccount(t, eng, profile, group, "USD", "usd cash", usd, models.Asset)

	increases := []struct{ acct, prof int64 }{
		{1000, 1000}, {1000, 2000}, {1000, 3000}, {1000, 4000}, {1000, 5000},
	}
	for _, inc := range increases {
		p := money.New(inc.prof)
		_, err := eng.IncreaseAmount(ctx, acc, money.New(inc.acct), &p)
		require.NoError(t, err)
	}

	total := money.Zero
	for i := 0; i < 10; i++ {
		cost, err := eng.DeductAmount(ctx, acc, money.New(500))
		require.NoError(t, err, "iteration %d", i)
		total = total.Add(cost)
	}

	assert.True(t, total.Equal(money.New(15000)), "total profile cost = %s", total)

	ab, pb, err := eng.GetBalances(ctx, acc)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
}

// FIFO cost conservation: deductions totalling exactly the sum of all
// increases return exactly the sum of all profile costs, however unevenly
// the deductions are sliced across pocket boundaries. Truncation residue
// from partial consumption stays in the pocket's profile balance until the
// pocket is fully consumed, so the totals match exactly.
func TestDeductAmount_CostConservation(t *testing.T) {
	eng, profile, book, _, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	acc := mustAccount(t, eng, profile, group, "USD", "usd cash", usd, models.Asset)

	increases := []struct{ acct, prof string }{
		{"13.50", "27.25"}, {"19.75", "41.00"}, {"10.25", "22.10"}, {"16.00", "35.40"},
	}
	totalProfile := money.Zero
	for _, inc := range increases {
		a, err := money.NewFromString(inc.acct)
		require.NoError(t, err)
		p, err := money.NewFromString(inc.prof)
		require.NoError(t, err)
		_, err = eng.IncreaseAmount(ctx, acc, a, &p)
		require.NoError(t, err)
		totalProfile = totalProfile.Add(p)
	}

	cost := money.Zero
	for _, d := range []string{"7.30", "21.45", "9.00", "15.75", "6.00"} {
		amt, err := money.NewFromString(d)
		require.NoError(t, err)
		c, err := eng.DeductAmount(ctx, acc, amt)
		require.NoError(t, err)
		cost = cost.Add(c)
	}

	assert.True(t, cost.Equal(totalProfile), "total cost = %s, want %s", cost, totalProfile)

	ab, pb, err := eng.GetBalances(ctx, acc)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
	assert.True(t, acc.Imbalance.IsZero())
}

// Scenario 4: Imbalance recovery with residue.
func TestIncreaseAmount_ImbalanceRecoveryWithResidue(t *testing.T) {
	eng, profile, book, _, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	acc := mustAccount(t, eng, profile, group, "USD", "usd cash", usd, models.Asset)

	_, err := eng.DeductAmount(ctx, acc, money.New(100))
	require.NoError(t, err)
	assert.True(t, acc.Imbalance.Equal(money.New(100)))

	p := money.New(100)
	_, err = eng.IncreaseAmount(ctx, acc, money.New(50), &p)
	require.NoError(t, err)

	ab, pb, err := eng.GetBalances(ctx, acc)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
	assert.True(t, acc.Imbalance.Equal(money.New(50)))
}

// Scenario 5: Balanced two-split local transaction.
func TestCreateTransaction_BalancedLocal(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)
	liability := mustAccount(t, eng, profile, group, "LOAN", "loan", brl, models.Liability)

	splits := []*models.Split{
		models.NewSplit(asset.ID, money.New(100), models.Debit),
		models.NewSplit(liability.ID, money.New(100), models.Credit),
	}

	_, err := eng.CreateTransaction(ctx, book, time.Now(), "loan draw", splits)
	require.NoError(t, err)

	for _, acc := range []*models.Account{asset, liability} {
		ab, pb, err := eng.GetBalances(ctx, acc)
		require.NoError(t, err)
		assert.True(t, ab.Equal(money.New(100)), "account %s account_balance", acc.Code)
		assert.True(t, pb.Equal(money.New(100)), "account %s profile_balance", acc.Code)
	}
}

// Scenario 6: Foreign sale with exchange loss.
func TestCreateTransaction_ForeignSaleExchangeLoss(t *testing.T) {
	eng, profile, book, brl, usd, store := newFixtureWithStore(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	brlAsset := mustAccount(t, eng, profile, group, "CASHBRL", "cash brl", brl, models.Asset)
	usdAsset := mustAccount(t, eng, profile, group, "CASHUSD", "cash usd", usd, models.Asset)

	// 100 USD bought for 200 BRL: the sale's deduction returns that cost
	// basis as the credit's local amount.
	seed := money.New(200)
	_, err := eng.IncreaseAmount(ctx, usdAsset, money.New(100), &seed)
	require.NoError(t, err)

	splits := []*models.Split{
		models.NewSplit(usdAsset.ID, money.New(100), models.Credit),
		models.NewSplit(brlAsset.ID, money.New(70), models.Debit),
	}
	_, err = eng.CreateTransaction(ctx, book, time.Now(), "foreign sale", splits)
	require.NoError(t, err)

	ab, pb, err := eng.GetBalances(ctx, brlAsset)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(70)))
	assert.True(t, pb.Equal(money.New(70)))

	ab, pb, err = eng.GetBalances(ctx, usdAsset)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())

	book, err = store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	xeExpense, err := store.GetAccount(ctx, *book.CurrencyXEExpenseAccountID)
	require.NoError(t, err)
	xeIncome, err := store.GetAccount(ctx, *book.CurrencyXEIncomeAccountID)
	require.NoError(t, err)

	ab, pb, err = eng.GetBalances(ctx, xeExpense)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(130)), "xe expense account_balance = %s", ab)
	assert.True(t, pb.Equal(money.New(130)), "xe expense profile_balance = %s", pb)

	ab, pb, err = eng.GetBalances(ctx, xeIncome)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
}

// Scenario 7: Foreign sale with exchange gain.
func TestCreateTransaction_ForeignSaleExchangeGain(t *testing.T) {
	eng, profile, book, brl, usd, store := newFixtureWithStore(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	brlAsset := mustAccount(t, eng, profile, group, "CASHBRL", "cash brl", brl, models.Asset)
	usdAsset := mustAccount(t, eng, profile, group, "CASHUSD", "cash usd", usd, models.Asset)

	seed := money.New(200)
	_, err := eng.IncreaseAmount(ctx, usdAsset, money.New(100), &seed)
	require.NoError(t, err)

	splits := []*models.Split{
		models.NewSplit(usdAsset.ID, money.New(100), models.Credit),
		models.NewSplit(brlAsset.ID, money.New(230), models.Debit),
	}
	_, err = eng.CreateTransaction(ctx, book, time.Now(), "foreign sale gain", splits)
	require.NoError(t, err)

	book, err = store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	xeExpense, err := store.GetAccount(ctx, *book.CurrencyXEExpenseAccountID)
	require.NoError(t, err)
	xeIncome, err := store.GetAccount(ctx, *book.CurrencyXEIncomeAccountID)
	require.NoError(t, err)

	ab, pb, err := eng.GetBalances(ctx, xeIncome)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(30)), "xe income account_balance = %s", ab)
	assert.True(t, pb.Equal(money.New(30)), "xe income profile_balance = %s", pb)

	ab, pb, err = eng.GetBalances(ctx, xeExpense)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
}

// A foreign purchase: the foreign debit increase receives whatever local
// value the credits supplied beyond the local debits, becoming the new
// pocket's cost basis.
func TestCreateTransaction_ForeignPurchase(t *testing.T) {
	eng, profile, book, brl, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	brlAsset := mustAccount(t, eng, profile, group, "CASHBRL", "cash brl", brl, models.Asset)
	usdAsset := mustAccount(t, eng, profile, group, "CASHUSD", "cash usd", usd, models.Asset)

	_, err := eng.IncreaseAmount(ctx, brlAsset, money.New(200), nil)
	require.NoError(t, err)

	splits := []*models.Split{
		models.NewSplit(usdAsset.ID, money.New(100), models.Debit),
		models.NewSplit(brlAsset.ID, money.New(200), models.Credit),
	}
	_, err = eng.CreateTransaction(ctx, book, time.Now(), "buy usd", splits)
	require.NoError(t, err)

	ab, pb, err := eng.GetBalances(ctx, usdAsset)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(100)))
	assert.True(t, pb.Equal(money.New(200)), "usd cost basis = %s, want 200", pb)

	ab, pb, err = eng.GetBalances(ctx, brlAsset)
	require.NoError(t, err)
	assert.True(t, ab.IsZero())
	assert.True(t, pb.IsZero())
}

// A second foreign debit increase in the same transaction is unsupported.
func TestCreateTransaction_MultipleForeignDebitIncreasesRejected(t *testing.T) {
	eng, profile, book, brl, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	brlAsset := mustAccount(t, eng, profile, group, "CASHBRL", "cash brl", brl, models.Asset)
	usdOne := mustAccount(t, eng, profile, group, "USD1", "usd one", usd, models.Asset)
	usdTwo := mustAccount(t, eng, profile, group, "USD2", "usd two", usd, models.Asset)

	splits := []*models.Split{
		models.NewSplit(usdOne.ID, money.New(50), models.Debit),
		models.NewSplit(usdTwo.ID, money.New(50), models.Debit),
		models.NewSplit(brlAsset.ID, money.New(200), models.Credit),
	}
	_, err := eng.CreateTransaction(ctx, book, time.Now(), "two foreign buys", splits)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.UnsupportedMultipleForeignIncrease, kind)
}

// A foreign debit increase with no local value left over for it fails.
func TestCreateTransaction_NothingLeftForForeignDebit(t *testing.T) {
	eng, profile, book, brl, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	brlAsset := mustAccount(t, eng, profile, group, "CASHBRL", "cash brl", brl, models.Asset)
	brlOther := mustAccount(t, eng, profile, group, "OTHER", "other brl", brl, models.Asset)
	usdAsset := mustAccount(t, eng, profile, group, "CASHUSD", "cash usd", usd, models.Asset)

	splits := []*models.Split{
		models.NewSplit(brlOther.ID, money.New(100), models.Debit),
		models.NewSplit(usdAsset.ID, money.New(50), models.Debit),
		models.NewSplit(brlAsset.ID, money.New(100), models.Credit),
	}
	_, err := eng.CreateTransaction(ctx, book, time.Now(), "nothing left", splits)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.NothingLeftForForeignDebit, kind)
}

// Splits referring to accounts from two different books are rejected.
func TestCreateTransaction_CrossBookSplitsRejected(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)
	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)

	otherBook, err := eng.CreateBook(ctx, profile, "BK2", "other book", time.Now(), nil)
	require.NoError(t, err)
	otherGroup, err := eng.CreateTopLevelGroup(ctx, otherBook, "top", "T")
	require.NoError(t, err)
	foreignToBook := mustAccount(t, eng, profile, otherGroup, "CASH", "other cash", brl, models.Liability)

	splits := []*models.Split{
		models.NewSplit(asset.ID, money.New(100), models.Debit),
		models.NewSplit(foreignToBook.ID, money.New(100), models.Credit),
	}
	_, err = eng.CreateTransaction(ctx, book, time.Now(), "cross book", splits)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.CrossBookSplit, kind)
}

// Only FIFO is implemented; asking for LIFO fails fast with its own kind.
func TestCreateProfile_LIFORejected(t *testing.T) {
	reg := currency.NewSeededRegistry()
	brl, _ := reg.Get("BRL")
	eng := ledger.New(memory.New(), reg)

	_, err := eng.CreateProfile(context.Background(), brl, "lifo profile", "owner", models.LIFO)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.UnsupportedAccountingMode, kind)
}

// Supplying different account and profile amounts on a local account fails.
func TestIncreaseAmount_DifferentAmountsInLocalAccount(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "assets", "A")
	acc := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)

	p := money.New(90)
	_, err := eng.IncreaseAmount(ctx, acc, money.New(100), &p)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.DifferentAmountsInLocalAccount, kind)
}

// Imbalanced local-only transaction with no foreign credit to reconcile
// against must fail rather than silently booking an exchange split, and
// must not leave any partial pocket state behind.
func TestCreateTransaction_ImbalancedWithNoForeignCredit(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)
	liability := mustAccount(t, eng, profile, group, "LOAN", "loan", brl, models.Liability)

	splits := []*models.Split{
		models.NewSplit(asset.ID, money.New(100), models.Debit),
		models.NewSplit(liability.ID, money.New(90), models.Credit),
	}

	_, err := eng.CreateTransaction(ctx, book, time.Now(), "bad", splits)
	require.Error(t, err)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.ImbalancedTransaction, kind)

	ab, _, err := eng.GetBalances(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ab.IsZero(), "asset balance after rollback = %s, want 0", ab)
}

// A transaction posted against a book missing a designated account fails
// fast with BookNotReady and never touches any pocket.
func TestCreateTransaction_BookNotReady(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)
	liability := mustAccount(t, eng, profile, group, "LOAN", "loan", brl, models.Liability)

	splits := []*models.Split{
		models.NewSplit(asset.ID, money.New(100), models.Debit),
		models.NewSplit(liability.ID, money.New(100), models.Credit),
	}

	_, err := eng.CreateTransaction(ctx, book, time.Now(), "should fail", splits)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.BookNotReady, kind)
}

// Chronological independence: inserting a back-dated transaction after a
// later one re-links the later split and produces the same final balances
// as if the transactions had been posted in date order.
func TestCreateTransaction_ChronologicalReLink(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)

	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)
	equity := mustAccount(t, eng, profile, group, "EQ", "equity", brl, models.Equity)

	later := time.Now()
	earlier := later.Add(-24 * time.Hour)

	laterSplits := []*models.Split{
		models.NewSplit(asset.ID, money.New(500), models.Debit),
		models.NewSplit(equity.ID, money.New(500), models.Credit),
	}
	_, err := eng.CreateTransaction(ctx, book, later, "later", laterSplits)
	require.NoError(t, err)

	// Inserting this back-dated transaction must unlink the later split,
	// process this one in its place, then re-link the later split.
	earlierSplits := []*models.Split{
		models.NewSplit(asset.ID, money.New(200), models.Debit),
		models.NewSplit(equity.ID, money.New(200), models.Credit),
	}
	_, err = eng.CreateTransaction(ctx, book, earlier, "earlier", earlierSplits)
	require.NoError(t, err)

	ab, pb, err := eng.GetBalances(ctx, asset)
	require.NoError(t, err)
	assert.True(t, ab.Equal(money.New(700)), "asset account_balance = %s, want 700", ab)
	assert.True(t, pb.Equal(money.New(700)), "asset profile_balance = %s, want 700", pb)
}

// A foreign result account (INCOME/EXPENSE) is rejected at creation time.
func TestCreateAccount_ForeignResultAccountRejected(t *testing.T) {
	eng, profile, book, _, usd := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")

	_, err := eng.CreateAccount(ctx, profile, group, "USDINC", "usd income", usd, models.Income)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.ForeignResultAccount, kind)
}

// A duplicate account/group code within the same book is rejected.
func TestCreateAccount_DuplicateCodeRejected(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)

	_, err := eng.CreateAccount(ctx, profile, group, "CASH", "cash again", brl, models.Asset)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.DuplicateCode, kind)
}

// Processing an already-linked split directly fails with AlreadyProcessed.
func TestProcessSplit_AlreadyProcessedRejected(t *testing.T) {
	eng, profile, book, brl, _ := newFixture(t)
	ctx := context.Background()
	group, _ := eng.CreateTopLevelGroup(ctx, book, "top", "T")
	readyBook(t, eng, profile, book, group, brl)
	asset := mustAccount(t, eng, profile, group, "CASH", "cash", brl, models.Asset)
	equity := mustAccount(t, eng, profile, group, "EQ", "equity", brl, models.Equity)

	splits := []*models.Split{
		models.NewSplit(asset.ID, money.New(50), models.Debit),
		models.NewSplit(equity.ID, money.New(50), models.Credit),
	}
	tx, err := eng.CreateTransaction(ctx, book, time.Now(), "t", splits)
	require.NoError(t, err)

	err = eng.ProcessSplit(ctx, tx.Splits[0], tx.TransactionDate)
	kind, ok := kernelerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, kernelerr.AlreadyProcessed, kind)
}
