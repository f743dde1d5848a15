package postgres_test

// Integration tests against a real PostgreSQL instance started through
// testcontainers. The container is shared across the package's tests and
// reaped by the testcontainers sidecar when the run finishes; every test
// works with its own UUIDs so no reset between tests is needed.
//
// Run with -short to skip these.

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ledger-api/internal/config"
	pgstore "ledger-api/internal/infrastructure/persistence/postgres"
	"ledger-api/internal/ledger"
	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/ledger/rates"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

func setupStore(t *testing.T) *pgstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("ledger"),
			tcpostgres.WithUsername("ledger"),
			tcpostgres.WithPassword("ledger_test_pass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			containerErr = fmt.Errorf("start postgres testcontainer: %w", err)
			return
		}
		containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, containerErr, "failed to initialize postgres testcontainer")

	store, err := pgstore.New(context.Background(), config.PostgresConfig{
		DSN:             containerDSN,
		MaxConns:        5,
		MinConns:        1,
		ConnMaxLifetime: 30 * time.Minute,
	}, currency.NewSeededRegistry())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

// newAccountID creates a profile, book, group and account through the
// engine so that pockets can reference an account row that exists.
func newAccountID(t *testing.T, store *pgstore.Store) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	eng := ledger.New(store, currency.NewSeededRegistry())
	brl, _ := eng.Currencies().Get("BRL")

	profile, err := eng.CreateProfile(ctx, brl, "pocket profile", "owner", models.FIFO)
	require.NoError(t, err)
	book, err := eng.CreateBook(ctx, profile, "POCKETS", "pocket book", time.Now(), nil)
	require.NoError(t, err)
	group, err := eng.CreateTopLevelGroup(ctx, book, "root", "ROOT")
	require.NoError(t, err)
	acc, err := eng.CreateAccount(ctx, profile, group, "CASH", "cash", brl, models.Asset)
	require.NoError(t, err)
	return acc.ID
}

func TestProfileRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	reg := currency.NewSeededRegistry()
	brl, _ := reg.Get("BRL")

	p := &models.Profile{
		ID:              uuid.New(),
		Name:            "household",
		Owner:           "ana",
		DefaultCurrency: brl,
		AccountingMode:  models.FIFO,
	}
	require.NoError(t, store.SaveProfile(ctx, p))

	got, err := store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Owner, got.Owner)
	assert.Equal(t, "BRL", got.DefaultCurrency.Code)
	assert.Equal(t, 100, got.DefaultCurrency.Fraction)
	assert.Equal(t, models.FIFO, got.AccountingMode)
}

func TestChartRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	eng := ledger.New(store, currency.NewSeededRegistry())

	brl, _ := eng.Currencies().Get("BRL")
	usd, _ := eng.Currencies().Get("USD")

	profile, err := eng.CreateProfile(ctx, brl, "chart profile", "owner", models.FIFO)
	require.NoError(t, err)
	book, err := eng.CreateBook(ctx, profile, "2026", "fiscal 2026", time.Now(), nil)
	require.NoError(t, err)
	group, err := eng.CreateTopLevelGroup(ctx, book, "assets", "AST")
	require.NoError(t, err)
	child, err := eng.CreateChildGroup(ctx, group, "cash", "CSH")
	require.NoError(t, err)
	acc, err := eng.CreateAccount(ctx, profile, child, "USD1", "usd wallet", usd, models.Asset)
	require.NoError(t, err)

	got, err := store.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD1", got.Code)
	assert.Equal(t, models.Asset, got.AccountType)
	assert.Equal(t, "USD", got.Currency.Code)
	assert.Equal(t, "BRL", got.ProfileDefaultCurrency.Code)
	assert.True(t, got.IsForeign())
	assert.True(t, got.Imbalance.IsZero())

	gotGroup, err := store.GetGroup(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, gotGroup.ParentID)
	assert.Equal(t, group.ID, *gotGroup.ParentID)

	// Codes are unique per book, across groups and accounts alike.
	exists, err := store.CodeExists(ctx, book.ID, "USD1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.CodeExists(ctx, book.ID, "CSH")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.CodeExists(ctx, book.ID, "NOPE")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPocketsByAccountFIFOOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	accountID := newAccountID(t, store)
	base := time.Now().Add(-time.Hour)
	for i, amount := range []int64{300, 100, 200} {
		p := &models.Pocket{
			ID:             uuid.New(),
			AccountID:      accountID,
			AccountAmount:  money.New(amount),
			ProfileAmount:  money.New(amount),
			AccountBalance: money.New(amount),
			ProfileBalance: money.New(amount),
			// Insertion order deliberately differs from date order.
			Date: base.Add(time.Duration(3-i) * time.Minute),
		}
		require.NoError(t, store.SavePocket(ctx, p))
	}

	pockets, err := store.PocketsByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, pockets, 3)
	assert.True(t, pockets[0].AccountAmount.Equal(money.New(200)))
	assert.True(t, pockets[1].AccountAmount.Equal(money.New(100)))
	assert.True(t, pockets[2].AccountAmount.Equal(money.New(300)))

	require.NoError(t, store.DeletePocket(ctx, pockets[0].ID))
	pockets, err = store.PocketsByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, pockets, 2)
	assert.True(t, pockets[0].AccountAmount.Equal(money.New(100)))
}

func TestWithinTransactionRollsBackWrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	accountID := newAccountID(t, store)
	boom := fmt.Errorf("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		p := &models.Pocket{
			ID:             uuid.New(),
			AccountID:      accountID,
			AccountAmount:  money.New(50),
			ProfileAmount:  money.New(50),
			AccountBalance: money.New(50),
			ProfileBalance: money.New(50),
			Date:           time.Now(),
		}
		if err := store.SavePocket(ctx, p); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	pockets, err := store.PocketsByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, pockets)
}

func TestEngineForeignSaleAgainstPostgres(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	reg := currency.NewSeededRegistry()
	brl, _ := reg.Get("BRL")
	usd, _ := reg.Get("USD")

	provider := rates.NewStaticRateProvider()
	provider.Set(usd, brl, money.New(2))
	eng := ledger.New(rates.WithDefaultRateProvider(store, provider), reg)

	profile, err := eng.CreateProfile(ctx, brl, "fx profile", "owner", models.FIFO)
	require.NoError(t, err)
	book, err := eng.CreateBook(ctx, profile, "FX", "fx book", time.Now(), nil)
	require.NoError(t, err)
	group, err := eng.CreateTopLevelGroup(ctx, book, "root", "ROOT")
	require.NoError(t, err)

	mk := func(code string, cur currency.Currency, at models.AccountType) *models.Account {
		a, err := eng.CreateAccount(ctx, profile, group, code, code, cur, at)
		require.NoError(t, err)
		return a
	}
	ib := mk("IB", brl, models.Equity)
	pl := mk("PL", brl, models.Equity)
	xeIncome := mk("XEI", brl, models.Income)
	xeExpense := mk("XEE", brl, models.Expense)
	require.NoError(t, eng.SetDesignatedAccount(ctx, book, ledger.InitialBalances, ib.ID))
	require.NoError(t, eng.SetDesignatedAccount(ctx, book, ledger.ProfitLoss, pl.ID))
	require.NoError(t, eng.SetDesignatedAccount(ctx, book, ledger.CurrencyXEIncome, xeIncome.ID))
	require.NoError(t, eng.SetDesignatedAccount(ctx, book, ledger.CurrencyXEExpense, xeExpense.ID))

	brlAsset := mk("CASH", brl, models.Asset)
	usdAsset := mk("WALLET", usd, models.Asset)

	// Seed 100 USD bought for 200 BRL.
	profileAmount := money.New(200)
	_, err = eng.IncreaseAmount(ctx, usdAsset, money.New(100), &profileAmount)
	require.NoError(t, err)

	// Sell the 100 USD for 70 BRL: 130 BRL exchange loss.
	_, err = eng.CreateTransaction(ctx, book, time.Now(), "usd sale", []*models.Split{
		models.NewSplit(usdAsset.ID, money.New(100), models.Credit),
		models.NewSplit(brlAsset.ID, money.New(70), models.Debit),
	})
	require.NoError(t, err)

	assertBalances := func(a *models.Account, account, profileBal int64) {
		t.Helper()
		ab, pb, err := eng.GetBalances(ctx, a)
		require.NoError(t, err)
		assert.True(t, ab.Equal(money.New(account)), "account balance: got %s", ab)
		assert.True(t, pb.Equal(money.New(profileBal)), "profile balance: got %s", pb)
	}
	assertBalances(usdAsset, 0, 0)
	assertBalances(brlAsset, 70, 70)
	assertBalances(xeExpense, 130, 130)
	assertBalances(xeIncome, 0, 0)
}
