package ledger

import (
	"context"
	"fmt"
	"time"

	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/models"
)

// DefaultChart is a starter chart of accounts: an asset group holding a
// local checking account, an equity group carrying initial balances and
// accumulated profit/loss, and income/expense groups holding the two
// exchange-reconciliation accounts a book needs to become Ready.
type DefaultChart struct {
	Checking        *models.Account
	InitialBalances *models.Account
	ProfitLoss      *models.Account
	CurrencyXEGain  *models.Account
	CurrencyXELoss  *models.Account
}

// SeedDefaultChart builds the minimal chart of accounts a new book needs to
// start accepting transactions: one local checking account plus the four
// designated system accounts, wired onto book via SetDesignatedAccount.
func (e *Engine) SeedDefaultChart(ctx context.Context, profile *models.Profile, book *models.Book, checkingName string, local currency.Currency) (*DefaultChart, error) {
	assets, err := e.CreateTopLevelGroup(ctx, book, "Assets", "1")
	if err != nil {
		return nil, err
	}
	equity, err := e.CreateTopLevelGroup(ctx, book, "Equity", "5")
	if err != nil {
		return nil, err
	}
	income, err := e.CreateTopLevelGroup(ctx, book, "Income", "3")
	if err != nil {
		return nil, err
	}
	expense, err := e.CreateTopLevelGroup(ctx, book, "Expenses", "4")
	if err != nil {
		return nil, err
	}

	checking, err := e.CreateAccount(ctx, profile, assets, "1.01.001", checkingName, local, models.Asset)
	if err != nil {
		return nil, err
	}

	initialBalances, err := e.CreateAccount(ctx, profile, equity, "5.01.001", "Initial Balances", local, models.Equity)
	if err != nil {
		return nil, err
	}
	profitLoss, err := e.CreateAccount(ctx, profile, equity, "5.02.001", "Accumulated Profit/Loss", local, models.Equity)
	if err != nil {
		return nil, err
	}
	xeGain, err := e.CreateAccount(ctx, profile, income, "3.01.001", "Exchange Rate Gains", local, models.Income)
	if err != nil {
		return nil, err
	}
	xeLoss, err := e.CreateAccount(ctx, profile, expense, "4.01.001", "Exchange Rate Losses", local, models.Expense)
	if err != nil {
		return nil, err
	}

	if err := e.SetDesignatedAccount(ctx, book, InitialBalances, initialBalances.ID); err != nil {
		return nil, err
	}
	if err := e.SetDesignatedAccount(ctx, book, ProfitLoss, profitLoss.ID); err != nil {
		return nil, err
	}
	if err := e.SetDesignatedAccount(ctx, book, CurrencyXEIncome, xeGain.ID); err != nil {
		return nil, err
	}
	if err := e.SetDesignatedAccount(ctx, book, CurrencyXEExpense, xeLoss.ID); err != nil {
		return nil, err
	}

	return &DefaultChart{
		Checking:        checking,
		InitialBalances: initialBalances,
		ProfitLoss:      profitLoss,
		CurrencyXEGain:  xeGain,
		CurrencyXELoss:  xeLoss,
	}, nil
}

// SeedYear is a convenience wrapper that creates a profile, a calendar-year
// book, and a DefaultChart in one call; the path used by the in-memory
// fixtures and the component wiring's dev-mode bootstrap.
func (e *Engine) SeedYear(ctx context.Context, year int, ownerName, profileName, checkingName string, local currency.Currency) (*models.Profile, *models.Book, *DefaultChart, error) {
	profile, err := e.CreateProfile(ctx, local, profileName, ownerName, models.FIFO)
	if err != nil {
		return nil, nil, nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	book, err := e.CreateBook(ctx, profile, fmt.Sprintf("%d", year), profileName, start, &end)
	if err != nil {
		return nil, nil, nil, err
	}
	chart, err := e.SeedDefaultChart(ctx, profile, book, checkingName, local)
	if err != nil {
		return nil, nil, nil, err
	}
	return profile, book, chart, nil
}
