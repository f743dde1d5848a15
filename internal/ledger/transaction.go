package ledger

import (
	"context"
	"time"

	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"

	"github.com/google/uuid"
)

// CreateTransaction posts a balanced transaction: it stages splits, imputes local
// amounts on credits (converting foreign amounts via profile's rate
// provider), totals local debits, hands any residual to a single foreign
// debit increase, links every split in order, reconciles any remaining
// imbalance with a synthetic exchange gain/loss split, and commits. The
// whole operation runs inside one persistence transaction; any failure
// unwinds every split already linked, in reverse order, and the store
// discards every write.
func (e *Engine) CreateTransaction(ctx context.Context, book *models.Book, date time.Time, description string, splits []*models.Split) (*models.Transaction, error) {
	if !book.Ready() {
		return nil, kernelerr.New(kernelerr.BookNotReady, "book is missing one or more designated accounts")
	}
	if len(splits) == 0 {
		return nil, kernelerr.New(kernelerr.ImbalancedTransaction, "a transaction needs at least one split")
	}

	var result *models.Transaction
	err := e.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := e.createTransaction(ctx, book, date, description, splits)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) createTransaction(ctx context.Context, book *models.Book, date time.Time, description string, splits []*models.Split) (*models.Transaction, error) {
	accounts := make(map[uuid.UUID]*models.Account, len(splits))
	for _, s := range splits {
		if _, ok := accounts[s.AccountID]; ok {
			continue
		}
		a, err := e.store.GetAccount(ctx, s.AccountID)
		if err != nil {
			return nil, err
		}
		if a.BookID != book.ID {
			return nil, kernelerr.New(kernelerr.CrossBookSplit, "all splits in a transaction must belong to accounts in the same book")
		}
		accounts[s.AccountID] = a
	}

	profile, err := e.store.GetProfile(ctx, accounts[splits[0].AccountID].ProfileID)
	if err != nil {
		return nil, err
	}

	// Step 1: nature check: at most one foreign-account increase per side.
	var foreignDebitIncrease *models.Split
	seenForeignCreditIncrease := false
	for _, s := range splits {
		a := accounts[s.AccountID]
		if s.OperationSign(a) != 1 || !a.IsForeign() {
			continue
		}
		if s.SplitType == models.Credit {
			if seenForeignCreditIncrease {
				return nil, kernelerr.New(kernelerr.UnsupportedMultipleForeignIncrease, "at most one foreign credit increase is supported per transaction")
			}
			seenForeignCreditIncrease = true
		} else {
			if foreignDebitIncrease != nil {
				return nil, kernelerr.New(kernelerr.UnsupportedMultipleForeignIncrease, "at most one foreign debit increase is supported per transaction")
			}
			foreignDebitIncrease = s
		}
	}

	// Step 2: impute local amounts on credits.
	creditTotalLocal := money.Zero
	for _, s := range splits {
		if s.SplitType != models.Credit {
			continue
		}
		a := accounts[s.AccountID]
		if s.ProfileAmount.IsZero() {
			if a.IsForeign() {
				rate, err := rateFor(profile, a.Currency)
				if err != nil {
					return nil, err
				}
				s.ProfileAmount = rate.Mul(s.AccountAmount).Quantize()
			} else {
				s.ProfileAmount = s.AccountAmount
			}
		}
		creditTotalLocal = creditTotalLocal.Add(s.ProfileAmount)
	}

	// Step 3: local debits.
	localDebitTotal := money.Zero
	for _, s := range splits {
		if s.SplitType != models.Debit {
			continue
		}
		a := accounts[s.AccountID]
		if a.IsLocal() {
			s.ProfileAmount = s.AccountAmount
			localDebitTotal = localDebitTotal.Add(s.ProfileAmount)
		}
	}

	// Step 4: residual to the foreign debit increase, if one exists.
	if foreignDebitIncrease != nil {
		residual := creditTotalLocal.Sub(localDebitTotal).Quantize()
		if !residual.IsPositive() {
			return nil, kernelerr.New(kernelerr.NothingLeftForForeignDebit, "nothing left to cover the foreign debit increase")
		}
		foreignDebitIncrease.ProfileAmount = residual
	}

	// Step 5: link splits in order, tracking a rollback list.
	var linked []*models.Split
	rollback := func(cause error) (*models.Transaction, error) {
		for i := len(linked) - 1; i >= 0; i-- {
			_ = e.unlinkSplit(ctx, linked[i])
		}
		return nil, cause
	}

	for _, s := range splits {
		if err := e.ProcessSplit(ctx, s, date); err != nil {
			return rollback(err)
		}
		linked = append(linked, s)
	}

	// Step 6: balance check and exchange reconciliation.
	totDebits, totCredits := money.Zero, money.Zero
	for _, s := range splits {
		if s.SplitType == models.Debit {
			totDebits = totDebits.Add(s.ProfileAmount)
		} else {
			totCredits = totCredits.Add(s.ProfileAmount)
		}
	}

	if !totDebits.Equal(totCredits) {
		anyForeignCredit := false
		for _, s := range splits {
			if s.SplitType == models.Credit && accounts[s.AccountID].IsForeign() {
				anyForeignCredit = true
				break
			}
		}
		if !anyForeignCredit {
			return rollback(kernelerr.New(kernelerr.ImbalancedTransaction, "transaction does not balance and has no foreign credit to reconcile"))
		}

		diff := totCredits.Sub(totDebits)
		var xe *models.Split
		if diff.IsPositive() {
			xe = models.NewSplit(*book.CurrencyXEExpenseAccountID, diff, models.Debit)
		} else {
			xe = models.NewSplit(*book.CurrencyXEIncomeAccountID, diff.Neg(), models.Credit)
		}
		xe.ProfileAmount = xe.AccountAmount
		xeAccount, err := e.store.GetAccount(ctx, xe.AccountID)
		if err != nil {
			return rollback(err)
		}
		accounts[xe.AccountID] = xeAccount
		if err := e.ProcessSplit(ctx, xe, date); err != nil {
			return rollback(err)
		}
		linked = append(linked, xe)
		splits = append(splits, xe)
	}

	// Step 7: commit.
	t := &models.Transaction{
		ID:              uuid.New(),
		BookID:          book.ID,
		Description:     description,
		TransactionDate: date,
		CreationDate:    time.Now(),
		Splits:          splits,
	}
	for _, s := range splits {
		s.TransactionID = t.ID
	}
	if err := e.store.SaveTransaction(ctx, t); err != nil {
		return rollback(err)
	}
	for _, s := range splits {
		if err := e.store.SaveSplit(ctx, s); err != nil {
			return rollback(err)
		}
	}

	return t, nil
}

func rateFor(profile *models.Profile, from currency.Currency) (money.Amount, error) {
	if profile.RateProvider == nil {
		return money.Zero, kernelerr.New(kernelerr.ExchangeRateUnavailable, "profile has no exchange rate provider configured")
	}
	rate, err := profile.RateProvider.GetExchangeRate(from, profile.DefaultCurrency)
	if err != nil {
		return money.Zero, kernelerr.Newf(kernelerr.ExchangeRateUnavailable, "exchange rate unavailable: %v", err)
	}
	return rate, nil
}
