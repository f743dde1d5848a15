package ledger

import (
	"context"
	"time"

	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"

	"github.com/google/uuid"
)

// IncreaseAmount creates at most one Pocket and/or reduces an existing
// imbalance, returning the local-currency cost actually credited.
//
// If profileAmount is nil, it defaults to accountAmount. A prior deduction
// that could not be covered left an imbalance; the next increase cancels it
// before it can create a fresh lot.
func (e *Engine) IncreaseAmount(ctx context.Context, a *models.Account, accountAmount money.Amount, profileAmount *money.Amount) (money.Amount, error) {
	profile := accountAmount
	if profileAmount != nil {
		profile = *profileAmount
	}

	accountAmount = accountAmount.Quantize()
	profile = profile.Quantize()

	if a.IsLocal() && !profile.Equal(accountAmount) {
		return money.Zero, kernelerr.New(kernelerr.DifferentAmountsInLocalAccount, "different amounts in local account")
	}

	consumed := money.Min(accountAmount, a.Imbalance)
	incAccount := money.Max0(accountAmount.Sub(consumed))
	a.Imbalance = money.Max0(a.Imbalance.Sub(accountAmount))

	if incAccount.IsZero() || incAccount.IsNegative() {
		if err := e.store.SaveAccount(ctx, a); err != nil {
			return money.Zero, err
		}
		return money.Zero, nil
	}

	var incProfile money.Amount
	if accountAmount.IsZero() {
		incProfile = money.Zero
	} else {
		incProfile = profile.Mul(incAccount).Div(accountAmount)
	}

	pocket := &models.Pocket{
		ID:             uuid.New(),
		AccountID:      a.ID,
		AccountAmount:  incAccount,
		ProfileAmount:  incProfile,
		AccountBalance: incAccount,
		ProfileBalance: incProfile,
		Date:           time.Now(),
	}
	if err := e.store.SavePocket(ctx, pocket); err != nil {
		return money.Zero, err
	}
	if err := e.store.SaveAccount(ctx, a); err != nil {
		return money.Zero, err
	}
	return incProfile, nil
}

// DeductAmount consumes pockets in FIFO (date ascending) order until amount
// is covered, returning the local-currency cost of the deduction. Any
// residual becomes the account's imbalance, replacing any prior value.
func (e *Engine) DeductAmount(ctx context.Context, a *models.Account, amount money.Amount) (money.Amount, error) {
	pockets, err := e.store.PocketsByAccount(ctx, a.ID)
	if err != nil {
		return money.Zero, err
	}

	remaining := amount.Quantize()
	profileCost := money.Zero

	for _, pocket := range pockets {
		if remaining.IsZero() {
			break
		}
		if pocket.AccountBalance.GreaterThan(remaining) {
			profilePart := pocket.ProfileAmount.Mul(remaining).Div(pocket.AccountAmount)
			profileCost = profileCost.Add(profilePart)
			pocket.AccountBalance = pocket.AccountBalance.Sub(remaining)
			pocket.ProfileBalance = pocket.ProfileBalance.Sub(profilePart)
			remaining = money.Zero
			if pocket.AccountBalance.IsZero() {
				if err := e.store.DeletePocket(ctx, pocket.ID); err != nil {
					return money.Zero, err
				}
			} else if err := e.store.SavePocket(ctx, pocket); err != nil {
				return money.Zero, err
			}
		} else {
			remaining = remaining.Sub(pocket.AccountBalance)
			profileCost = profileCost.Add(pocket.ProfileBalance)
			if err := e.store.DeletePocket(ctx, pocket.ID); err != nil {
				return money.Zero, err
			}
		}
	}

	if remaining.IsPositive() {
		a.Imbalance = remaining
		if err := e.store.SaveAccount(ctx, a); err != nil {
			return money.Zero, err
		}
	}

	return profileCost, nil
}

// GetBalances returns the sum of (account_balance, profile_balance) across
// the account's open pockets.
func (e *Engine) GetBalances(ctx context.Context, a *models.Account) (money.Amount, money.Amount, error) {
	pockets, err := e.store.PocketsByAccount(ctx, a.ID)
	if err != nil {
		return money.Zero, money.Zero, err
	}
	accountBalance, profileBalance := money.Zero, money.Zero
	for _, p := range pockets {
		accountBalance = accountBalance.Add(p.AccountBalance)
		profileBalance = profileBalance.Add(p.ProfileBalance)
	}
	return accountBalance, profileBalance, nil
}
