package ledger

import (
	"context"
	"time"

	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"

	"github.com/google/uuid"
)

// ProcessSplit links a split to its account. txDate is the transaction_date
// of the transaction split belongs to (the transaction itself need not be
// persisted yet; the builder calls this before it commits).
//
// It first looks ahead for every currently-linked split on the same account
// whose transaction postdates txDate, unlinks them (oldest-first, restoring
// pocket state to the instant before this split), applies split, then
// replays the unlinked splits in the same order. This is what makes the
// final ledger state a function of transaction_date alone, independent of
// the order transactions were created in.
func (e *Engine) ProcessSplit(ctx context.Context, s *models.Split, txDate time.Time) error {
	if s.IsLinked {
		return kernelerr.New(kernelerr.AlreadyProcessed, "split is already processed")
	}

	future, err := e.store.SplitsAfter(ctx, s.AccountID, txDate)
	if err != nil {
		return err
	}
	for _, f := range future {
		if err := e.unlinkSplit(ctx, f); err != nil {
			return err
		}
	}

	if err := e.applySplit(ctx, s); err != nil {
		return err
	}
	s.IsLinked = true
	// A split of a transaction that is not yet saved has no TransactionID;
	// the builder saves it together with its transaction at commit.
	if s.TransactionID != uuid.Nil {
		if err := e.store.SaveSplit(ctx, s); err != nil {
			return err
		}
	}

	for _, f := range future {
		fDate, err := e.store.TransactionDateOf(ctx, f)
		if err != nil {
			return err
		}
		if err := e.ProcessSplit(ctx, f, fDate); err != nil {
			return err
		}
	}

	return nil
}

// applySplit calls increase_amount or deduct_amount per the account's
// nature and records the actual local cost on the split.
func (e *Engine) applySplit(ctx context.Context, s *models.Split) error {
	a, err := e.store.GetAccount(ctx, s.AccountID)
	if err != nil {
		return err
	}

	if s.SplitType == models.IncreaseSide(a.AccountType) {
		cost, err := e.IncreaseAmount(ctx, a, s.AccountAmount, &s.ProfileAmount)
		if err != nil {
			return err
		}
		s.LocalCost = cost
		return nil
	}

	cost, err := e.DeductAmount(ctx, a, s.AccountAmount)
	if err != nil {
		return err
	}
	s.ProfileAmount = cost
	s.LocalCost = cost
	return nil
}

// unlinkSplit is the inverse of applySplit: an increase is undone by
// deducting the same account amount back out; a decrease is undone by
// re-increasing with the exact local cost it produced, so the re-created
// pocket carries the same cost basis it had before the unlink.
func (e *Engine) unlinkSplit(ctx context.Context, s *models.Split) error {
	if !s.IsLinked {
		return kernelerr.New(kernelerr.NotLinked, "split is not linked")
	}

	a, err := e.store.GetAccount(ctx, s.AccountID)
	if err != nil {
		return err
	}

	if s.SplitType == models.IncreaseSide(a.AccountType) {
		if _, err := e.DeductAmount(ctx, a, s.AccountAmount); err != nil {
			return err
		}
	} else {
		cost := s.LocalCost
		if _, err := e.IncreaseAmount(ctx, a, s.AccountAmount, &cost); err != nil {
			return err
		}
	}

	s.IsLinked = false
	s.LocalCost = money.Zero
	return e.store.SaveSplit(ctx, s)
}
