// Package kernelerr defines the kernel's error categories.
//
// Every error the kernel can return is a *Error with a Kind the caller can
// switch on or compare with errors.Is. The split processor and transaction
// builder never swallow these; Transaction.create catches them only to drive
// its rollback, then re-raises the original error.
package kernelerr

import (
	"errors"
	"fmt"
)

// Kind distinguishes the kernel's error categories.
type Kind string

const (
	DifferentAmountsInLocalAccount     Kind = "different_amounts_in_local_account"
	ForeignResultAccount               Kind = "foreign_result_account"
	DuplicateCode                      Kind = "duplicate_code"
	ImbalancedTransaction              Kind = "imbalanced_transaction"
	UnsupportedMultipleForeignIncrease Kind = "unsupported_multiple_foreign_increase"
	UnsupportedAccountingMode          Kind = "unsupported_accounting_mode"
	NothingLeftForForeignDebit         Kind = "nothing_left_for_foreign_debit"
	BookNotReady                       Kind = "book_not_ready"
	AlreadyProcessed                   Kind = "already_processed"
	NotLinked                          Kind = "not_linked"
	ExchangeRateUnavailable            Kind = "exchange_rate_unavailable"
	CrossBookSplit                     Kind = "cross_book_split"
)

// Error is the single error type the kernel returns. Wrap it with
// fmt.Errorf("...: %w", err) freely; errors.Is still matches on Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, kernelerr.New(kernelerr.BookNotReady, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err if it (or something it wraps) is a *Error,
// and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
