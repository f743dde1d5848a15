// Package messaging carries ledger domain events to Kafka: a request queued
// for async posting, a commit, or a rollback.
package messaging

import "time"

// TransactionRequestedEvent is the command queued by the HTTP handler and
// consumed asynchronously by the transaction-request consumer.
type TransactionRequestedEvent struct {
	IdempotencyKey  string           `json:"idempotency_key"`
	BookID          string           `json:"book_id"`
	Description     string           `json:"description"`
	TransactionDate time.Time        `json:"transaction_date"`
	Splits          []RequestedSplit `json:"splits"`
	Timestamp       time.Time        `json:"timestamp"`
}

// RequestedSplit is one leg of a TransactionRequestedEvent, addressed before
// local-amount imputation has run.
type RequestedSplit struct {
	AccountID     string `json:"account_id"`
	SplitType     string `json:"split_type"` // DEBIT or CREDIT
	AccountAmount string `json:"account_amount"`
}

// TransactionPostedEvent reports a transaction that committed successfully.
type TransactionPostedEvent struct {
	TransactionID   string    `json:"transaction_id"`
	BookID          string    `json:"book_id"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
	TotalDebits     string    `json:"total_debits"`
	TotalCredits    string    `json:"total_credits"`
	Timestamp       time.Time `json:"timestamp"`
}

// TransactionFailedEvent reports a transaction that failed validation or
// posting and was rolled back, carrying the kernelerr.Kind that caused it.
type TransactionFailedEvent struct {
	BookID          string    `json:"book_id"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
	ErrorKind       string    `json:"error_kind"`
	ErrorMessage    string    `json:"error_message"`
	Timestamp       time.Time `json:"timestamp"`
}

// ExchangeRateUnavailableEvent flags a transaction that could not be
// imputed because the profile's rate provider failed or is unconfigured.
type ExchangeRateUnavailableEvent struct {
	BookID      string    `json:"book_id"`
	Description string    `json:"description"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}
