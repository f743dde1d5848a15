// Package idempotency generates deterministic dedup keys for the at-least-once
// delivery path: the HTTP transaction handlers hash the incoming request and
// the queueing handler puts the key into the TransactionRequestedEvent, so
// the Kafka transaction-request consumer (see internal/infrastructure/messaging)
// can recognize a redelivered message by its key as already applied, without
// needing a round trip to the ledger itself.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateTransactionKey builds a deterministic key for a transaction-post
// request: identical (book, date, description, split) tuples always hash to
// the same key, so a redelivered Kafka message can be recognized and skipped.
//
// Example:
//   - GenerateTransactionKey(bookID, date, "rent", "DEBIT:acc1:100|CREDIT:acc2:100")
//     always returns the same key for the same inputs.
func GenerateTransactionKey(bookID uuid.UUID, date time.Time, description, splitsFingerprint string) string {
	data := fmt.Sprintf("tx:%s:%s:%s:%s", bookID, date.UTC().Format(time.RFC3339), description, splitsFingerprint)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
