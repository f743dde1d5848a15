package messaging

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ledger-api/internal/infrastructure/messaging/kafka"
	"ledger-api/internal/ledger"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/money"
	"ledger-api/internal/ledger/ports"
	"ledger-api/internal/pkg/logging"
	"ledger-api/internal/pkg/telemetry"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// TransactionConsumer processes queued transaction-post requests from Kafka
// with an at-least-once consumer-group: an offset is marked and committed
// once its request has been handled, which covers a posted transaction, a
// request the kernel rejected (a failure event is published instead) and a
// duplicate skipped by idempotency key. A message that cannot be decoded,
// or whose posted event cannot be published, is left uncommitted.
type TransactionConsumer struct {
	consumerGroup sarama.ConsumerGroup
	publisher     EventPublisher
	engine        *ledger.Engine
	store         ports.Store
	config        *kafka.Config
	seen          map[string]bool
	seenMu        sync.Mutex
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewTransactionConsumer creates a new transaction-request consumer.
func NewTransactionConsumer(config *kafka.Config, publisher EventPublisher, engine *ledger.Engine, store ports.Store) (*TransactionConsumer, error) {
	saramaConfig, err := config.ToSaramaConfig()
	if err != nil {
		return nil, err
	}

	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	// At-least-once: disable auto-commit, commit manually after successful processing.
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = false

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, "transaction-processor-group", saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TransactionConsumer{
		consumerGroup: consumerGroup,
		publisher:     publisher,
		engine:        engine,
		store:         store,
		config:        config,
		seen:          make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start begins consuming transaction-request events.
func (c *TransactionConsumer) Start() error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		handler := &transactionConsumerHandler{
			publisher: c.publisher,
			engine:    c.engine,
			store:     c.store,
			consumer:  c,
		}

		topics := []string{kafka.TopicTransactionRequests}

		for {
			if err := c.consumerGroup.Consume(c.ctx, topics, handler); err != nil {
				log.Printf("Error from consumer: %v", err)
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				log.Printf("Consumer group error: %v", err)
			case <-c.ctx.Done():
				return
			}
		}
	}()

	log.Printf("Transaction consumer started: group=transaction-processor-group, topic=%s", kafka.TopicTransactionRequests)
	return nil
}

// Stop gracefully stops the consumer.
func (c *TransactionConsumer) Stop() error {
	c.cancel()
	c.wg.Wait()

	if err := c.consumerGroup.Close(); err != nil {
		return err
	}

	log.Println("Transaction consumer stopped")
	return nil
}

// markSeen returns true if this idempotency key was already processed.
func (c *TransactionConsumer) markSeen(key string) bool {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	if c.seen[key] {
		return true
	}
	c.seen[key] = true
	return false
}

type transactionConsumerHandler struct {
	publisher EventPublisher
	engine    *ledger.Engine
	store     ports.Store
	consumer  *TransactionConsumer
}

func (h *transactionConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *transactionConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *transactionConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := h.processTransactionRequest(message); err != nil {
				log.Printf("Failed to process transaction request: offset=%d, error=%v", message.Offset, err)
				// AT-LEAST-ONCE: don't mark or commit on failure; the message
				// is redelivered after a restart or rebalance.
				continue
			}

			session.MarkMessage(message, "")
			session.Commit()

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *transactionConsumerHandler) processTransactionRequest(message *sarama.ConsumerMessage) error {
	var event TransactionRequestedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logging.Error("Failed to unmarshal transaction request event", err, map[string]interface{}{
			"offset": message.Offset,
		})
		return err
	}

	if h.consumer.markSeen(event.IdempotencyKey) {
		log.Printf("Duplicate transaction request detected (idempotent): idempotency_key=%s - skipping", event.IdempotencyKey)
		return nil
	}

	ctx := context.Background()
	bookID, err := uuid.Parse(event.BookID)
	if err != nil {
		return h.fail(event, kernelerr.New(kernelerr.BookNotReady, "malformed book id"))
	}
	book, err := h.store.GetBook(ctx, bookID)
	if err != nil {
		return h.fail(event, err)
	}

	splits := make([]*models.Split, 0, len(event.Splits))
	for _, rs := range event.Splits {
		accountID, err := uuid.Parse(rs.AccountID)
		if err != nil {
			return h.fail(event, kernelerr.New(kernelerr.CrossBookSplit, "malformed account id"))
		}
		amount, err := money.NewFromString(rs.AccountAmount)
		if err != nil {
			return h.fail(event, kernelerr.New(kernelerr.ImbalancedTransaction, "malformed split amount"))
		}
		splitType := models.Debit
		if rs.SplitType == "CREDIT" {
			splitType = models.Credit
		}
		splits = append(splits, models.NewSplit(accountID, amount, splitType))
	}

	tx, err := h.engine.CreateTransaction(ctx, book, event.TransactionDate, event.Description, splits)
	if err != nil {
		return h.fail(event, err)
	}

	totDebits, totCredits := money.Zero, money.Zero
	for _, s := range tx.Splits {
		if s.SplitType == models.Debit {
			totDebits = totDebits.Add(s.ProfileAmount)
		} else {
			totCredits = totCredits.Add(s.ProfileAmount)
		}
	}

	telemetry.RecordTransactionPosted()

	posted := TransactionPostedEvent{
		TransactionID:   tx.ID.String(),
		BookID:          event.BookID,
		Description:     tx.Description,
		TransactionDate: tx.TransactionDate,
		TotalDebits:     totDebits.String(),
		TotalCredits:    totCredits.String(),
		Timestamp:       time.Now(),
	}
	if err := h.publisher.PublishTransactionPosted(posted); err != nil {
		logging.Error("Failed to publish transaction posted event", err, map[string]interface{}{
			"transaction_id": tx.ID.String(),
		})
		return err
	}

	return nil
}

func (h *transactionConsumerHandler) fail(event TransactionRequestedEvent, cause error) error {
	kind, _ := kernelerr.KindOf(cause)
	telemetry.RecordTransactionRolledBack(string(kind))

	if kind == kernelerr.ExchangeRateUnavailable {
		_ = h.publisher.PublishExchangeRateUnavailable(ExchangeRateUnavailableEvent{
			BookID:      event.BookID,
			Description: event.Description,
			Reason:      cause.Error(),
			Timestamp:   time.Now(),
		})
		return nil
	}

	failedEvent := TransactionFailedEvent{
		BookID:          event.BookID,
		Description:     event.Description,
		TransactionDate: event.TransactionDate,
		ErrorKind:       string(kind),
		ErrorMessage:    cause.Error(),
		Timestamp:       time.Now(),
	}
	if err := h.publisher.PublishTransactionFailed(failedEvent); err != nil {
		logging.Error("Failed to publish transaction failed event", err, map[string]interface{}{
			"book_id": event.BookID,
		})
	}
	// Don't retry validation failures; they will fail identically again.
	return nil
}
