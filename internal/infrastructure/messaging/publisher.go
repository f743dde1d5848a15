package messaging

import (
	"fmt"

	"ledger-api/internal/infrastructure/messaging/kafka"
)

// EventPublisher defines the interface for publishing ledger domain events.
type EventPublisher interface {
	PublishTransactionRequested(event TransactionRequestedEvent) error
	PublishTransactionPosted(event TransactionPostedEvent) error
	PublishTransactionFailed(event TransactionFailedEvent) error
	PublishExchangeRateUnavailable(event ExchangeRateUnavailableEvent) error
	Close() error
	IsHealthy() bool
}

// KafkaEventPublisher implements EventPublisher using Kafka. The command
// topic (a queued transaction request another host will post) goes through
// the synchronous producer so the caller knows it was durably accepted
// before acknowledging; the three notification topics (posted/failed/rate
// unavailable) are fire-and-forget and go through the async producer so a
// slow broker never blocks a request handler.
type KafkaEventPublisher struct {
	producer      *kafka.Producer
	asyncProducer *kafka.AsyncProducer
}

// NewKafkaEventPublisher creates a new Kafka event publisher.
func NewKafkaEventPublisher(config *kafka.Config) (*KafkaEventPublisher, error) {
	producer, err := kafka.NewProducer(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	asyncProducer, err := kafka.NewAsyncProducer(config)
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to create async kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:      producer,
		asyncProducer: asyncProducer,
	}, nil
}

// PublishTransactionRequested publishes a queued transaction-post command.
func (p *KafkaEventPublisher) PublishTransactionRequested(event TransactionRequestedEvent) error {
	return p.producer.PublishEvent(kafka.TopicTransactionRequests, event.BookID, event)
}

// PublishTransactionPosted publishes a committed transaction, best-effort.
func (p *KafkaEventPublisher) PublishTransactionPosted(event TransactionPostedEvent) error {
	return p.asyncProducer.PublishEventAsync(kafka.TopicTransactionsPosted, event.BookID, event)
}

// PublishTransactionFailed publishes a rolled-back transaction, best-effort.
func (p *KafkaEventPublisher) PublishTransactionFailed(event TransactionFailedEvent) error {
	return p.asyncProducer.PublishEventAsync(kafka.TopicTransactionsFailed, event.BookID, event)
}

// PublishExchangeRateUnavailable publishes a rate-provider failure, best-effort.
func (p *KafkaEventPublisher) PublishExchangeRateUnavailable(event ExchangeRateUnavailableEvent) error {
	return p.asyncProducer.PublishEventAsync(kafka.TopicExchangeRateUnavailable, event.BookID, event)
}

// Close closes both Kafka producers.
func (p *KafkaEventPublisher) Close() error {
	asyncErr := p.asyncProducer.Close()
	syncErr := p.producer.Close()
	if syncErr != nil {
		return syncErr
	}
	return asyncErr
}

// IsHealthy reports true only when both producers report healthy.
func (p *KafkaEventPublisher) IsHealthy() bool {
	return p.producer.IsHealthy() && p.asyncProducer.IsHealthy()
}

// NoOpEventPublisher is a no-op implementation, used when Kafka is disabled.
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a no-op event publisher.
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishTransactionRequested(event TransactionRequestedEvent) error {
	return nil
}
func (p *NoOpEventPublisher) PublishTransactionPosted(event TransactionPostedEvent) error { return nil }
func (p *NoOpEventPublisher) PublishTransactionFailed(event TransactionFailedEvent) error { return nil }
func (p *NoOpEventPublisher) PublishExchangeRateUnavailable(event ExchangeRateUnavailableEvent) error {
	return nil
}
func (p *NoOpEventPublisher) Close() error    { return nil }
func (p *NoOpEventPublisher) IsHealthy() bool { return true }
