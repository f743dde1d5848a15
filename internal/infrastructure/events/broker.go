// Package events is the SSE fan-out broker, kept alongside the Kafka
// publisher: Kafka for downstream consumers, this broker for a live event
// stream over HTTP. A channel registry carries TransactionEvent values to
// every connected subscriber.
package events

import "sync"

// TransactionEvent is streamed to SSE subscribers whenever a transaction is
// posted or rolled back.
type TransactionEvent struct {
	Type            string  `json:"type"` // "posted" or "rolled_back"
	TransactionID   string  `json:"transaction_id,omitempty"`
	BookID          string  `json:"book_id"`
	Description     string  `json:"description,omitempty"`
	TotalDebits     float64 `json:"total_debits,omitempty"`
	TotalCredits    float64 `json:"total_credits,omitempty"`
	Error           string  `json:"error,omitempty"`
	TransactionDate string  `json:"transaction_date,omitempty"`
}

// Broker manages client subscriptions and broadcasts transaction events.
type Broker struct {
	clients       map[chan TransactionEvent]bool
	newClients    chan chan TransactionEvent
	closedClients chan chan TransactionEvent
	events        chan TransactionEvent
}

var (
	// BrokerInstance is the global event broker (singleton).
	BrokerInstance *Broker
	brokerOnce     sync.Once
)

// GetBroker returns the singleton event broker instance.
// Uses sync.Once to ensure it's only initialized once.
func GetBroker() *Broker {
	brokerOnce.Do(func() {
		BrokerInstance = NewBroker()
	})
	return BrokerInstance
}

// NewBroker creates and starts a new Broker.
// This is public for testing purposes but production code should use GetBroker().
func NewBroker() *Broker {
	b := &Broker{
		clients:       make(map[chan TransactionEvent]bool),
		newClients:    make(chan chan TransactionEvent),
		closedClients: make(chan chan TransactionEvent),
		events:        make(chan TransactionEvent),
	}

	go b.start()
	return b
}

func (b *Broker) start() {
	for {
		select {
		case client := <-b.newClients:
			b.clients[client] = true
		case client := <-b.closedClients:
			delete(b.clients, client)
			close(client)
		case event := <-b.events:
			for client := range b.clients {
				client <- event
			}
		}
	}
}

// Subscribe registers a new listener and returns its channel.
func (b *Broker) Subscribe() chan TransactionEvent {
	ch := make(chan TransactionEvent)
	b.newClients <- ch
	return ch
}

// Unsubscribe removes a listener.
func (b *Broker) Unsubscribe(ch chan TransactionEvent) {
	b.closedClients <- ch
}

// Publish sends the given event to all connected clients.
func (b *Broker) Publish(event TransactionEvent) {
	b.events <- event
}
