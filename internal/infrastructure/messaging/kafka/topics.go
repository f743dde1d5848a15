package kafka

// Topic names for ledger domain events.
const (
	TopicTransactionRequests     = "ledger.commands.transaction-requests"
	TopicTransactionsPosted      = "ledger.transactions.posted"
	TopicTransactionsFailed      = "ledger.transactions.failed"
	TopicExchangeRateUnavailable = "ledger.transactions.exchange-rate-unavailable"
)

// GetAllTopics returns the list of all topics this service produces to or
// consumes from.
func GetAllTopics() []string {
	return []string{
		TopicTransactionRequests,
		TopicTransactionsPosted,
		TopicTransactionsFailed,
		TopicExchangeRateUnavailable,
	}
}
