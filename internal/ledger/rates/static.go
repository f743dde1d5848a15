// Package rates provides the dev/demo implementation of
// models.ExchangeRateProvider. A live rate scraper would implement the same
// interface and plug in wherever this one does.
package rates

import (
	"fmt"
	"sync"

	"ledger-api/internal/ledger/currency"
	"ledger-api/internal/ledger/kernelerr"
	"ledger-api/internal/ledger/money"
)

func pairKey(from, to currency.Currency) string {
	return from.Code + "->" + to.Code
}

// StaticRateProvider answers GetExchangeRate from a fixed, operator-loaded
// table, the same mutex-guarded map pattern currency.Registry uses for its
// code table. Missing pairs surface as kernelerr.ExchangeRateUnavailable
// rather than panicking, so a book with an unconfigured currency pair fails
// the one transaction that needs it instead of the whole process.
type StaticRateProvider struct {
	mu    sync.RWMutex
	table map[string]money.Amount
}

// NewStaticRateProvider builds an empty provider; call Set to seed rates.
func NewStaticRateProvider() *StaticRateProvider {
	return &StaticRateProvider{table: make(map[string]money.Amount)}
}

// Set installs (or replaces) the rate to convert one unit of from into to.
func (p *StaticRateProvider) Set(from, to currency.Currency, rate money.Amount) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table[pairKey(from, to)] = rate
}

// GetExchangeRate implements models.ExchangeRateProvider.
func (p *StaticRateProvider) GetExchangeRate(from, to currency.Currency) (money.Amount, error) {
	if from.Code == to.Code {
		return money.New(1), nil
	}

	p.mu.RLock()
	rate, ok := p.table[pairKey(from, to)]
	p.mu.RUnlock()
	if !ok {
		return money.Zero, kernelerr.Newf(kernelerr.ExchangeRateUnavailable,
			"no static rate configured for %s", fmt.Sprintf("%s->%s", from.Code, to.Code))
	}
	return rate, nil
}
