package rates

import (
	"context"

	"ledger-api/internal/ledger/models"
	"ledger-api/internal/ledger/ports"

	"github.com/google/uuid"
)

// attachingStore decorates a ports.Store so every profile it returns carries
// a live RateProvider. RateProvider is deliberately never persisted (see
// models.Profile), so a freshly loaded profile needs it reattached on every
// read. Engine.SetExchangeRateProvider solves this for a profile the caller
// already holds in memory; this decorator solves it for the profile Engine
// reloads internally for every transaction.
type attachingStore struct {
	ports.Store
	provider models.ExchangeRateProvider
}

// WithDefaultRateProvider wraps store so every models.Profile it returns has
// provider attached as its RateProvider.
func WithDefaultRateProvider(store ports.Store, provider models.ExchangeRateProvider) ports.Store {
	return &attachingStore{Store: store, provider: provider}
}

func (s *attachingStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.Store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	p.RateProvider = s.provider
	return p, nil
}
