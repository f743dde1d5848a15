package currency_test

import (
	"testing"

	"ledger-api/internal/ledger/currency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededRegistryHasDefaults(t *testing.T) {
	r := currency.NewSeededRegistry()

	brl, ok := r.Get("BRL")
	require.True(t, ok)
	assert.Equal(t, 100, brl.Fraction)

	clp, ok := r.Get("CLP")
	require.True(t, ok)
	assert.Equal(t, 1, clp.Fraction)
}

func TestRegisterRejectsDuplicateCode(t *testing.T) {
	r := currency.NewRegistry()
	require.NoError(t, r.Register("USD", "American Dollar", 100))
	assert.Error(t, r.Register("USD", "Another Dollar", 100))
}

func TestGetUnknownCode(t *testing.T) {
	r := currency.NewRegistry()
	_, ok := r.Get("ZZZ")
	assert.False(t, ok)
}
