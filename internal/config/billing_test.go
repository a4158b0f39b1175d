package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBillingConfig(t *testing.T) {
	cfg := DefaultBillingConfig()
	assert.True(t, cfg.RatePerCbmPerWeek.Equal(decimal.NewFromInt(5)))
}

func TestStaticBillingConfigHolder(t *testing.T) {
	rate := decimal.RequireFromString("7.25")
	holder := NewStaticBillingConfigHolder(BillingConfig{RatePerCbmPerWeek: rate})
	assert.True(t, holder.Get().RatePerCbmPerWeek.Equal(rate))
}

func TestValidateBillingConfig(t *testing.T) {
	require.NoError(t, validateBillingConfig(BillingConfig{RatePerCbmPerWeek: decimal.NewFromInt(1)}))
	assert.Error(t, validateBillingConfig(BillingConfig{RatePerCbmPerWeek: decimal.Zero}))
	assert.Error(t, validateBillingConfig(BillingConfig{RatePerCbmPerWeek: decimal.NewFromInt(-3)}))
}
