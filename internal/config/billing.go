package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BillingConfig carries the billing parameters the accounting core consumes.
// The free buffer above the base limit is plan-owned and arrives on the
// capacity snapshot, so only the over-capacity rate lives here.
type BillingConfig struct {
	RatePerCbmPerWeek decimal.Decimal
}

// rawBillingConfig is the on-disk shape; the rate is kept as a string so the
// file stays exact-decimal instead of going through float64.
type rawBillingConfig struct {
	RatePerCbmPerWeek string `mapstructure:"ratePerCbmPerWeek"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		RatePerCbmPerWeek: decimal.NewFromInt(5),
	}
}

// BillingConfigHolder exposes the current billing parameters and swaps them
// atomically on config-file reload.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/stackfreight/config") // Volume-mounted config
	v.AddConfigPath("/etc/stackfreight")            // System config
	v.AddConfigPath(".")                            // Current directory (dev mode)

	v.SetEnvPrefix("STACKFREIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg, err := parseBillingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := parseBillingConfig(v)
		if err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed config, bypassing file watching.
// Used by tests and by embedders that own rate configuration themselves.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func parseBillingConfig(v *viper.Viper) (BillingConfig, error) {
	var raw rawBillingConfig
	if err := v.UnmarshalKey("billing", &raw); err != nil {
		return BillingConfig{}, err
	}

	cfg := DefaultBillingConfig()
	if strings.TrimSpace(raw.RatePerCbmPerWeek) != "" {
		rate, err := decimal.NewFromString(raw.RatePerCbmPerWeek)
		if err != nil {
			return BillingConfig{}, fmt.Errorf("billing.ratePerCbmPerWeek: %w", err)
		}
		cfg.RatePerCbmPerWeek = rate
	}

	return cfg, validateBillingConfig(cfg)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.RatePerCbmPerWeek.Sign() <= 0 {
		return errors.New("billing.ratePerCbmPerWeek must be positive")
	}
	return nil
}
