package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoicingConfig holds numbering and default terms for new invoices.
type InvoicingConfig struct {
	NumberPrefix     string `mapstructure:"numberPrefix"`
	Currency         string `mapstructure:"currency"`
	PaymentTermsDays int    `mapstructure:"paymentTermsDays"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		NumberPrefix:     "INV",
		Currency:         "USD",
		PaymentTermsDays: 30,
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfigHolder returns a holder that never reloads.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder(appCfg Config, log *zap.Logger) (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath(appCfg.DataDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLOWDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.numberPrefix", defaults.NumberPrefix)
	v.SetDefault("invoicing.currency", defaults.Currency)
	v.SetDefault("invoicing.paymentTermsDays", defaults.PaymentTermsDays)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	log = log.Named("config.invoicing")
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Warn("invoicing.config.reload_failed", zap.Error(err))
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Warn("invoicing.config.invalid", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoicing.config.reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	return h.current.Load().(InvoicingConfig)
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if strings.TrimSpace(cfg.NumberPrefix) == "" {
		return errors.New("invoicing.numberPrefix cannot be empty")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("invoicing.currency cannot be empty")
	}
	if cfg.PaymentTermsDays < 0 {
		return errors.New("invoicing.paymentTermsDays cannot be negative")
	}
	return nil
}
