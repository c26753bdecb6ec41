package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PayrollConfig holds payroll tunables that operators may change without a redeploy.
type PayrollConfig struct {
	DefaultPaymentTermsDays int    `mapstructure:"defaultPaymentTermsDays"`
	MinPaymentTermsDays     int    `mapstructure:"minPaymentTermsDays"`
	MaxPaymentTermsDays     int    `mapstructure:"maxPaymentTermsDays"`
	Currency                string `mapstructure:"currency"`
	ExpenseAccountCode      string `mapstructure:"expenseAccountCode"`
	CashAccountCode         string `mapstructure:"cashAccountCode"`
}

func DefaultPayrollConfig() PayrollConfig {
	return PayrollConfig{
		DefaultPaymentTermsDays: 15,
		MinPaymentTermsDays:     1,
		MaxPaymentTermsDays:     90,
		Currency:                "RWF",
		ExpenseAccountCode:      "payroll_expense",
		CashAccountCode:         "cash",
	}
}

type PayrollConfigHolder struct {
	current atomic.Value // holds PayrollConfig
}

// StaticPayrollConfig returns a holder that never reloads.
func StaticPayrollConfig(cfg PayrollConfig) *PayrollConfigHolder {
	holder := &PayrollConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPayrollConfigHolder() (*PayrollConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("payroll")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/dairypay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DAIRYPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPayrollConfig()
	v.SetDefault("payroll.defaultPaymentTermsDays", defaults.DefaultPaymentTermsDays)
	v.SetDefault("payroll.minPaymentTermsDays", defaults.MinPaymentTermsDays)
	v.SetDefault("payroll.maxPaymentTermsDays", defaults.MaxPaymentTermsDays)
	v.SetDefault("payroll.currency", defaults.Currency)
	v.SetDefault("payroll.expenseAccountCode", defaults.ExpenseAccountCode)
	v.SetDefault("payroll.cashAccountCode", defaults.CashAccountCode)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg PayrollConfig
	if err := v.UnmarshalKey("payroll", &cfg); err != nil {
		return nil, err
	}
	if err := validatePayrollConfig(cfg); err != nil {
		return nil, err
	}

	holder := StaticPayrollConfig(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PayrollConfig
		if err := v.UnmarshalKey("payroll", &updated); err != nil {
			log.Printf("[payroll-config] reload failed: %v", err)
			return
		}
		if err := validatePayrollConfig(updated); err != nil {
			log.Printf("[payroll-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[payroll-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PayrollConfigHolder) Get() PayrollConfig {
	if h == nil {
		return DefaultPayrollConfig()
	}
	return h.current.Load().(PayrollConfig)
}

func validatePayrollConfig(cfg PayrollConfig) error {
	if cfg.MinPaymentTermsDays < 1 {
		return errors.New("payroll.minPaymentTermsDays must be at least 1")
	}
	if cfg.MaxPaymentTermsDays < cfg.MinPaymentTermsDays {
		return errors.New("payroll.maxPaymentTermsDays must not be below minPaymentTermsDays")
	}
	if cfg.DefaultPaymentTermsDays < cfg.MinPaymentTermsDays || cfg.DefaultPaymentTermsDays > cfg.MaxPaymentTermsDays {
		return errors.New("payroll.defaultPaymentTermsDays out of bounds")
	}
	if strings.TrimSpace(cfg.ExpenseAccountCode) == "" || strings.TrimSpace(cfg.CashAccountCode) == "" {
		return errors.New("payroll ledger account codes cannot be empty")
	}
	return nil
}
