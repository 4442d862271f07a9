package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	// defaultSlotWindowCapacity is roughly a minute of Solana slots.
	defaultSlotWindowCapacity = 150

	defaultEndpoint = "localhost:4141"
)

func (cfg *Config) options() Options {
	if cfg.optionsCache != nil {
		return *cfg.optionsCache
	}
	cfg.optionsCache = &Options{
		{
			Name:      "config-path",
			EnvVar:    "PRIORITY_FEE_ESTIMATOR_CONFIG_PATH",
			TomlKey:   "-",
			Usage:     "File path to the toml configuration file",
			ConfigKey: &cfg.ConfigPath,
		},
		{
			Name:         "config-strict",
			EnvVar:       "PRIORITY_FEE_ESTIMATOR_CONFIG_STRICT",
			TomlKey:      "STRICT",
			Usage:        "Enable strict toml configuration file parsing. This will prevent unknown fields in the config toml from being parsed.",
			ConfigKey:    &cfg.Strict,
			DefaultValue: false,
		},
		{
			Name:         "endpoint",
			Usage:        "Endpoint to listen and serve on",
			ConfigKey:    &cfg.Endpoint,
			DefaultValue: defaultEndpoint,
		},
		{
			Name:      "admin-endpoint",
			Usage:     "Admin endpoint to listen and serve on. WARNING: this should not be accessible from the Internet and does not use TLS. \"\" (default) disables the admin server",
			ConfigKey: &cfg.AdminEndpoint,
		},
		{
			Name:      "stream-endpoint",
			Usage:     "Address of the transaction event stream to ingest. \"\" (default) starts the server with an empty fee window",
			ConfigKey: &cfg.StreamEndpoint,
		},
		{
			Name:         "slot-window-capacity",
			Usage:        "Number of slots retained in the sliding fee window",
			ConfigKey:    &cfg.SlotWindowCapacity,
			DefaultValue: uint(defaultSlotWindowCapacity),
			Validate:     positive,
		},
		{
			Name:         "max-lookback-slots",
			Usage:        "Largest per-request lookback accepted by the fee estimate methods",
			ConfigKey:    &cfg.MaxLookbackSlots,
			DefaultValue: uint(defaultSlotWindowCapacity),
			Validate:     positive,
		},
		{
			Name:         "max-accounts-per-request",
			Usage:        "Largest account list accepted by the fee estimate methods",
			ConfigKey:    &cfg.MaxAccountsPerRequest,
			DefaultValue: uint(100),
			Validate:     positive,
		},
		{
			Name:         "recommended-fee-floor",
			Usage:        "Floor in micro-lamports applied to the medium estimate when a recommended fee is requested",
			ConfigKey:    &cfg.RecommendedFeeFloor,
			DefaultValue: uint64(10_000),
		},
		{
			Name:         "log-level",
			Usage:        "Minimum log severity (debug, info, warn, error) to log",
			ConfigKey:    &cfg.LogLevel,
			DefaultValue: "info",
			Validate: func(option *Option) error {
				_, err := logrus.ParseLevel(cfg.LogLevel)
				if err != nil {
					return fmt.Errorf("could not parse log-level: %v", cfg.LogLevel)
				}
				return nil
			},
		},
		{
			Name:         "log-format",
			Usage:        "Format used for output logs (text or json)",
			ConfigKey:    &cfg.LogFormat,
			DefaultValue: LogFormatText,
		},
	}
	return *cfg.optionsCache
}

// Flags returns the flag set every option is bound to.
func (cfg *Config) Flags() *pflag.FlagSet {
	if cfg.flagset != nil {
		return cfg.flagset
	}
	cfg.flagset = pflag.NewFlagSet("priority-fee-estimator", pflag.ContinueOnError)
	cfg.options().Init(cfg.flagset)
	return cfg.flagset
}

func positive(option *Option) error {
	switch key := option.ConfigKey.(type) {
	case *uint:
		if *key == 0 {
			return errors.New("must be positive")
		}
	case *uint64:
		if *key == 0 {
			return errors.New("must be positive")
		}
	}
	return nil
}
