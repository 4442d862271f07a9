package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Option describes one configuration setting and where it binds: a cli
// flag, an environment variable and a toml key all feed the same ConfigKey
// pointer.
type Option struct {
	Name         string
	EnvVar       string // set to "-" to disable the environment variable
	TomlKey      string // set to "-" to disable the toml key
	Usage        string
	ConfigKey    any
	DefaultValue any
	Validate     func(*Option) error

	flag *pflag.Flag
}

// getEnvKey returns the environment variable bound to this option.
func (o *Option) getEnvKey() (string, bool) {
	if o.EnvVar == "-" {
		return "", false
	}
	if o.EnvVar != "" {
		return o.EnvVar, true
	}
	return strings.ToUpper(strings.ReplaceAll(o.Name, "-", "_")), true
}

// getTomlKey returns the toml key bound to this option.
func (o *Option) getTomlKey() (string, bool) {
	if o.TomlKey == "-" {
		return "", false
	}
	if o.TomlKey != "" {
		return o.TomlKey, true
	}
	return strings.ToUpper(strings.ReplaceAll(o.Name, "-", "_")), true
}

// setValue coerces a raw value (string from flags/env, native types from
// toml) into the option's ConfigKey.
func (o *Option) setValue(raw any) error {
	switch key := o.ConfigKey.(type) {
	case *string:
		*key = fmt.Sprint(raw)
	case *bool:
		v, err := coerceBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Name, err)
		}
		*key = v
	case *uint:
		v, err := coerceUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Name, err)
		}
		*key = uint(v)
	case *uint64:
		v, err := coerceUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", o.Name, err)
		}
		*key = v
	case *LogFormat:
		v, err := ParseLogFormat(fmt.Sprint(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", o.Name, err)
		}
		*key = v
	default:
		return fmt.Errorf("unsupported config key type for option %s", o.Name)
	}
	return nil
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	default:
		return strconv.ParseBool(fmt.Sprint(raw))
	}
}

func coerceUint(raw any) (uint64, error) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case uint:
		return uint64(v), nil
	case uint64:
		return v, nil
	default:
		return strconv.ParseUint(fmt.Sprint(raw), 10, 64)
	}
}

type Options []*Option

// Validate runs every option's validator.
func (options Options) Validate() error {
	for _, option := range options {
		if option.Validate == nil {
			continue
		}
		if err := option.Validate(option); err != nil {
			return fmt.Errorf("invalid config value for %s: %w", option.Name, err)
		}
	}
	return nil
}

// Init binds every option to the flag set as a string-valued flag (bools
// keep their native type so they work as toggles).
func (options Options) Init(fs *pflag.FlagSet) {
	for _, option := range options {
		switch option.ConfigKey.(type) {
		case *bool:
			fs.Bool(option.Name, false, option.Usage)
		default:
			fs.String(option.Name, "", option.Usage)
		}
		option.flag = fs.Lookup(option.Name)
	}
}
