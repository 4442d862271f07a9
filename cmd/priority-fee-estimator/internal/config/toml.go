package config

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml"
)

func parseToml(r io.Reader, strict bool, cfg *Config) error {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return err
	}

	validKeys := map[string]*Option{}
	for _, option := range cfg.options() {
		key, ok := option.getTomlKey()
		if !ok {
			continue
		}
		validKeys[key] = option
	}

	// STRICT in the file applies to every key, whatever order the keys come in.
	if raw := tree.Get("STRICT"); raw != nil {
		if v, err := coerceBool(raw); err == nil && v {
			strict = true
		}
	}

	for _, key := range tree.Keys() {
		option, ok := validKeys[key]
		if !ok {
			if strict || cfg.Strict {
				return fmt.Errorf("invalid config: unexpected entry specified in toml file %q", key)
			}
			continue
		}
		if err := option.setValue(tree.Get(key)); err != nil {
			return err
		}
	}
	return nil
}
