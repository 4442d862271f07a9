package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.SetValues(noEnv))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:4141", cfg.Endpoint)
	assert.Equal(t, uint(150), cfg.SlotWindowCapacity)
	assert.Equal(t, uint(150), cfg.MaxLookbackSlots)
	assert.Equal(t, uint(100), cfg.MaxAccountsPerRequest)
	assert.Equal(t, uint64(10_000), cfg.RecommendedFeeFloor)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
}

func TestEnvOverridesDefault(t *testing.T) {
	var cfg Config
	lookup := func(key string) (string, bool) {
		switch key {
		case "SLOT_WINDOW_CAPACITY":
			return "32", true
		case "LOG_FORMAT":
			return "json", true
		default:
			return "", false
		}
	}
	require.NoError(t, cfg.SetValues(lookup))
	assert.Equal(t, uint(32), cfg.SlotWindowCapacity)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestZeroCapacityRejected(t *testing.T) {
	var cfg Config
	lookup := func(key string) (string, bool) {
		if key == "SLOT_WINDOW_CAPACITY" {
			return "0", true
		}
		return "", false
	}
	require.NoError(t, cfg.SetValues(lookup))
	require.Error(t, cfg.Validate())
}

func TestInvalidLogLevelRejected(t *testing.T) {
	var cfg Config
	lookup := func(key string) (string, bool) {
		if key == "LOG_LEVEL" {
			return "shout", true
		}
		return "", false
	}
	require.NoError(t, cfg.SetValues(lookup))
	require.Error(t, cfg.Validate())
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
ENDPOINT = "0.0.0.0:9999"
SLOT_WINDOW_CAPACITY = 64
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	var cfg Config
	lookup := func(key string) (string, bool) {
		if key == "PRIORITY_FEE_ESTIMATOR_CONFIG_PATH" {
			return path, true
		}
		return "", false
	}
	require.NoError(t, cfg.SetValues(lookup))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:9999", cfg.Endpoint)
	assert.Equal(t, uint(64), cfg.SlotWindowCapacity)
}

func TestStrictConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
TYPO_ENDPOINT = "0.0.0.0:9999"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	var cfg Config
	lookup := func(key string) (string, bool) {
		switch key {
		case "PRIORITY_FEE_ESTIMATOR_CONFIG_PATH":
			return path, true
		case "PRIORITY_FEE_ESTIMATOR_CONFIG_STRICT":
			return "true", true
		default:
			return "", false
		}
	}
	require.Error(t, cfg.SetValues(lookup))
}
