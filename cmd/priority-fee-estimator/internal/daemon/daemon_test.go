package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	require.NoError(t, cfg.SetValues(func(string) (string, bool) { return "", false }))
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestNewDaemon(t *testing.T) {
	d, err := New(defaultConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "priority_fee_estimator", d.MetricsNamespace())
	assert.NotNil(t, d.MetricsRegistry())
	assert.NotNil(t, d.Tracker())
	assert.Equal(t, 0, d.Tracker().LiveSlotCount())
}

func TestNewDaemonRejectsZeroCapacity(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.SlotWindowCapacity = 0
	_, err := New(cfg)
	require.Error(t, err)
}
