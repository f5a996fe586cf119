package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessRate(t *testing.T) {
	m := NewSwapMetrics("test")
	assert.Equal(t, float64(0), m.SuccessRate())

	m.Attempts.Inc()
	m.Attempts.Inc()
	m.Successes.Inc()
	assert.InDelta(t, 0.5, m.SuccessRate(), 0.001)
}

func TestRegister(t *testing.T) {
	m := NewSwapMetrics("test")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	// Registering the same set twice must be rejected by the registry.
	assert.Error(t, m.Register(reg))
}

func TestIndependentInstances(t *testing.T) {
	a := NewSwapMetrics("test")
	b := NewSwapMetrics("test")

	a.Attempts.Inc()
	assert.Equal(t, float64(1), counterValue(a.Attempts))
	assert.Equal(t, float64(0), counterValue(b.Attempts))
}
