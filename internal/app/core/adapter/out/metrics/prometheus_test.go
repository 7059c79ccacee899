package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveOperation("transfer", "ok", 2*time.Millisecond)
	r.ObserveOperation("transfer", "ok", time.Millisecond)
	r.ObserveOperation("transfer", "InsufficientFunds", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("transfer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("transfer", "InsufficientFunds")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.latency, "membank_ledger_operation_duration_seconds"))
}

func TestNewRecorder_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRecorder(reg)
	require.NoError(t, err)
	second, err := NewRecorder(reg)
	require.NoError(t, err)

	first.ObserveOperation("deposit", "ok", time.Millisecond)
	second.ObserveOperation("deposit", "ok", time.Millisecond)

	assert.Same(t, first.operations, second.operations)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.operations.WithLabelValues("deposit", "ok")))
}
