package litmus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	membarrier "github.com/ehrlich-b/go-membarrier"
	"github.com/ehrlich-b/go-membarrier/internal/logging"
)

func testConfig(t *testing.T, kind membarrier.Kind) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Kind = kind
	cfg.Iterations = 20_000
	if raceEnabled || testing.Short() {
		cfg.Iterations = 2_000
	}
	cfg.Metrics = NewMetrics()
	cfg.Logger = logging.NewLogger(&logging.Config{
		Level:   logging.LevelWarn,
		Format:  "json",
		Output:  testWriter{t},
		Sync:    true,
		NoColor: true,
	})
	return cfg
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := Config{Kind: membarrier.Kind(9), Iterations: 0, RingEntries: 12, Timeout: -time.Second}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid barrier kind")
	assert.Contains(t, err.Error(), "iterations must be positive")
	assert.Contains(t, err.Error(), "power of two")
	assert.Contains(t, err.Error(), "timeout")
}

func TestRunMessagePassing(t *testing.T) {
	for _, k := range []membarrier.Kind{membarrier.Mmio, membarrier.Memory, membarrier.Dma} {
		t.Run(k.String(), func(t *testing.T) {
			cfg := testConfig(t, k)
			res, err := Run(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, "mp", res.Test)
			assert.Equal(t, k, res.Kind)
			assert.Equal(t, uint64(cfg.Iterations), res.Iterations)
			assert.Zero(t, res.Violations)
			assert.NoError(t, res.Check())
			assert.Equal(t, membarrier.Instruction(k, membarrier.Store), res.Instruction)
		})
	}
}

func TestRunRing(t *testing.T) {
	cfg := testConfig(t, membarrier.Dma)
	cfg.RingEntries = 16
	res, err := RunRing(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ring", res.Test)
	assert.Equal(t, uint64(cfg.Iterations), res.Iterations)
	assert.True(t, res.Passed())

	snap := cfg.Metrics.Snapshot()
	assert.Equal(t, uint64(cfg.Iterations), snap.Published)
	assert.Equal(t, uint64(cfg.Iterations), snap.Consumed)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(t, membarrier.Memory)
	cfg.Iterations = 1 << 30
	_, err := Run(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = RunRing(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, membarrier.Memory)
	cfg.Iterations = -1
	_, err := Run(context.Background(), cfg)
	assert.Error(t, err)
	_, err = RunRing(context.Background(), cfg)
	assert.Error(t, err)
}

func TestResultCheck(t *testing.T) {
	r := &Result{Test: "mp", Kind: membarrier.Memory, Iterations: 10, Violations: 2}
	assert.False(t, r.Passed())
	err := r.Check()
	assert.ErrorIs(t, err, ErrViolation)
	assert.Contains(t, err.Error(), "mp/memory: 2 of 10 rounds")
}

func TestBench(t *testing.T) {
	m := NewMetrics()
	res, err := Bench(membarrier.Memory, membarrier.General, 1000, m)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), res.Iterations)
	assert.Equal(t, uint64(1000), m.OpCount.Load())
	assert.Equal(t, membarrier.Instruction(membarrier.Memory, membarrier.General), res.Instruction)
	assert.GreaterOrEqual(t, res.AvgNs, 0.0)

	_, err = Bench(membarrier.Kind(7), membarrier.General, 10, nil)
	assert.Error(t, err)
	_, err = Bench(membarrier.Mmio, membarrier.Load, 0, nil)
	assert.Error(t, err)
}

func TestBenchAll(t *testing.T) {
	res, err := BenchAll(100)
	require.NoError(t, err)
	assert.Len(t, res, len(membarrier.Kinds())*len(membarrier.Types()))
	for _, r := range res {
		assert.Equal(t, uint64(100), r.Iterations, "%s/%s", r.Kind, r.Type)
	}
}
