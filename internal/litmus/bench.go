package litmus

import (
	"fmt"
	"time"

	membarrier "github.com/ehrlich-b/go-membarrier"
)

// benchBatch is the number of barriers timed together. A single fence
// is below timer resolution on most hosts.
const benchBatch = 256

// BenchResult is the measured cost of one (kind, type) pair
type BenchResult struct {
	Kind        membarrier.Kind
	Type        membarrier.Type
	Instruction string
	Iterations  uint64
	AvgNs       float64
	P50Ns       uint64
	P99Ns       uint64
}

// Bench issues Barrier(kind, typ) iterations times in batches and records
// per-batch latency into m. A nil m uses a fresh Metrics.
func Bench(kind membarrier.Kind, typ membarrier.Type, iterations int, m *Metrics) (BenchResult, error) {
	if !kind.Valid() || !typ.Valid() {
		return BenchResult{}, fmt.Errorf("litmus: invalid barrier %s/%s", kind, typ)
	}
	if iterations <= 0 {
		return BenchResult{}, fmt.Errorf("litmus: iterations must be positive, got %d", iterations)
	}
	if m == nil {
		m = NewMetrics()
	}

	done := 0
	for done < iterations {
		n := min(benchBatch, iterations-done)
		start := time.Now()
		for i := 0; i < n; i++ {
			membarrier.Barrier(kind, typ)
		}
		m.RecordLatency(uint64(time.Since(start).Nanoseconds()), uint64(n))
		done += n
	}
	m.Stop()

	snap := m.Snapshot()
	res := BenchResult{
		Kind:        kind,
		Type:        typ,
		Instruction: membarrier.Instruction(kind, typ),
		Iterations:  uint64(iterations),
		P50Ns:       snap.LatencyP50Ns,
		P99Ns:       snap.LatencyP99Ns,
	}
	if ops := m.OpCount.Load(); ops > 0 {
		res.AvgNs = float64(m.TotalLatencyNs.Load()) / float64(ops)
	}
	return res, nil
}

// BenchAll measures every (kind, type) pair on this build
func BenchAll(iterations int) ([]BenchResult, error) {
	var out []BenchResult
	for _, k := range membarrier.Kinds() {
		for _, t := range membarrier.Types() {
			r, err := Bench(k, t, iterations, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}
