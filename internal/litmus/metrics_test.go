package litmus

import (
	"testing"
	"time"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.Iterations != 0 {
		t.Errorf("Expected 0 initial iterations, got %d", snap.Iterations)
	}

	m.RecordIteration(false)
	m.RecordIteration(false)
	m.RecordIteration(true)
	m.RecordIteration(false)

	snap = m.Snapshot()
	if snap.Iterations != 4 {
		t.Errorf("Expected 4 iterations, got %d", snap.Iterations)
	}
	if snap.Violations != 1 {
		t.Errorf("Expected 1 violation, got %d", snap.Violations)
	}
	if snap.ViolationRate < 24.9 || snap.ViolationRate > 25.1 {
		t.Errorf("Expected violation rate ~25%%, got %.1f%%", snap.ViolationRate)
	}
}

func TestMetricsRing(t *testing.T) {
	m := NewMetrics()

	m.RecordPublish(true)
	m.RecordPublish(true)
	m.RecordPublish(false)
	m.RecordConsume(true)
	m.RecordConsume(false)
	m.RecordConsume(false)

	snap := m.Snapshot()
	if snap.Published != 2 {
		t.Errorf("Expected 2 published, got %d", snap.Published)
	}
	if snap.RingFull != 1 {
		t.Errorf("Expected 1 ring full, got %d", snap.RingFull)
	}
	if snap.Consumed != 1 {
		t.Errorf("Expected 1 consumed, got %d", snap.Consumed)
	}
	if snap.RingEmpty != 2 {
		t.Errorf("Expected 2 ring empty, got %d", snap.RingEmpty)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	// 100 barriers at 20ns each, 100 at 40ns each
	m.RecordLatency(2000, 100)
	m.RecordLatency(4000, 100)
	m.RecordLatency(0, 0) // ignored

	snap := m.Snapshot()
	if snap.AvgLatencyNs != 30 {
		t.Errorf("Expected avg latency 30 ns, got %d ns", snap.AvgLatencyNs)
	}
	// 20ns lands in the 25ns bucket, 40ns in the 50ns bucket
	if snap.LatencyHistogram[1] != 0 {
		t.Errorf("Expected empty 10ns bucket, got %d", snap.LatencyHistogram[1])
	}
	if snap.LatencyHistogram[2] != 100 {
		t.Errorf("Expected 100 in 25ns bucket, got %d", snap.LatencyHistogram[2])
	}
	if snap.LatencyHistogram[3] != 200 {
		t.Errorf("Expected 200 in 50ns bucket, got %d", snap.LatencyHistogram[3])
	}
	if snap.LatencyP50Ns > 25 {
		t.Errorf("Expected p50 <= 25ns, got %d", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns <= 25 || snap.LatencyP99Ns > 50 {
		t.Errorf("Expected p99 in (25, 50]ns, got %d", snap.LatencyP99Ns)
	}
}

func TestMetricsLatencyOverflow(t *testing.T) {
	m := NewMetrics()
	m.RecordLatency(1_000_000, 1) // 1ms, beyond every bucket

	snap := m.Snapshot()
	if snap.LatencyP50Ns != LatencyBuckets[len(LatencyBuckets)-1] {
		t.Errorf("Expected p50 clamped to last bucket, got %d", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns != LatencyBuckets[len(LatencyBuckets)-1] {
		t.Errorf("Expected p99 clamped to last bucket, got %d", snap.LatencyP99Ns)
	}
}

func TestMetricsPercentileFewSamples(t *testing.T) {
	m := NewMetrics()
	m.RecordLatency(40, 1)  // 50ns bucket
	m.RecordLatency(200, 1) // 250ns bucket

	snap := m.Snapshot()
	if snap.LatencyP50Ns <= 25 || snap.LatencyP50Ns > 50 {
		t.Errorf("Expected p50 in (25, 50]ns, got %d", snap.LatencyP50Ns)
	}
	if snap.LatencyP99Ns <= 100 || snap.LatencyP99Ns > 250 {
		t.Errorf("Expected p99 in (100, 250]ns, got %d", snap.LatencyP99Ns)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1000000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1000000 { // Allow 2ms tolerance
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())
	for i := 0; i < 10; i++ {
		m.RecordIteration(false)
	}
	m.StopTime.Store(startTime.Add(2 * time.Second).UnixNano())

	snap := m.Snapshot()
	if snap.RoundsPerSec < 4.9 || snap.RoundsPerSec > 5.1 {
		t.Errorf("Expected ~5 rounds/sec, got %.2f", snap.RoundsPerSec)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordIteration(true)
	m.RecordPublish(true)
	m.RecordLatency(100, 10)

	m.Reset()

	snap := m.Snapshot()
	if snap.Iterations != 0 || snap.Violations != 0 {
		t.Errorf("Expected 0 iterations after reset, got %d/%d", snap.Iterations, snap.Violations)
	}
	if snap.Published != 0 {
		t.Errorf("Expected 0 published after reset, got %d", snap.Published)
	}
	if snap.AvgLatencyNs != 0 {
		t.Errorf("Expected 0 latency after reset, got %d", snap.AvgLatencyNs)
	}
}
