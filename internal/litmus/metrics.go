package litmus

import (
	"math"
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the barrier latency histogram buckets in nanoseconds.
// A fence costs from a few cycles to a few microseconds on a loaded bus.
var LatencyBuckets = []uint64{
	5,      // 5ns
	10,     // 10ns
	25,     // 25ns
	50,     // 50ns
	100,    // 100ns
	250,    // 250ns
	1_000,  // 1us
	10_000, // 10us
}

const numLatencyBuckets = 8

// Metrics tracks litmus and benchmark statistics
type Metrics struct {
	// Litmus counters
	Iterations atomic.Uint64 // Completed message-passing rounds
	Violations atomic.Uint64 // Rounds that observed stale data

	// Ring counters
	Published atomic.Uint64 // Descriptors published
	Consumed  atomic.Uint64 // Descriptors consumed
	RingFull  atomic.Uint64 // Publish attempts that found the ring full
	RingEmpty atomic.Uint64 // Consume attempts that found the ring empty

	// Barrier latency
	TotalLatencyNs atomic.Uint64 // Cumulative per-barrier latency in nanoseconds
	OpCount        atomic.Uint64 // Barriers measured

	// Latency histogram buckets (cumulative)
	// Each bucket[i] contains the count of barriers with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // Run start timestamp (UnixNano)
	StopTime  atomic.Int64 // Run stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordIteration records one litmus round
func (m *Metrics) RecordIteration(violation bool) {
	m.Iterations.Add(1)
	if violation {
		m.Violations.Add(1)
	}
}

// RecordPublish records a publish attempt
func (m *Metrics) RecordPublish(ok bool) {
	if ok {
		m.Published.Add(1)
	} else {
		m.RingFull.Add(1)
	}
}

// RecordConsume records a consume attempt
func (m *Metrics) RecordConsume(ok bool) {
	if ok {
		m.Consumed.Add(1)
	} else {
		m.RingEmpty.Add(1)
	}
}

// RecordLatency records count barriers that took totalNs together
func (m *Metrics) RecordLatency(totalNs uint64, count uint64) {
	if count == 0 {
		return
	}
	m.TotalLatencyNs.Add(totalNs)
	m.OpCount.Add(count)

	perOp := totalNs / count
	for i, bucket := range LatencyBuckets {
		if perOp <= bucket {
			m.LatencyBuckets[i].Add(count)
		}
	}
}

// Stop marks the run as finished
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	Iterations uint64
	Violations uint64

	Published uint64
	Consumed  uint64
	RingFull  uint64
	RingEmpty uint64

	AvgLatencyNs  uint64
	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	UptimeNs      uint64
	RoundsPerSec  float64
	ViolationRate float64 // Percentage of rounds with a violation
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Iterations: m.Iterations.Load(),
		Violations: m.Violations.Load(),
		Published:  m.Published.Load(),
		Consumed:   m.Consumed.Load(),
		RingFull:   m.RingFull.Load(),
		RingEmpty:  m.RingEmpty.Load(),
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}
	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}
	if snap.UptimeNs > 0 {
		snap.RoundsPerSec = float64(snap.Iterations) / (float64(snap.UptimeNs) / 1e9)
	}
	if snap.Iterations > 0 {
		snap.ViolationRate = float64(snap.Violations) / float64(snap.Iterations) * 100.0
	}
	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(math.Ceil(float64(totalOps) * percentile))
	targetCount = max(targetCount, 1)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	// Latency exceeds all buckets
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all counters (useful for testing)
func (m *Metrics) Reset() {
	m.Iterations.Store(0)
	m.Violations.Store(0)
	m.Published.Store(0)
	m.Consumed.Store(0)
	m.RingFull.Store(0)
	m.RingEmpty.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}
