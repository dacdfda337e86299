// Package monitor instruments bulk-linking operations: phase and batch
// timing, network-call aggregates, memory snapshots, and threshold-based
// advisory warnings. The monitor observes; it never gates or alters an
// operation's outcome. Construct one per engine and inject it where needed.
package monitor

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"
)

// Warning categories.
type WarningType string

const (
	WarnMemory  WarningType = "memory"
	WarnCPU     WarningType = "cpu"
	WarnNetwork WarningType = "network"
	WarnBatch   WarningType = "batch"
)

// Warning severities.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Warning is an advisory raised when a threshold is crossed.
type Warning struct {
	Type            WarningType `json:"type"`
	Severity        Severity    `json:"severity"`
	Message         string      `json:"message"`
	SuggestedAction string      `json:"suggested_action"`
	Threshold       float64     `json:"threshold"`
	CurrentValue    float64     `json:"current_value"`
}

// BatchMetrics aggregates per-batch timings for one operation.
type BatchMetrics struct {
	TotalBatches int           `json:"total_batches"`
	AvgBatchTime time.Duration `json:"avg_batch_time"`
	MinBatchTime time.Duration `json:"min_batch_time"`
	MaxBatchTime time.Duration `json:"max_batch_time"`
	BatchSizes   []int         `json:"batch_sizes"`

	// Throughput is processed items per second since the operation started.
	Throughput float64 `json:"throughput"`
}

// NetworkMetrics aggregates backend-call timings for one operation.
type NetworkMetrics struct {
	TotalRequests   int           `json:"total_requests"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ErrorRate       float64       `json:"error_rate"`
	RetryCount      int           `json:"retry_count"`
}

// Metrics is the full record for one operation, finalized by
// CompleteOperation.
type Metrics struct {
	OperationID string        `json:"operation_id"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`

	MemoryStart uint64 `json:"memory_start"`
	MemoryEnd   uint64 `json:"memory_end"`
	MemoryDelta int64  `json:"memory_delta"`

	Batch   BatchMetrics   `json:"batch"`
	Network NetworkMetrics `json:"network"`

	failedRequests int
}

// Snapshot is a point-in-time resource reading.
type Snapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	HeapUsed   uint64    `json:"heap_used"`
	HeapTotal  uint64    `json:"heap_total"`
	Goroutines int       `json:"goroutines"`
}

// Thresholds drive warning emission. Zero values fall back to the defaults in
// DefaultThresholds.
type Thresholds struct {
	SlowBatch       time.Duration
	VerySlowBatch   time.Duration
	SlowNetwork     time.Duration
	SlowOperation   time.Duration
	MinThroughput   float64 // items per second
	MemoryDeltaWarn int64   // bytes
}

// DefaultThresholds returns the standard advisory thresholds: 5s batches
// (10s for high severity), 3s network calls, 30s operations, 10 items/s
// throughput floor, 100MB memory growth.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SlowBatch:       5 * time.Second,
		VerySlowBatch:   10 * time.Second,
		SlowNetwork:     3 * time.Second,
		SlowOperation:   30 * time.Second,
		MinThroughput:   10,
		MemoryDeltaWarn: 100 * 1024 * 1024,
	}
}

// Rolling caps for snapshots and warnings.
const (
	maxSnapshots = 100
	maxWarnings  = 50
)

// Monitor holds per-operation metrics plus rolling snapshots and warnings.
// Safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	thresholds Thresholds
	metrics    map[string]*Metrics
	snapshots  []Snapshot
	warnings   []Warning

	// now is replaceable in tests.
	now func() time.Time
}

// New returns a monitor with the given thresholds.
func New(thresholds Thresholds) *Monitor {
	if thresholds.SlowBatch <= 0 {
		thresholds.SlowBatch = DefaultThresholds().SlowBatch
	}
	if thresholds.VerySlowBatch <= 0 {
		thresholds.VerySlowBatch = DefaultThresholds().VerySlowBatch
	}
	if thresholds.SlowNetwork <= 0 {
		thresholds.SlowNetwork = DefaultThresholds().SlowNetwork
	}
	if thresholds.SlowOperation <= 0 {
		thresholds.SlowOperation = DefaultThresholds().SlowOperation
	}
	if thresholds.MinThroughput <= 0 {
		thresholds.MinThroughput = DefaultThresholds().MinThroughput
	}
	if thresholds.MemoryDeltaWarn <= 0 {
		thresholds.MemoryDeltaWarn = DefaultThresholds().MemoryDeltaWarn
	}
	return &Monitor{
		thresholds: thresholds,
		metrics:    make(map[string]*Metrics),
		now:        time.Now,
	}
}

// StartOperation begins tracking operationID and takes a resource snapshot.
func (m *Monitor) StartOperation(operationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.takeSnapshotLocked()
	m.metrics[operationID] = &Metrics{
		OperationID: operationID,
		StartTime:   m.now(),
		MemoryStart: snap.HeapUsed,
		Batch:       BatchMetrics{MinBatchTime: time.Duration(math.MaxInt64)},
	}
}

// RecordBatch folds one batch completion into the operation's aggregates and
// checks the batch-time thresholds. Unknown operation IDs are ignored.
func (m *Monitor) RecordBatch(operationID string, batchSize int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	met, ok := m.metrics[operationID]
	if !ok {
		return
	}

	b := &met.Batch
	b.TotalBatches++
	b.BatchSizes = append(b.BatchSizes, batchSize)
	if duration < b.MinBatchTime {
		b.MinBatchTime = duration
	}
	if duration > b.MaxBatchTime {
		b.MaxBatchTime = duration
	}
	total := b.AvgBatchTime*time.Duration(b.TotalBatches-1) + duration
	b.AvgBatchTime = total / time.Duration(b.TotalBatches)

	items := 0
	for _, size := range b.BatchSizes {
		items += size
	}
	if elapsed := m.now().Sub(met.StartTime).Seconds(); elapsed > 0 {
		b.Throughput = float64(items) / elapsed
	}

	if duration > m.thresholds.SlowBatch {
		severity := SeverityMedium
		if duration > m.thresholds.VerySlowBatch {
			severity = SeverityHigh
		}
		m.addWarningLocked(Warning{
			Type:            WarnBatch,
			Severity:        severity,
			Message:         fmt.Sprintf("batch processing is slow: %v for %d items", duration.Round(time.Millisecond), batchSize),
			SuggestedAction: "reduce the batch size or check backend query performance",
			Threshold:       m.thresholds.SlowBatch.Seconds(),
			CurrentValue:    duration.Seconds(),
		})
	}
}

// RecordNetworkRequest folds one backend call into the operation's aggregates
// and checks the network thresholds.
func (m *Monitor) RecordNetworkRequest(operationID string, duration time.Duration, success, isRetry bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	met, ok := m.metrics[operationID]
	if !ok {
		return
	}

	n := &met.Network
	n.TotalRequests++
	if isRetry {
		n.RetryCount++
	}
	total := n.AvgResponseTime*time.Duration(n.TotalRequests-1) + duration
	n.AvgResponseTime = total / time.Duration(n.TotalRequests)
	if !success {
		met.failedRequests++
	}
	n.ErrorRate = float64(met.failedRequests) / float64(n.TotalRequests)

	if duration > m.thresholds.SlowNetwork {
		m.addWarningLocked(Warning{
			Type:            WarnNetwork,
			Severity:        SeverityMedium,
			Message:         fmt.Sprintf("slow backend request: %v", duration.Round(time.Millisecond)),
			SuggestedAction: "check backend load and connectivity",
			Threshold:       m.thresholds.SlowNetwork.Seconds(),
			CurrentValue:    duration.Seconds(),
		})
	}
	if !success {
		m.addWarningLocked(Warning{
			Type:            WarnNetwork,
			Severity:        SeverityHigh,
			Message:         "backend request failed",
			SuggestedAction: "check connectivity and the retry configuration",
			CurrentValue:    1,
		})
	}
}

// CompleteOperation finalizes metrics for operationID, takes an end snapshot,
// and runs the whole-operation threshold checks. Returns the finalized
// metrics, or nil for an unknown operation.
func (m *Monitor) CompleteOperation(operationID string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	met, ok := m.metrics[operationID]
	if !ok {
		return nil
	}

	snap := m.takeSnapshotLocked()
	met.EndTime = m.now()
	met.Duration = met.EndTime.Sub(met.StartTime)
	met.MemoryEnd = snap.HeapUsed
	met.MemoryDelta = int64(met.MemoryEnd) - int64(met.MemoryStart)
	if met.Batch.TotalBatches == 0 {
		met.Batch.MinBatchTime = 0
	}

	if met.MemoryDelta > m.thresholds.MemoryDeltaWarn {
		m.addWarningLocked(Warning{
			Type:            WarnMemory,
			Severity:        SeverityHigh,
			Message:         fmt.Sprintf("operation %s grew the heap by %dMB", operationID, met.MemoryDelta/1024/1024),
			SuggestedAction: "reduce batch sizes or release intermediate slices between batches",
			Threshold:       float64(m.thresholds.MemoryDeltaWarn),
			CurrentValue:    float64(met.MemoryDelta),
		})
	}
	if met.Duration > m.thresholds.SlowOperation {
		m.addWarningLocked(Warning{
			Type:            WarnCPU,
			Severity:        SeverityHigh,
			Message:         fmt.Sprintf("operation took %v to complete", met.Duration.Round(time.Second)),
			SuggestedAction: "split the operation into smaller selections",
			Threshold:       m.thresholds.SlowOperation.Seconds(),
			CurrentValue:    met.Duration.Seconds(),
		})
	}
	if met.Batch.TotalBatches > 0 && met.Batch.Throughput < m.thresholds.MinThroughput {
		m.addWarningLocked(Warning{
			Type:            WarnBatch,
			Severity:        SeverityMedium,
			Message:         fmt.Sprintf("low throughput: %.1f items/second", met.Batch.Throughput),
			SuggestedAction: "increase the batch size or check backend latency",
			Threshold:       m.thresholds.MinThroughput,
			CurrentValue:    met.Batch.Throughput,
		})
	}

	out := *met
	return &out
}

// Metrics returns the current metrics for operationID, or nil if unknown.
func (m *Monitor) Metrics(operationID string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	met, ok := m.metrics[operationID]
	if !ok {
		return nil
	}
	out := *met
	return &out
}

// Warnings returns a copy of the rolling warning list, oldest first.
func (m *Monitor) Warnings() []Warning {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Warning, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// ClearWarnings empties the warning list.
func (m *Monitor) ClearWarnings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = nil
}

// Snapshots returns the most recent count resource snapshots.
func (m *Monitor) Snapshots(count int) []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if count <= 0 || count > len(m.snapshots) {
		count = len(m.snapshots)
	}
	out := make([]Snapshot, count)
	copy(out, m.snapshots[len(m.snapshots)-count:])
	return out
}

func (m *Monitor) takeSnapshotLocked() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := Snapshot{
		Timestamp:  m.now(),
		HeapUsed:   ms.HeapAlloc,
		HeapTotal:  ms.Sys,
		Goroutines: runtime.NumGoroutine(),
	}
	m.snapshots = append(m.snapshots, snap)
	if len(m.snapshots) > maxSnapshots {
		m.snapshots = m.snapshots[len(m.snapshots)-maxSnapshots:]
	}
	return snap
}

func (m *Monitor) addWarningLocked(w Warning) {
	m.warnings = append(m.warnings, w)
	if len(m.warnings) > maxWarnings {
		m.warnings = m.warnings[len(m.warnings)-maxWarnings:]
	}
}
