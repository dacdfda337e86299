package monitor

import "time"

// Recommendation bounds.
const (
	recMaxBatchSize       = 1000
	recMinBatchSize       = 10
	recDefaultConcurrency = 3
)

// Recommendations suggests batching parameters derived from observed metrics
// and the latest resource snapshot. Purely informational.
type Recommendations struct {
	BatchSize         int      `json:"batch_size"`
	ConcurrentBatches int      `json:"concurrent_batches"`
	Notes             []string `json:"notes"`
}

// Recommendations derives tuning suggestions for operationID. An unknown or
// empty operation ID yields the defaults plus any snapshot-based notes.
func (m *Monitor) Recommendations(operationID string) Recommendations {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := Recommendations{
		BatchSize:         recMaxBatchSize,
		ConcurrentBatches: recDefaultConcurrency,
	}

	if met, ok := m.metrics[operationID]; ok {
		if met.Batch.TotalBatches > 0 && met.Batch.AvgBatchTime > 5*time.Second {
			rec.BatchSize = maxInt(recMinBatchSize, rec.BatchSize*7/10)
			rec.Notes = append(rec.Notes, "reduce batch size due to slow batch processing")
		}
		if met.MemoryDelta > 50*1024*1024 {
			rec.BatchSize = maxInt(recMinBatchSize, rec.BatchSize/2)
			rec.Notes = append(rec.Notes, "reduce batch size due to high memory growth")
		}
		if met.Network.ErrorRate > 0.1 {
			rec.ConcurrentBatches = maxInt(1, rec.ConcurrentBatches/2)
			rec.Notes = append(rec.Notes, "reduce concurrency due to high backend error rate")
		}
	}

	if len(m.snapshots) > 0 {
		latest := m.snapshots[len(m.snapshots)-1]
		if latest.HeapTotal > 0 && float64(latest.HeapUsed)/float64(latest.HeapTotal) > 0.8 {
			rec.Notes = append(rec.Notes, "heap usage is high; stream results instead of accumulating them")
		}
	}

	return rec
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
