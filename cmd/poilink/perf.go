// Perf command: performance report of the most recent bulk operation.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sietch-tools/poilink/internal/linking"
	"github.com/sietch-tools/poilink/internal/monitor"
)

// perfKey is the kvstore key the last operation's performance report is
// persisted under.
const perfKey = "poi-linking-perf"

// perfReport is the persisted performance record of one bulk operation, so
// `poilink perf` can report on it from a later invocation.
type perfReport struct {
	OperationID     string                  `json:"operation_id"`
	CompletedAt     time.Time               `json:"completed_at"`
	Metrics         *monitor.Metrics        `json:"metrics,omitempty"`
	Warnings        []monitor.Warning       `json:"warnings,omitempty"`
	Recommendations monitor.Recommendations `json:"recommendations"`
}

// savePerfReport persists the monitor's view of the finished operation.
// Failures are ignored; perf reporting never fails a link run.
func savePerfReport(eng *engine, result *linking.Result) {
	report := perfReport{
		OperationID:     result.OperationID,
		CompletedAt:     time.Now(),
		Metrics:         eng.mon.Metrics(result.OperationID),
		Warnings:        eng.mon.Warnings(),
		Recommendations: eng.mon.Recommendations(result.OperationID),
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = eng.kv.Set(perfKey, data)
}

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Show the performance report of the last link operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			fmt.Fprintln(os.Stderr, "perf:", err)
			os.Exit(exitSysError)
		}
		defer eng.close()

		data, ok, err := eng.kv.Get(perfKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "perf:", err)
			os.Exit(exitSysError)
		}
		if !ok {
			fmt.Println("no operation recorded yet")
			return nil
		}

		var report perfReport
		if err := json.Unmarshal(data, &report); err != nil {
			fmt.Fprintln(os.Stderr, "perf: corrupt report:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			printJSON(report)
			return nil
		}

		fmt.Println("operation:", report.OperationID)
		fmt.Println("completed:", report.CompletedAt.Format("2006-01-02 15:04:05"))
		if m := report.Metrics; m != nil {
			fmt.Println("duration: ", m.Duration.Round(time.Millisecond))
			fmt.Printf("batches:   %d (avg %s, min %s, max %s)\n",
				m.Batch.TotalBatches,
				m.Batch.AvgBatchTime.Round(time.Millisecond),
				m.Batch.MinBatchTime.Round(time.Millisecond),
				m.Batch.MaxBatchTime.Round(time.Millisecond))
			fmt.Printf("throughput: %.1f links/s\n", m.Batch.Throughput)
			fmt.Printf("network:   %d requests, %.0f%% errors, avg %s\n",
				m.Network.TotalRequests, m.Network.ErrorRate*100,
				m.Network.AvgResponseTime.Round(time.Millisecond))
			fmt.Printf("memory:    %+d bytes\n", m.MemoryDelta)
		}
		for _, w := range report.Warnings {
			fmt.Printf("warning [%s/%s]: %s\n", w.Type, w.Severity, w.Message)
			if w.SuggestedAction != "" {
				fmt.Println("  ", w.SuggestedAction)
			}
		}
		rec := report.Recommendations
		fmt.Printf("recommended batch size: %d, concurrency: %d\n", rec.BatchSize, rec.ConcurrentBatches)
		for _, note := range rec.Notes {
			fmt.Println("  note:", note)
		}
		return nil
	},
}
