package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RunReport summarises one workload replay against one state handle.
type RunReport struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	State       string    `json:"state"`
	Policy      string    `json:"policy"`
	Store       string    `json:"store"`
	Capacity    int       `json:"capacity"`
	Ops         int       `json:"ops"`
	Hits        uint64    `json:"hits"`
	Probes      uint64    `json:"probes"`
	HitRate     float64   `json:"hit_rate"`
	Evictions   int64     `json:"evictions"`
	StoreReads  int64     `json:"store_reads"`
	DurationMs  int64     `json:"duration_ms"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Flushed     int       `json:"flushed"`
}

// Reporter writes run reports as a human-readable line to the console and
// as JSON lines to an optional file.
type Reporter struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
}

// NewReporter creates a reporter that prints to console (nil disables it).
func NewReporter(console io.Writer) *Reporter {
	return &Reporter{console: console}
}

// SetOutput sets the JSON lines output file.
func (r *Reporter) SetOutput(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		r.file.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	return nil
}

// Log writes a run report.
func (r *Reporter) Log(entry *RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if r.console != nil {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		fmt.Fprintf(r.console, "[run] %s %s %s/%s cap=%d ops=%d hit_rate=%.4f evictions=%d %dms\n",
			status, entry.RunID, entry.State, entry.Policy, entry.Capacity, entry.Ops,
			entry.HitRate, entry.Evictions, entry.DurationMs)
		if entry.Error != "" {
			fmt.Fprintf(r.console, "[run]   error: %s\n", entry.Error)
		}
	}

	if r.file != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if _, err := r.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the report file.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
}
