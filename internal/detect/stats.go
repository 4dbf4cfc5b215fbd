package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunStats summarizes one detection call for offline performance review.
type RunStats struct {
	Timestamp        time.Time `json:"timestamp"`
	Method           string    `json:"detection_method"`
	ModelVersion     string    `json:"model_version,omitempty"`
	NumEntries       int       `json:"num_entries"`
	NumAnomalies     int       `json:"num_anomalies"`
	AnomalyRate      float64   `json:"anomaly_rate"`
	DurationSeconds  float64   `json:"execution_time_seconds"`
	EntriesPerSecond float64   `json:"entries_per_second"`
}

// StatsSink receives per-run statistics. Implementations must be safe for
// concurrent use.
type StatsSink interface {
	Record(stats RunStats) error
}

// JSONLStatsSink appends one JSON object per run to a file.
type JSONLStatsSink struct {
	mu   sync.Mutex
	path string
}

func NewJSONLStatsSink(path string) *JSONLStatsSink {
	return &JSONLStatsSink{path: path}
}

func (s *JSONLStatsSink) Record(stats RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding run stats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening stats file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing run stats: %w", err)
	}
	return nil
}
