package model

import (
	"fmt"
	"time"
)

// AnomalyType categorizes a detected anomaly.
type AnomalyType string

const (
	// TypeDuplicateEntry indicates two ledger lines that look like the same booking.
	TypeDuplicateEntry AnomalyType = "duplicate_entry"
	// TypeSuspiciousPattern indicates a suspicious amount or description pattern.
	TypeSuspiciousPattern AnomalyType = "suspicious_pattern"
	// TypeMissingData indicates required fields are empty.
	TypeMissingData AnomalyType = "missing_data"
	// TypeDateInconsistency indicates implausible or inconsistent dates.
	TypeDateInconsistency AnomalyType = "date_inconsistency"
	// TypeBalanceMismatch indicates debits and credits that do not balance.
	TypeBalanceMismatch AnomalyType = "balance_mismatch"
	// TypeUnusualAccountActivity indicates statistically unusual account usage.
	TypeUnusualAccountActivity AnomalyType = "unusual_account_activity"
	// TypeCalculationError indicates the detection pass itself failed and only
	// a degraded result could be produced.
	TypeCalculationError AnomalyType = "calculation_error"
	// TypeOther covers anomalies that fit no specific category.
	TypeOther AnomalyType = "other"
)

// Anomaly is a single finding produced by one detection pass. Anomalies are
// immutable after creation and are never merged across passes.
type Anomaly struct {
	DetectedAt  time.Time      `json:"detected_at"`
	Evidence    map[string]any `json:"related_data,omitempty"`
	ID          string         `json:"id"`
	Type        AnomalyType    `json:"type"`
	Description string         `json:"description"`
	Lines       []int          `json:"line_numbers"`
	Confidence  float64        `json:"confidence_score"`
}

// Validate checks the structural invariants of an anomaly against the batch
// it was produced from.
func (a *Anomaly) Validate(entryCount int) error {
	if a.ID == "" {
		return fmt.Errorf("anomaly id is required")
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", a.Confidence)
	}
	for _, idx := range a.Lines {
		if idx < 0 || idx >= entryCount {
			return fmt.Errorf("line index %d outside batch of %d entries", idx, entryCount)
		}
	}
	return nil
}
