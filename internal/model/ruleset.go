package model

import (
	"fmt"
	"time"
)

// TextPattern pairs a case-insensitive description substring with the
// confidence assigned when it matches.
type TextPattern struct {
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
}

// RuleSet holds every named threshold used by the rule-based detection path.
// A RuleSet is loaded once per detector instance; reconfiguring means building
// a new detector with a new RuleSet.
type RuleSet struct {
	WorkingWeekdays map[time.Weekday]bool

	SuspiciousPatterns []TextPattern
	RoundAmounts       []float64

	BalanceThreshold        float64
	VoucherBalanceThreshold float64
	DuplicateSimilarity     float64
	AmountOutlierZScore     float64
	RoundAmountTolerance    float64
	MaterialityFloor        float64
	SpecialCharConfidence   float64
	WeekendMinorityRatio    float64
	MinConfidence           float64

	DuplicateWindow      int
	MaxOutliersPerColumn int
	MaxSequenceGap       int
	MaxDateGapDays       int
	MaxAnomalies         int
	WorkingHourStart     int
	WorkingHourEnd       int
}

// DefaultRuleSet returns the built-in thresholds.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		BalanceThreshold:        0.01,
		VoucherBalanceThreshold: 0.01,
		DuplicateSimilarity:     0.9,
		DuplicateWindow:         100,
		AmountOutlierZScore:     3.0,
		MaxOutliersPerColumn:    10,
		RoundAmountTolerance:    0.01,
		RoundAmounts:            []float64{100, 500, 1000, 5000, 10000, 20000, 50000, 100000},
		MaterialityFloor:        1000,
		WorkingHourStart:        8,
		WorkingHourEnd:          19,
		WorkingWeekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		SuspiciousPatterns: []TextPattern{
			{Pattern: "ADJUST", Confidence: 0.6},
			{Pattern: "CORRECTION", Confidence: 0.6},
			{Pattern: "MANUEL", Confidence: 0.5},
			{Pattern: "MANUAL", Confidence: 0.5},
			{Pattern: "REGULARISATION", Confidence: 0.5},
		},
		SpecialCharConfidence: 0.4,
		WeekendMinorityRatio:  0.05,
		MaxSequenceGap:        2,
		MaxDateGapDays:        60,
		MinConfidence:         0.3,
		MaxAnomalies:          100,
	}
}

// ApplyOverrides mutates the rule set with named threshold values, typically
// sourced from configuration. Unknown names are rejected so typos surface
// instead of silently keeping defaults.
func (r *RuleSet) ApplyOverrides(overrides map[string]any) error {
	for name, value := range overrides {
		switch name {
		case "balance_threshold":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.BalanceThreshold = f
		case "voucher_balance_threshold":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.VoucherBalanceThreshold = f
		case "duplicate_similarity_threshold":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.DuplicateSimilarity = f
		case "duplicate_window":
			n, err := asInt(name, value)
			if err != nil {
				return err
			}
			r.DuplicateWindow = n
		case "amount_outlier_zscore":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.AmountOutlierZScore = f
		case "round_amount_tolerance":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.RoundAmountTolerance = f
		case "materiality_floor":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.MaterialityFloor = f
		case "working_hour_start":
			n, err := asInt(name, value)
			if err != nil {
				return err
			}
			r.WorkingHourStart = n
		case "working_hour_end":
			n, err := asInt(name, value)
			if err != nil {
				return err
			}
			r.WorkingHourEnd = n
		case "min_confidence":
			f, err := asFloat(name, value)
			if err != nil {
				return err
			}
			r.MinConfidence = f
		case "max_anomalies":
			n, err := asInt(name, value)
			if err != nil {
				return err
			}
			r.MaxAnomalies = n
		default:
			return fmt.Errorf("unknown detection threshold %q", name)
		}
	}
	return nil
}

func asFloat(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("threshold %q: expected number, got %T", name, value)
}

func asInt(name string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("threshold %q: expected integer, got %T", name, value)
}
