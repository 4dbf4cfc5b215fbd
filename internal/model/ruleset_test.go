package model

import (
	"testing"
	"time"
)

func TestDefaultRuleSet(t *testing.T) {
	r := DefaultRuleSet()

	if r.BalanceThreshold != 0.01 {
		t.Errorf("BalanceThreshold = %v, want 0.01", r.BalanceThreshold)
	}
	if r.DuplicateSimilarity != 0.9 {
		t.Errorf("DuplicateSimilarity = %v, want 0.9", r.DuplicateSimilarity)
	}
	if r.DuplicateWindow != 100 {
		t.Errorf("DuplicateWindow = %v, want 100", r.DuplicateWindow)
	}
	if r.MaxAnomalies != 100 {
		t.Errorf("MaxAnomalies = %v, want 100", r.MaxAnomalies)
	}
	if r.WorkingWeekdays[time.Saturday] || r.WorkingWeekdays[time.Sunday] {
		t.Error("weekend days must not be working days by default")
	}
	if len(r.SuspiciousPatterns) == 0 {
		t.Error("default rule set must carry suspicious text patterns")
	}
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		overrides map[string]any
		check     func(*RuleSet) bool
		name      string
		wantErr   bool
	}{
		{
			name:      "float threshold",
			overrides: map[string]any{"balance_threshold": 0.05},
			check:     func(r *RuleSet) bool { return r.BalanceThreshold == 0.05 },
		},
		{
			name:      "integer from float config value",
			overrides: map[string]any{"duplicate_window": 50},
			check:     func(r *RuleSet) bool { return r.DuplicateWindow == 50 },
		},
		{
			name:      "unknown key rejected",
			overrides: map[string]any{"no_such_threshold": 1.0},
			wantErr:   true,
		},
		{
			name:      "wrong type rejected",
			overrides: map[string]any{"balance_threshold": "loose"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRuleSet()
			err := r.ApplyOverrides(tt.overrides)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(r) {
				t.Error("override not applied")
			}
		})
	}
}
