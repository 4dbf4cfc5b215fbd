package detect

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/fecaudit/fecaudit/internal/model"
)

const maxExampleLines = 10

// checkDateConsistency runs the batch-level date checks: unparseable dates,
// weekend minority, entry number sequence gaps, cross-column date coherence
// and future-dated entries.
func (r *ruleEngine) checkDateConsistency(entries []model.LedgerEntry) []model.Anomaly {
	var anomalies []model.Anomaly
	anomalies = append(anomalies, r.checkUnparseableDates(entries)...)
	anomalies = append(anomalies, r.checkWeekendMinority(entries)...)
	anomalies = append(anomalies, r.checkSequenceGaps(entries)...)
	anomalies = append(anomalies, r.checkDateColumnCoherence(entries)...)
	anomalies = append(anomalies, r.checkFutureDates(entries)...)
	return anomalies
}

func (r *ruleEngine) checkUnparseableDates(entries []model.LedgerEntry) []model.Anomaly {
	var lines []int
	var examples []string
	for i := range entries {
		if entries[i].RawEntryDate != "" && !entries[i].HasEntryDate() {
			lines = append(lines, entries[i].LineIndex)
			if len(examples) < maxExampleLines {
				examples = append(examples, entries[i].RawEntryDate)
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return []model.Anomaly{r.newAnomaly(
		model.TypeDateInconsistency,
		fmt.Sprintf("%d entry date(s) could not be parsed", len(lines)),
		0.9,
		capLines(lines),
		map[string]any{
			"count":    len(lines),
			"examples": examples,
		},
	)}
}

// checkWeekendMinority flags weekend bookings only when they are a small
// minority of the batch. A business that routinely books on weekends is not
// anomalous; a handful of weekend lines in an otherwise weekday ledger is.
func (r *ruleEngine) checkWeekendMinority(entries []model.LedgerEntry) []model.Anomaly {
	var weekendLines []int
	for i := range entries {
		if entries[i].HasEntryDate() && !r.rules.WorkingWeekdays[entries[i].EntryDate.Weekday()] {
			weekendLines = append(weekendLines, entries[i].LineIndex)
		}
	}
	if len(weekendLines) == 0 {
		return nil
	}
	if float64(len(weekendLines)) >= r.rules.WeekendMinorityRatio*float64(len(entries)) {
		return nil
	}
	return []model.Anomaly{r.newAnomaly(
		model.TypeDateInconsistency,
		fmt.Sprintf("%d weekend booking(s) in a predominantly weekday ledger", len(weekendLines)),
		0.6,
		capLines(weekendLines),
		map[string]any{
			"weekend_count": len(weekendLines),
			"total_entries": len(entries),
		},
	)}
}

// checkSequenceGaps looks for holes in the numeric part of entry numbers.
// Gaps suggest deleted or withheld vouchers.
func (r *ruleEngine) checkSequenceGaps(entries []model.LedgerEntry) []model.Anomaly {
	seen := make(map[int]bool)
	for i := range entries {
		if n, ok := entryNumValue(entries[i].EntryNum); ok {
			seen[n] = true
		}
	}
	if len(seen) < 2 {
		return nil
	}

	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	type gap struct{ from, to, size int }
	var gaps []gap
	for i := 1; i < len(nums); i++ {
		size := nums[i] - nums[i-1] - 1
		if size > r.rules.MaxSequenceGap {
			gaps = append(gaps, gap{from: nums[i-1], to: nums[i], size: size})
		}
	}
	if len(gaps) == 0 {
		return nil
	}

	sort.SliceStable(gaps, func(a, b int) bool { return gaps[a].size > gaps[b].size })
	if len(gaps) > 5 {
		gaps = gaps[:5]
	}

	var anomalies []model.Anomaly
	for _, g := range gaps {
		anomalies = append(anomalies, r.newAnomaly(
			model.TypeDateInconsistency,
			fmt.Sprintf("Gap of %d missing entry number(s) between %d and %d", g.size, g.from, g.to),
			0.5,
			nil,
			map[string]any{
				"after":        g.from,
				"before":       g.to,
				"missing":      g.size,
				"total_gaps":   len(gaps),
				"unique_nums":  len(nums),
			},
		))
	}
	return anomalies
}

// entryNumValue extracts the trailing digit run of an entry number.
func entryNumValue(num string) (int, bool) {
	end := len(num)
	start := end
	for start > 0 && num[start-1] >= '0' && num[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(num[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// checkDateColumnCoherence compares the three FEC date columns per entry.
// The document date must not come after the booking date; for the remaining
// pairs, dates more than the configured maximum apart are suspect regardless
// of direction.
func (r *ruleEngine) checkDateColumnCoherence(entries []model.LedgerEntry) []model.Anomaly {
	type datePair struct {
		first, second string
		firstDate     func(*model.LedgerEntry) time.Time
		secondDate    func(*model.LedgerEntry) time.Time
		directional   bool
	}
	pairs := []datePair{
		{
			first: "piece_date", second: "ecr_date",
			firstDate:   func(e *model.LedgerEntry) time.Time { return e.PieceDate },
			secondDate:  func(e *model.LedgerEntry) time.Time { return e.EntryDate },
			directional: true,
		},
		{
			first: "ecr_date", second: "valid_date",
			firstDate:  func(e *model.LedgerEntry) time.Time { return e.EntryDate },
			secondDate: func(e *model.LedgerEntry) time.Time { return e.ValidDate },
		},
		{
			first: "piece_date", second: "valid_date",
			firstDate:  func(e *model.LedgerEntry) time.Time { return e.PieceDate },
			secondDate: func(e *model.LedgerEntry) time.Time { return e.ValidDate },
		},
	}

	var anomalies []model.Anomaly
	maxGap := time.Duration(r.rules.MaxDateGapDays) * 24 * time.Hour
	for _, p := range pairs {
		var orderLines, gapLines []int
		for i := range entries {
			first, second := p.firstDate(&entries[i]), p.secondDate(&entries[i])
			if first.IsZero() || second.IsZero() {
				continue
			}
			if p.directional {
				if first.After(second) {
					orderLines = append(orderLines, entries[i].LineIndex)
				}
				continue
			}
			diff := second.Sub(first)
			if diff < 0 {
				diff = -diff
			}
			if diff > maxGap {
				gapLines = append(gapLines, entries[i].LineIndex)
			}
		}

		if len(orderLines) > 0 {
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeDateInconsistency,
				fmt.Sprintf("%d entry(ies) where %s comes after %s", len(orderLines), p.first, p.second),
				0.7,
				capLines(orderLines),
				map[string]any{
					"first_column":  p.first,
					"second_column": p.second,
					"count":         len(orderLines),
				},
			))
		}
		if len(gapLines) > 0 {
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeDateInconsistency,
				fmt.Sprintf("%d entry(ies) where %s and %s are more than %d days apart", len(gapLines), p.first, p.second, r.rules.MaxDateGapDays),
				0.5,
				capLines(gapLines),
				map[string]any{
					"first_column":  p.first,
					"second_column": p.second,
					"max_gap_days":  r.rules.MaxDateGapDays,
					"count":         len(gapLines),
				},
			))
		}
	}
	return anomalies
}

func (r *ruleEngine) checkFutureDates(entries []model.LedgerEntry) []model.Anomaly {
	var lines []int
	for i := range entries {
		if entries[i].HasEntryDate() && entries[i].EntryDate.After(r.detectedAt) {
			lines = append(lines, entries[i].LineIndex)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return []model.Anomaly{r.newAnomaly(
		model.TypeDateInconsistency,
		fmt.Sprintf("%d entry(ies) dated in the future", len(lines)),
		0.9,
		capLines(lines),
		map[string]any{"count": len(lines)},
	)}
}

// capLines bounds the line list attached to a batch-level anomaly so evidence
// stays readable on pathological inputs.
func capLines(lines []int) []int {
	if len(lines) > maxExampleLines {
		return lines[:maxExampleLines]
	}
	return lines
}
