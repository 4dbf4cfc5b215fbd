package detect

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fecaudit/fecaudit/internal/model"
)

// ruleEngine runs the deterministic check battery. Every check is stateless
// and independent; checks never short-circuit each other. One engine is built
// per detection pass so all findings share a detection timestamp.
type ruleEngine struct {
	detectedAt time.Time
	rules      *model.RuleSet
}

func newRuleEngine(rules *model.RuleSet, detectedAt time.Time) *ruleEngine {
	return &ruleEngine{rules: rules, detectedAt: detectedAt}
}

func (r *ruleEngine) newAnomaly(t model.AnomalyType, desc string, confidence float64, lines []int, evidence map[string]any) model.Anomaly {
	return model.Anomaly{
		ID:          uuid.New().String(),
		Type:        t,
		Description: desc,
		Confidence:  confidence,
		Lines:       lines,
		Evidence:    evidence,
		DetectedAt:  r.detectedAt,
	}
}

// checkGlobalBalance verifies that total debits equal total credits across
// the whole batch. A zero total on either side is a distinct, more severe
// finding than a mere imbalance ratio.
func (r *ruleEngine) checkGlobalBalance(entries []model.LedgerEntry) []model.Anomaly {
	var totalDebit, totalCredit float64
	for i := range entries {
		totalDebit += entries[i].Debit
		totalCredit += entries[i].Credit
	}
	if totalDebit == 0 && totalCredit == 0 {
		return nil
	}

	evidence := map[string]any{
		"scope":        "global",
		"total_debit":  totalDebit,
		"total_credit": totalCredit,
	}

	if totalDebit == 0 || totalCredit == 0 {
		evidence["difference"] = math.Abs(totalDebit - totalCredit)
		return []model.Anomaly{r.newAnomaly(
			model.TypeBalanceMismatch,
			"One side of the ledger has no postings at all",
			0.97,
			nil,
			evidence,
		)}
	}

	diff := math.Abs(totalDebit - totalCredit)
	ratio := diff / math.Max(totalDebit, totalCredit)
	if ratio <= r.rules.BalanceThreshold {
		return nil
	}

	evidence["difference"] = diff
	evidence["ratio"] = ratio
	return []model.Anomaly{r.newAnomaly(
		model.TypeBalanceMismatch,
		fmt.Sprintf("Ledger debits and credits differ by %.2f (%.1f%%)", diff, ratio*100),
		math.Min(0.95, 0.5+ratio),
		nil,
		evidence,
	)}
}

// checkVoucherBalance verifies each compound entry (grouped by entry number)
// balances to zero on its own.
func (r *ruleEngine) checkVoucherBalance(entries []model.LedgerEntry) []model.Anomaly {
	type voucher struct {
		lines  []int
		debit  float64
		credit float64
	}
	vouchers := make(map[string]*voucher)
	var order []string
	for i := range entries {
		num := entries[i].EntryNum
		if num == "" {
			continue
		}
		v, ok := vouchers[num]
		if !ok {
			v = &voucher{}
			vouchers[num] = v
			order = append(order, num)
		}
		v.lines = append(v.lines, entries[i].LineIndex)
		v.debit += entries[i].Debit
		v.credit += entries[i].Credit
	}

	var anomalies []model.Anomaly
	for _, num := range order {
		v := vouchers[num]
		diff := math.Abs(v.debit - v.credit)
		maxTotal := math.Max(v.debit, v.credit)
		if maxTotal == 0 {
			continue
		}

		evidence := map[string]any{
			"scope":         "voucher",
			"ecr_num":       num,
			"total_debit":   v.debit,
			"total_credit":  v.credit,
			"difference":    diff,
			"entries_count": len(v.lines),
		}

		if v.debit == 0 || v.credit == 0 {
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeBalanceMismatch,
				fmt.Sprintf("Entry %s posts only one side of the ledger", num),
				0.95,
				v.lines,
				evidence,
			))
			continue
		}

		if diff/maxTotal > r.rules.VoucherBalanceThreshold {
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeBalanceMismatch,
				fmt.Sprintf("Entry %s is unbalanced by %.2f", num, diff),
				math.Min(0.95, 0.5+diff/100),
				v.lines,
				evidence,
			))
		}
	}
	return anomalies
}

// checkRoundAmount flags material amounts that are exactly or almost round.
func (r *ruleEngine) checkRoundAmount(entry *model.LedgerEntry) *model.Anomaly {
	amount := entry.Amount()
	if amount < r.rules.MaterialityFloor {
		return nil
	}

	exactRound := false
	for _, round := range r.rules.RoundAmounts {
		if math.Abs(amount-round) < 0.01 {
			exactRound = true
			break
		}
	}

	decimal := amount - math.Floor(amount)
	almostRound := decimal < r.rules.RoundAmountTolerance || decimal > 1-r.rules.RoundAmountTolerance

	if !exactRound && !almostRound {
		return nil
	}

	confidence := 0.6
	if exactRound {
		confidence = 0.8
	}
	a := r.newAnomaly(
		model.TypeSuspiciousPattern,
		fmt.Sprintf("Suspiciously round amount: %.2f", amount),
		confidence,
		[]int{entry.LineIndex},
		map[string]any{
			"amount":         amount,
			"is_exact_round": exactRound,
			"journal_code":   entry.JournalCode,
			"ecriture_lib":   entry.Description,
		},
	)
	return &a
}

// checkOffHours flags weekend bookings and, separately, bookings outside the
// configured working-hour window. Hour zero is treated as a truncated-date
// placeholder and never flagged.
func (r *ruleEngine) checkOffHours(entry *model.LedgerEntry) []model.Anomaly {
	if !entry.HasEntryDate() {
		return nil
	}

	var anomalies []model.Anomaly
	date := entry.EntryDate

	if !r.rules.WorkingWeekdays[date.Weekday()] {
		anomalies = append(anomalies, r.newAnomaly(
			model.TypeDateInconsistency,
			fmt.Sprintf("Transaction booked on a %s", date.Weekday()),
			0.9,
			[]int{entry.LineIndex},
			map[string]any{
				"date":         date.Format(time.RFC3339),
				"weekday":      date.Weekday().String(),
				"journal_code": entry.JournalCode,
				"ecriture_lib": entry.Description,
			},
		))
	}

	hour := date.Hour()
	if hour != 0 && (hour < r.rules.WorkingHourStart || hour > r.rules.WorkingHourEnd) {
		anomalies = append(anomalies, r.newAnomaly(
			model.TypeDateInconsistency,
			fmt.Sprintf("Transaction booked outside working hours (%dh)", hour),
			0.7,
			[]int{entry.LineIndex},
			map[string]any{
				"date":         date.Format(time.RFC3339),
				"hour":         hour,
				"journal_code": entry.JournalCode,
				"ecriture_lib": entry.Description,
			},
		))
	}

	return anomalies
}

// requiredFields are the per-line fields a FEC export must always carry.
var requiredFields = []struct {
	name  string
	value func(*model.LedgerEntry) string
}{
	{"ecr_date", func(e *model.LedgerEntry) string { return e.RawEntryDate }},
	{"compte_num", func(e *model.LedgerEntry) string { return e.AccountNum }},
	{"ecriture_lib", func(e *model.LedgerEntry) string { return e.Description }},
}

// checkMissingData flags entries whose required fields are empty.
func (r *ruleEngine) checkMissingData(entry *model.LedgerEntry) *model.Anomaly {
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(field.value(entry)) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	a := r.newAnomaly(
		model.TypeMissingData,
		fmt.Sprintf("Missing data in %d required field(s): %s", len(missing), strings.Join(missing, ", ")),
		0.95,
		[]int{entry.LineIndex},
		map[string]any{
			"missing_fields": missing,
			"journal_code":   entry.JournalCode,
			"compte_num":     entry.AccountNum,
		},
	)
	return &a
}

// specialCharPattern matches characters that have no business appearing in a
// ledger line description.
var specialCharPattern = regexp.MustCompile(`[#@$%^*<>{}\\]`)

// checkSuspiciousText matches the description against the configured pattern
// list and the special-character class.
func (r *ruleEngine) checkSuspiciousText(entry *model.LedgerEntry) []model.Anomaly {
	if entry.Description == "" {
		return nil
	}

	var anomalies []model.Anomaly
	upper := strings.ToUpper(entry.Description)
	for _, p := range r.rules.SuspiciousPatterns {
		if strings.Contains(upper, strings.ToUpper(p.Pattern)) {
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeSuspiciousPattern,
				fmt.Sprintf("Description matches suspicious pattern %q", p.Pattern),
				p.Confidence,
				[]int{entry.LineIndex},
				map[string]any{
					"pattern":      p.Pattern,
					"ecriture_lib": entry.Description,
				},
			))
		}
	}

	if match := specialCharPattern.FindString(entry.Description); match != "" {
		anomalies = append(anomalies, r.newAnomaly(
			model.TypeSuspiciousPattern,
			"Description contains unusual special characters",
			r.rules.SpecialCharConfidence,
			[]int{entry.LineIndex},
			map[string]any{
				"character":    match,
				"ecriture_lib": entry.Description,
			},
		))
	}

	return anomalies
}

// run executes the full deterministic battery over the batch.
func (r *ruleEngine) run(entries []model.LedgerEntry) []model.Anomaly {
	var anomalies []model.Anomaly

	for i := range entries {
		entry := &entries[i]
		if a := r.checkRoundAmount(entry); a != nil {
			anomalies = append(anomalies, *a)
		}
		anomalies = append(anomalies, r.checkOffHours(entry)...)
		if a := r.checkMissingData(entry); a != nil {
			anomalies = append(anomalies, *a)
		}
		anomalies = append(anomalies, r.checkSuspiciousText(entry)...)
	}

	anomalies = append(anomalies, r.checkGlobalBalance(entries)...)
	anomalies = append(anomalies, r.checkVoucherBalance(entries)...)
	anomalies = append(anomalies, r.checkDuplicates(entries)...)
	anomalies = append(anomalies, r.checkAmountOutliers(entries)...)
	anomalies = append(anomalies, r.checkDateConsistency(entries)...)

	return anomalies
}

// sortByAbsDesc sorts index/value pairs by descending absolute value,
// breaking ties by index so results are stable.
func sortByAbsDesc(idx []int, val []float64) {
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(val[idx[a]]) > math.Abs(val[idx[b]])
	})
}
