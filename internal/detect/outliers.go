package detect

import (
	"fmt"
	"math"

	"github.com/fecaudit/fecaudit/internal/model"
)

// amountColumns are the numeric columns subject to the z-score scan.
var amountColumns = []struct {
	name  string
	value func(*model.LedgerEntry) float64
}{
	{"debit_montant", func(e *model.LedgerEntry) float64 { return e.Debit }},
	{"credit_montant", func(e *model.LedgerEntry) float64 { return e.Credit }},
}

// checkAmountOutliers flags amounts whose z-score exceeds the configured
// threshold, per column. Columns with zero variance carry no signal and are
// skipped outright. Findings are capped per column, largest deviations first.
func (r *ruleEngine) checkAmountOutliers(entries []model.LedgerEntry) []model.Anomaly {
	if len(entries) < 2 {
		return nil
	}

	var anomalies []model.Anomaly
	for _, col := range amountColumns {
		values := make([]float64, len(entries))
		var sum float64
		for i := range entries {
			values[i] = col.value(&entries[i])
			sum += values[i]
		}
		mean := sum / float64(len(values))

		var variance float64
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(values)))
		if std == 0 {
			continue
		}

		zscores := make([]float64, len(values))
		var candidates []int
		for i, v := range values {
			zscores[i] = (v - mean) / std
			if math.Abs(zscores[i]) > r.rules.AmountOutlierZScore {
				candidates = append(candidates, i)
			}
		}

		sortByAbsDesc(candidates, zscores)
		if len(candidates) > r.rules.MaxOutliersPerColumn {
			candidates = candidates[:r.rules.MaxOutliersPerColumn]
		}

		for _, i := range candidates {
			entry := &entries[i]
			z := zscores[i]
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeUnusualAccountActivity,
				fmt.Sprintf("Amount %.2f in %s deviates %.1f standard deviations from the mean", values[i], col.name, math.Abs(z)),
				math.Min(0.95, math.Abs(z)/(2*r.rules.AmountOutlierZScore)),
				[]int{entry.LineIndex},
				map[string]any{
					"column":       col.name,
					"value":        values[i],
					"z_score":      z,
					"mean":         mean,
					"std":          std,
					"compte_num":   entry.AccountNum,
					"journal_code": entry.JournalCode,
				},
			))
		}
	}
	return anomalies
}
