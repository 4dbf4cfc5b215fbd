package detect

import (
	"sort"

	"github.com/fecaudit/fecaudit/internal/model"
)

// consolidate filters out low-confidence findings, orders the rest by
// descending confidence and caps the result. Sorting is stable so findings
// with equal confidence keep their detection order.
func consolidate(anomalies []model.Anomaly, rules *model.RuleSet) []model.Anomaly {
	kept := make([]model.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.Confidence >= rules.MinConfidence {
			kept = append(kept, a)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	if len(kept) > rules.MaxAnomalies {
		kept = kept[:rules.MaxAnomalies]
	}
	return kept
}
