package detect

import (
	"fmt"
	"math"
	"time"

	"github.com/fecaudit/fecaudit/internal/model"
)

// dupSignature is the comparable projection of a ledger entry used by the
// duplicate scan. Building signatures once up front keeps the windowed
// pairwise loop cheap.
type dupSignature struct {
	date       string
	account    string
	journal    string
	descPrefix string
	line       int
	amount     float64
}

func buildSignature(entry *model.LedgerEntry) dupSignature {
	date := entry.RawEntryDate
	if entry.HasEntryDate() {
		date = entry.EntryDate.Format("20060102")
	}
	if len(date) > 8 {
		date = date[:8]
	}

	prefix := entry.Description
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}

	return dupSignature{
		amount:     entry.Amount(),
		date:       date,
		account:    entry.AccountNum,
		journal:    entry.JournalCode,
		descPrefix: prefix,
		line:       entry.LineIndex,
	}
}

// similarity scores two signatures on a weighted sum of field matches.
// Amount dominates; the weights sum to 1.0 so a full match scores exactly 1.
func similarity(a, b dupSignature) float64 {
	score := 0.0
	if math.Abs(a.amount-b.amount) < 0.01 {
		score += 0.5
	}
	if a.date != "" && a.date == b.date {
		score += 0.2
	}
	if a.account != "" && a.account == b.account {
		score += 0.15
	}
	if a.journal != "" && a.journal == b.journal {
		score += 0.10
	}
	if a.descPrefix != "" && a.descPrefix == b.descPrefix {
		score += 0.05
	}
	return score
}

// checkDuplicates scans for near-identical entry pairs inside a sliding
// window. The window bounds the pairwise comparison cost on large exports;
// FEC files are ordered, so true duplicates sit close together.
func (r *ruleEngine) checkDuplicates(entries []model.LedgerEntry) []model.Anomaly {
	if len(entries) < 2 {
		return nil
	}

	sigs := make([]dupSignature, len(entries))
	for i := range entries {
		sigs[i] = buildSignature(&entries[i])
	}

	window := r.rules.DuplicateWindow
	var anomalies []model.Anomaly
	for i := 0; i < len(sigs); i++ {
		end := i + window
		if end > len(sigs) {
			end = len(sigs)
		}
		for j := i + 1; j < end; j++ {
			score := similarity(sigs[i], sigs[j])
			if score < r.rules.DuplicateSimilarity {
				continue
			}
			anomalies = append(anomalies, r.newAnomaly(
				model.TypeDuplicateEntry,
				fmt.Sprintf("Possible duplicate: lines %d and %d match at %.0f%%", sigs[i].line+1, sigs[j].line+1, score*100),
				score,
				[]int{sigs[i].line, sigs[j].line},
				map[string]any{
					"similarity": score,
					"entry_1":    dupEvidence(&entries[i]),
					"entry_2":    dupEvidence(&entries[j]),
				},
			))
		}
	}
	return anomalies
}

func dupEvidence(entry *model.LedgerEntry) map[string]any {
	date := entry.RawEntryDate
	if entry.HasEntryDate() {
		date = entry.EntryDate.Format(time.RFC3339)
	}
	return map[string]any{
		"line":         entry.LineIndex,
		"amount":       entry.Amount(),
		"date":         date,
		"compte_num":   entry.AccountNum,
		"journal_code": entry.JournalCode,
		"ecriture_lib": entry.Description,
	}
}
