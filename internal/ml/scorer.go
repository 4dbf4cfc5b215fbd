package ml

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fecaudit/fecaudit/internal/model"
)

// groupAnomalyTypes maps each sub-model to the anomaly type it reports.
var groupAnomalyTypes = map[string]model.AnomalyType{
	GroupAmount:       model.TypeSuspiciousPattern,
	GroupDatePatterns: model.TypeDateInconsistency,
	GroupBalance:      model.TypeBalanceMismatch,
}

var groupDescriptions = map[string]string{
	GroupAmount:       "Suspicious amount pattern flagged by model",
	GroupDatePatterns: "Unusual booking-time pattern flagged by model",
	GroupBalance:      "Unusual balance profile flagged by model",
}

// Scorer runs a loaded bundle over a batch of entries. It is strictly
// best-effort: any internal failure, including panics from malformed model
// artifacts, is returned as an error for the caller to fall back on.
type Scorer struct {
	bundle *Bundle
}

// NewScorer wraps a loaded bundle for detection-time scoring.
func NewScorer(bundle *Bundle) *Scorer {
	return &Scorer{bundle: bundle}
}

// Version reports the model version backing this scorer.
func (s *Scorer) Version() string {
	return s.bundle.Version
}

// Score extracts features, standardizes them, and scores each entry with
// every sub-model. Each sample a sub-model marks anomalous becomes one
// anomaly typed after the sub-model.
func (s *Scorer) Score(entries []model.LedgerEntry) (anomalies []model.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			anomalies = nil
			err = fmt.Errorf("model scoring panicked: %v", r)
		}
	}()

	features := ExtractFeatures(entries)
	now := time.Now()

	for _, group := range Groups {
		scaled, terr := s.bundle.Scalers[group].Transform(features[group])
		if terr != nil {
			return nil, fmt.Errorf("failed to standardize %s features: %w", group, terr)
		}
		preds, perr := s.bundle.Models[group].Predict(scaled)
		if perr != nil {
			return nil, fmt.Errorf("failed to score %s model: %w", group, perr)
		}
		scores, serr := s.bundle.Models[group].ScoreSamples(scaled)
		if serr != nil {
			return nil, fmt.Errorf("failed to score %s model: %w", group, serr)
		}

		for i, pred := range preds {
			if pred != -1 {
				continue
			}
			entry := &entries[i]
			anomalies = append(anomalies, model.Anomaly{
				ID:          uuid.New().String(),
				Type:        groupAnomalyTypes[group],
				Description: groupDescriptions[group],
				Confidence:  scoreConfidence(scores[i]),
				Lines:       []int{entry.LineIndex},
				Evidence: map[string]any{
					"model":         group,
					"model_version": s.bundle.Version,
					"score":         scores[i],
					"entry_preview": map[string]string{
						"journal_code": entry.JournalCode,
						"compte_num":   entry.AccountNum,
						"ecriture_lib": entry.Description,
					},
				},
				DetectedAt: now,
			})
		}
	}

	return anomalies, nil
}

// scoreConfidence maps a (negative) novelty score monotonically into [0,1]:
// the lower the score, the stronger the anomaly.
func scoreConfidence(score float64) float64 {
	c := 1 - math.Exp(score)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
