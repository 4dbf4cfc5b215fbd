package ml

import (
	"fmt"
	"math"

	"github.com/fecaudit/fecaudit/internal/common"
	"github.com/fecaudit/fecaudit/internal/model"
)

// Trainer fits one novelty model and one scaler per feature group from a
// corpus of (mostly normal) ledger entries. Training is strictly offline; the
// detection path only ever loads the resulting bundle.
type Trainer struct {
	Models  map[string]*IsolationForest
	Scalers map[string]*StandardScaler

	// NumTrees and Contamination configure every fitted sub-model.
	NumTrees      int
	Contamination float64
	Seed          int64
}

// NewTrainer returns a trainer with the pipeline defaults.
func NewTrainer() *Trainer {
	return &Trainer{
		Models:        make(map[string]*IsolationForest),
		Scalers:       make(map[string]*StandardScaler),
		NumTrees:      100,
		Contamination: 0.05,
		Seed:          42,
	}
}

// Train fits the three sub-models and their scalers.
func (t *Trainer) Train(entries []model.LedgerEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("no entries provided for training")
	}

	common.LogInfo("Training anomaly models", common.Fields{"entries": len(entries)})
	features := ExtractFeatures(entries)

	for _, name := range Groups {
		scaler := &StandardScaler{}
		scaled, err := scaler.FitTransform(features[name])
		if err != nil {
			return fmt.Errorf("failed to standardize %s features: %w", name, err)
		}

		forest := NewIsolationForest(t.NumTrees, t.Contamination, t.Seed)
		common.LogInfo("Fitting sub-model", common.Fields{"model": name, "samples": len(scaled)})
		if err := forest.Fit(scaled); err != nil {
			return fmt.Errorf("failed to fit %s model: %w", name, err)
		}

		t.Models[name] = forest
		t.Scalers[name] = scaler
	}

	common.LogInfo("Training complete", common.Fields{"models": len(t.Models)})
	return nil
}

// Evaluate scores a held-out set and returns per-model metrics: the fraction
// flagged anomalous and the mean/std of the novelty scores.
func (t *Trainer) Evaluate(entries []model.LedgerEntry) (map[string]float64, error) {
	if len(t.Models) == 0 {
		return nil, fmt.Errorf("trainer has no fitted models")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries provided for evaluation")
	}

	features := ExtractFeatures(entries)
	metrics := make(map[string]float64)

	for _, name := range Groups {
		scaled, err := t.Scalers[name].Transform(features[name])
		if err != nil {
			return nil, fmt.Errorf("failed to standardize %s features: %w", name, err)
		}
		preds, err := t.Models[name].Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("failed to score %s model: %w", name, err)
		}
		scores, err := t.Models[name].ScoreSamples(scaled)
		if err != nil {
			return nil, fmt.Errorf("failed to score %s model: %w", name, err)
		}

		var flagged int
		for _, p := range preds {
			if p == -1 {
				flagged++
			}
		}

		var sum float64
		for _, s := range scores {
			sum += s
		}
		mean := sum / float64(len(scores))
		var sq float64
		for _, s := range scores {
			sq += (s - mean) * (s - mean)
		}

		metrics[name+"_anomaly_rate"] = float64(flagged) / float64(len(entries))
		metrics[name+"_score_mean"] = mean
		metrics[name+"_score_std"] = math.Sqrt(sq / float64(len(scores)))
	}

	return metrics, nil
}

// Bundle packages the fitted models under a version identifier.
func (t *Trainer) Bundle(version string) (*Bundle, error) {
	if len(t.Models) != len(Groups) {
		return nil, fmt.Errorf("trainer has %d fitted models, want %d", len(t.Models), len(Groups))
	}
	return &Bundle{
		Version: version,
		Models:  t.Models,
		Scalers: t.Scalers,
	}, nil
}
