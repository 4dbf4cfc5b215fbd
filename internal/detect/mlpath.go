package detect

import "github.com/fecaudit/fecaudit/internal/model"

// mlOutcome says how a model scoring attempt ended. Fallback to the rule
// battery is an ordinary branch on this value, never panic-driven.
type mlOutcome int

const (
	// mlOK: the scorer produced results.
	mlOK mlOutcome = iota
	// mlUnavailable: no scorer is loaded (rules-only detector).
	mlUnavailable
	// mlFailed: a loaded scorer errored on this batch.
	mlFailed
)

type mlResult struct {
	err       error
	anomalies []model.Anomaly
	version   string
	outcome   mlOutcome
}

// scoreML runs the loaded scorer over the batch, if any.
func (d *Detector) scoreML(entries []model.LedgerEntry) mlResult {
	if d.scorer == nil {
		return mlResult{outcome: mlUnavailable}
	}

	anomalies, err := d.scorer.Score(entries)
	if err != nil {
		return mlResult{outcome: mlFailed, err: err, version: d.scorer.Version()}
	}
	return mlResult{outcome: mlOK, anomalies: anomalies, version: d.scorer.Version()}
}
