// Package detect is the anomaly detection core. A Detector decides once, at
// construction, whether a trained model is available; each Detect call then
// runs either the machine-learned scorer or the deterministic rule battery
// and consolidates the findings the same way.
package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fecaudit/fecaudit/internal/common"
	"github.com/fecaudit/fecaudit/internal/ml"
	"github.com/fecaudit/fecaudit/internal/model"
	"github.com/fecaudit/fecaudit/internal/registry"
)

// Scorer scores a batch of entries with a trained model.
type Scorer interface {
	Score(entries []model.LedgerEntry) ([]model.Anomaly, error)
	Version() string
}

// Config assembles a Detector. Only Rules is effectively required; a nil
// Registry (or one with no usable model) yields a rules-only detector.
type Config struct {
	Registry     registry.Registry
	Scorer       Scorer
	Stats        StatsSink
	Rules        *model.RuleSet
	ModelVersion string
}

// Mode is the detection method a Detector settled on at construction.
type Mode string

const (
	ModeML    Mode = "ml"
	ModeRules Mode = "rules"
)

type Detector struct {
	now    func() time.Time
	rules  *model.RuleSet
	scorer Scorer
	stats  StatsSink
	mode   Mode
}

// New builds a Detector. Model resolution happens here and only here: if no
// scorer can be produced, the detector is rules-only for its whole lifetime.
// New never fails; a missing or broken model downgrades the mode, it does not
// block detection.
func New(ctx context.Context, cfg Config) *Detector {
	d := &Detector{
		rules: cfg.Rules,
		stats: cfg.Stats,
		mode:  ModeRules,
		now:   time.Now,
	}
	if d.rules == nil {
		d.rules = model.DefaultRuleSet()
	}

	if cfg.Scorer != nil {
		d.scorer = cfg.Scorer
		d.mode = ModeML
		return d
	}

	if cfg.Registry == nil {
		common.LogInfo("no model registry configured, using rule-based detection", nil)
		return d
	}

	scorer, err := resolveScorer(ctx, cfg.Registry, cfg.ModelVersion)
	if err != nil {
		common.LogError(err, "trained model unavailable, falling back to rule-based detection", common.Fields{
			"requested_version": cfg.ModelVersion,
		})
		return d
	}

	d.scorer = scorer
	d.mode = ModeML
	common.LogInfo("trained model loaded", common.Fields{
		"model_version": scorer.Version(),
	})
	return d
}

func resolveScorer(ctx context.Context, reg registry.Registry, version string) (*ml.Scorer, error) {
	var rec *registry.Record
	var err error
	if version != "" {
		rec, err = reg.Get(ctx, version)
	} else {
		rec, err = reg.Active(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving model version: %w", err)
	}

	bundle, err := ml.LoadBundle(rec.Version, rec.Files)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", rec.Version, err)
	}
	return ml.NewScorer(bundle), nil
}

// Reload builds a fresh Detector from cfg. The receiver is unchanged;
// callers swap handles to pick up a new model or rule set.
func (d *Detector) Reload(ctx context.Context, cfg Config) *Detector {
	return New(ctx, cfg)
}

// Mode reports the method the Detector settled on at construction.
func (d *Detector) Mode() Mode {
	return d.mode
}

// ModelVersion returns the loaded model version, or empty in rules mode.
func (d *Detector) ModelVersion() string {
	if d.scorer == nil {
		return ""
	}
	return d.scorer.Version()
}

// Detect analyzes a batch and returns consolidated anomalies. In ML mode a
// scoring failure downgrades this call, and only this call, to the rule
// battery. Detect itself never fails on bad data; at worst it reports a
// single calculation error anomaly.
func (d *Detector) Detect(ctx context.Context, entries []model.LedgerEntry) ([]model.Anomaly, error) {
	start := d.now()

	if len(entries) == 0 {
		common.LogInfo("no entries to analyze", nil)
		return []model.Anomaly{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	method := d.mode
	var anomalies []model.Anomaly
	switch res := d.scoreML(entries); res.outcome {
	case mlOK:
		anomalies = res.anomalies
	case mlFailed:
		common.LogError(res.err, "model scoring failed, using rule-based detection for this batch", common.Fields{
			"model_version": res.version,
			"num_entries":   len(entries),
		})
		method = ModeRules
		anomalies = d.ruleAnomalies(entries)
	case mlUnavailable:
		anomalies = d.ruleAnomalies(entries)
	}

	anomalies = consolidate(anomalies, d.rules)
	d.recordRun(method, entries, anomalies, d.now().Sub(start))
	return anomalies, nil
}

// ruleAnomalies runs the deterministic battery. A panicking check must not
// take detection down with it, so the battery is wrapped in a recovery that
// degrades to the minimal pass.
func (d *Detector) ruleAnomalies(entries []model.LedgerEntry) (anomalies []model.Anomaly) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError(fmt.Errorf("rule battery panic: %v", r), "rule-based detection failed, running minimal checks", common.Fields{
				"num_entries": len(entries),
			})
			anomalies = d.minimalPass(entries, fmt.Sprintf("%v", r))
		}
	}()
	return newRuleEngine(d.rules, d.now()).run(entries)
}

// minimalPass is the last line of defense: only the two checks that cannot
// plausibly fail, plus an anomaly recording that full detection broke.
func (d *Detector) minimalPass(entries []model.LedgerEntry, cause string) (anomalies []model.Anomaly) {
	defer func() {
		if r := recover(); r != nil {
			anomalies = nil
		}
		anomalies = append(anomalies, model.Anomaly{
			ID:          uuid.New().String(),
			Type:        model.TypeCalculationError,
			Description: "Full anomaly detection failed; results are limited to basic checks",
			Confidence:  1.0,
			DetectedAt:  d.now(),
			Evidence:    map[string]any{"cause": cause},
		})
	}()

	eng := newRuleEngine(d.rules, d.now())
	anomalies = append(anomalies, eng.checkGlobalBalance(entries)...)
	for i := range entries {
		if a := eng.checkMissingData(&entries[i]); a != nil {
			anomalies = append(anomalies, *a)
		}
	}
	return anomalies
}

func (d *Detector) recordRun(method Mode, entries []model.LedgerEntry, anomalies []model.Anomaly, elapsed time.Duration) {
	seconds := elapsed.Seconds()
	stats := RunStats{
		Timestamp:       d.now(),
		Method:          string(method),
		ModelVersion:    d.ModelVersion(),
		NumEntries:      len(entries),
		NumAnomalies:    len(anomalies),
		AnomalyRate:     float64(len(anomalies)) / float64(len(entries)),
		DurationSeconds: seconds,
	}
	if seconds > 0 {
		stats.EntriesPerSecond = float64(len(entries)) / seconds
	}

	common.LogInfo("detection complete", common.Fields{
		"method":        stats.Method,
		"model_version": stats.ModelVersion,
		"num_entries":   stats.NumEntries,
		"num_anomalies": stats.NumAnomalies,
		"duration":      elapsed.String(),
	})

	if d.stats != nil {
		if err := d.stats.Record(stats); err != nil {
			common.LogError(err, "failed to record run statistics", nil)
		}
	}
}
