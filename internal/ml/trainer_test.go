package ml

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

// trainingEntries builds a plausible ledger: weekday business-hours entries
// with varied amounts and accounts.
func trainingEntries(n int, seed int64) []model.LedgerEntry {
	rng := rand.New(rand.NewSource(seed))
	accounts := []string{"601000", "401000", "411000", "706000", "512000"}
	base := time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC)

	entries := make([]model.LedgerEntry, n)
	for i := range entries {
		e := model.LedgerEntry{
			LineIndex:   i,
			JournalCode: "AC",
			AccountNum:  accounts[rng.Intn(len(accounts))],
			Description: "Facture fournisseur",
			EntryDate:   base.AddDate(0, 0, rng.Intn(250)).Add(time.Duration(rng.Intn(9)) * time.Hour),
		}
		amount := 50 + rng.Float64()*4000
		if rng.Intn(2) == 0 {
			e.Debit = amount
		} else {
			e.Credit = amount
		}
		entries[i] = e
	}
	return entries
}

func TestTrainerProducesAllSubModels(t *testing.T) {
	trainer := NewTrainer()
	require.NoError(t, trainer.Train(trainingEntries(500, 3)))

	for _, group := range Groups {
		assert.NotNil(t, trainer.Models[group], group)
		assert.NotNil(t, trainer.Scalers[group], group)
	}
}

func TestTrainerRejectsEmptyInput(t *testing.T) {
	trainer := NewTrainer()
	assert.Error(t, trainer.Train(nil))
}

func TestTrainerEvaluate(t *testing.T) {
	trainer := NewTrainer()
	require.NoError(t, trainer.Train(trainingEntries(500, 3)))

	metrics, err := trainer.Evaluate(trainingEntries(100, 4))
	require.NoError(t, err)

	for _, group := range Groups {
		rate, ok := metrics[group+"_anomaly_rate"]
		require.True(t, ok, group)
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 1.0)
	}
}

func TestBundleSaveLoadRoundTrip(t *testing.T) {
	trainer := NewTrainer()
	entries := trainingEntries(400, 9)
	require.NoError(t, trainer.Train(entries))

	bundle, err := trainer.Bundle("v-test")
	require.NoError(t, err)

	files, err := bundle.Save(t.TempDir())
	require.NoError(t, err)
	for _, group := range Groups {
		assert.Contains(t, files, ModelFileKey(group))
		assert.Contains(t, files, ScalerFileKey(group))
	}

	loaded, err := LoadBundle("v-test", files)
	require.NoError(t, err)
	assert.Equal(t, "v-test", loaded.Version)

	// The reloaded bundle scores identically to the in-memory one.
	probe := ExtractFeatures(trainingEntries(50, 10))
	for _, group := range Groups {
		orig, err := bundle.Scalers[group].Transform(probe[group])
		require.NoError(t, err)
		rt, err := loaded.Scalers[group].Transform(probe[group])
		require.NoError(t, err)
		require.Equal(t, orig, rt)

		origScores, err := bundle.Models[group].ScoreSamples(orig)
		require.NoError(t, err)
		rtScores, err := loaded.Models[group].ScoreSamples(rt)
		require.NoError(t, err)
		assert.Equal(t, origScores, rtScores)
	}
}

func TestLoadBundleMissingArtifacts(t *testing.T) {
	_, err := LoadBundle("v-missing", map[string]string{})
	assert.Error(t, err)
}

func TestScorerFlagsWithLoadedModels(t *testing.T) {
	trainer := NewTrainer()
	require.NoError(t, trainer.Train(trainingEntries(600, 5)))
	bundle, err := trainer.Bundle("v1")
	require.NoError(t, err)

	scorer := NewScorer(bundle)
	assert.Equal(t, "v1", scorer.Version())

	// Score a batch containing one wildly atypical entry.
	batch := trainingEntries(100, 6)
	batch[99].Debit = 5_000_000
	batch[99].EntryDate = time.Date(2023, 6, 18, 3, 0, 0, 0, time.UTC) // Sunday night

	anomalies, err := scorer.Score(batch)
	require.NoError(t, err)

	var flagged bool
	for _, a := range anomalies {
		require.NoError(t, a.Validate(len(batch)))
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, 1.0)
		if len(a.Lines) == 1 && a.Lines[0] == 99 {
			flagged = true
		}
	}
	assert.True(t, flagged, "the atypical entry must be flagged by at least one sub-model")
}
