package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusteredData returns points around the origin plus one far outlier at the
// last index.
func clusteredData(n int) [][]float64 {
	rng := rand.New(rand.NewSource(1))
	x := make([][]float64, 0, n+1)
	for i := 0; i < n; i++ {
		x = append(x, []float64{rng.NormFloat64(), rng.NormFloat64()})
	}
	x = append(x, []float64{40, -35})
	return x
}

func TestIsolationForestSeparatesOutlier(t *testing.T) {
	x := clusteredData(300)

	f := NewIsolationForest(100, 0.05, 42)
	require.NoError(t, f.Fit(x))

	scores, err := f.ScoreSamples(x)
	require.NoError(t, err)
	require.Len(t, scores, len(x))

	// Scores are negative by convention; the outlier scores lowest.
	outlier := scores[len(scores)-1]
	assert.Negative(t, outlier)
	for i := 0; i < len(scores)-1; i++ {
		assert.Negative(t, scores[i])
		assert.Greater(t, scores[i], outlier,
			"inlier %d must score above the outlier", i)
	}

	preds, err := f.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, -1, preds[len(preds)-1], "outlier must be predicted anomalous")
}

func TestIsolationForestContaminationBoundsPredictions(t *testing.T) {
	x := clusteredData(400)

	f := NewIsolationForest(100, 0.05, 42)
	require.NoError(t, f.Fit(x))

	preds, err := f.Predict(x)
	require.NoError(t, err)

	flagged := 0
	for _, p := range preds {
		if p == -1 {
			flagged++
		}
	}
	// The offset is the contamination quantile of training scores, so about
	// 5% of training samples land below it.
	assert.InDelta(t, 0.05*float64(len(x)), float64(flagged), 0.03*float64(len(x)))
}

func TestIsolationForestDeterministicBySeed(t *testing.T) {
	x := clusteredData(100)

	a := NewIsolationForest(50, 0.05, 7)
	require.NoError(t, a.Fit(x))
	b := NewIsolationForest(50, 0.05, 7)
	require.NoError(t, b.Fit(x))

	sa, err := a.ScoreSamples(x)
	require.NoError(t, err)
	sb, err := b.ScoreSamples(x)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestIsolationForestUnfitted(t *testing.T) {
	f := NewIsolationForest(10, 0.05, 0)
	_, err := f.ScoreSamples([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestIsolationForestEmptyFit(t *testing.T) {
	f := NewIsolationForest(10, 0.05, 0)
	assert.Error(t, f.Fit(nil))
}
