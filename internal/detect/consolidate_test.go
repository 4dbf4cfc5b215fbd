package detect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

func TestConsolidate(t *testing.T) {
	rules := model.DefaultRuleSet()

	var anomalies []model.Anomaly
	for i := 0; i < 150; i++ {
		anomalies = append(anomalies, model.Anomaly{
			ID:         fmt.Sprintf("a%d", i),
			Type:       model.TypeSuspiciousPattern,
			Confidence: float64(i%100) / 100.0,
		})
	}

	out := consolidate(anomalies, rules)

	require.LessOrEqual(t, len(out), rules.MaxAnomalies)
	for i, a := range out {
		assert.GreaterOrEqual(t, a.Confidence, rules.MinConfidence)
		if i > 0 {
			assert.LessOrEqual(t, a.Confidence, out[i-1].Confidence)
		}
	}
}

func TestConsolidateStableOrderOnTies(t *testing.T) {
	anomalies := []model.Anomaly{
		{ID: "first", Confidence: 0.5},
		{ID: "second", Confidence: 0.5},
		{ID: "third", Confidence: 0.9},
	}

	out := consolidate(anomalies, model.DefaultRuleSet())
	require.Len(t, out, 3)
	assert.Equal(t, "third", out[0].ID)
	assert.Equal(t, "first", out[1].ID)
	assert.Equal(t, "second", out[2].ID)
}

func TestConsolidateDropsLowConfidence(t *testing.T) {
	anomalies := []model.Anomaly{
		{ID: "keep", Confidence: 0.3},
		{ID: "drop", Confidence: 0.29},
	}

	out := consolidate(anomalies, model.DefaultRuleSet())
	require.Len(t, out, 1)
	assert.Equal(t, "keep", out[0].ID)
}
