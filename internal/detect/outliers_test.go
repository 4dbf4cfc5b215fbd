package detect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

func TestCheckAmountOutliersFlagsSpike(t *testing.T) {
	entries := make([]model.LedgerEntry, 0, 51)
	for i := 0; i < 50; i++ {
		e := entry(i, 100+float64(i%7), 0)
		e.EntryNum = fmt.Sprintf("AC%d", i)
		entries = append(entries, e)
	}
	spike := entry(50, 250000, 0)
	entries = append(entries, spike)

	anomalies := testEngine().checkAmountOutliers(entries)
	require.NotEmpty(t, anomalies)

	found := anomalies[0]
	assert.Equal(t, model.TypeUnusualAccountActivity, found.Type)
	assert.Equal(t, []int{50}, found.Lines)
	assert.Equal(t, "debit_montant", found.Evidence["column"])
	assert.LessOrEqual(t, found.Confidence, 0.95)
	assert.GreaterOrEqual(t, found.Confidence, 0.5)
}

func TestCheckAmountOutliersZeroVarianceSkipped(t *testing.T) {
	entries := make([]model.LedgerEntry, 0, 20)
	for i := 0; i < 20; i++ {
		entries = append(entries, entry(i, 500, 0))
	}

	assert.Empty(t, testEngine().checkAmountOutliers(entries))
}

func TestCheckAmountOutliersCapPerColumn(t *testing.T) {
	rules := model.DefaultRuleSet()
	rules.MaxOutliersPerColumn = 3
	rules.AmountOutlierZScore = 1.0
	eng := newRuleEngine(rules, testEngine().detectedAt)

	entries := make([]model.LedgerEntry, 0, 40)
	for i := 0; i < 30; i++ {
		entries = append(entries, entry(i, 100, 0))
	}
	for i := 30; i < 40; i++ {
		entries = append(entries, entry(i, 50000+float64(i)*1000, 0))
	}

	anomalies := eng.checkAmountOutliers(entries)
	assert.Len(t, anomalies, 3)

	// The retained findings are the largest deviations.
	for _, a := range anomalies {
		require.Len(t, a.Lines, 1)
		assert.GreaterOrEqual(t, a.Lines[0], 37)
	}
}
