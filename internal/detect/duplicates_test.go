package detect

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

func TestCheckDuplicatesExactPair(t *testing.T) {
	a := entry(0, 1250.50, 0)
	b := entry(1, 1250.50, 0)

	anomalies := testEngine().checkDuplicates([]model.LedgerEntry{a, b})
	require.Len(t, anomalies, 1)

	dup := anomalies[0]
	assert.Equal(t, model.TypeDuplicateEntry, dup.Type)
	assert.InDelta(t, 1.0, dup.Confidence, 0.001)
	assert.Equal(t, []int{0, 1}, dup.Lines)
	assert.Equal(t, dup.Confidence, dup.Evidence["similarity"])
}

func TestCheckDuplicatesPartialMatch(t *testing.T) {
	t.Run("different description still above threshold", func(t *testing.T) {
		a := entry(0, 800, 0)
		b := entry(1, 800, 0)
		b.Description = "Un libellé complètement différent"

		anomalies := testEngine().checkDuplicates([]model.LedgerEntry{a, b})
		require.Len(t, anomalies, 1)
		assert.InDelta(t, 0.95, anomalies[0].Confidence, 0.001)
	})

	t.Run("different amount below threshold", func(t *testing.T) {
		a := entry(0, 800, 0)
		b := entry(1, 950, 0)

		assert.Empty(t, testEngine().checkDuplicates([]model.LedgerEntry{a, b}))
	})

	t.Run("amount within a cent matches", func(t *testing.T) {
		a := entry(0, 800.00, 0)
		b := entry(1, 800.005, 0)

		anomalies := testEngine().checkDuplicates([]model.LedgerEntry{a, b})
		require.Len(t, anomalies, 1)
	})
}

func TestCheckDuplicatesWindowBound(t *testing.T) {
	rules := model.DefaultRuleSet()
	rules.DuplicateWindow = 5
	eng := newRuleEngine(rules, testEngine().detectedAt)

	entries := make([]model.LedgerEntry, 0, 12)
	dup := entry(0, 4242.42, 0)
	entries = append(entries, dup)
	for i := 1; i < 11; i++ {
		filler := entry(i, float64(i)*13.37, 0)
		filler.EntryNum = fmt.Sprintf("AC%d", i+10)
		filler.Description = fmt.Sprintf("Ligne de remplissage %d", i)
		entries = append(entries, filler)
	}
	far := entry(11, 4242.42, 0)
	entries = append(entries, far)

	// The identical pair sits 11 apart, outside the window of 5.
	assert.Empty(t, eng.checkDuplicates(entries))
}

func TestCheckDuplicatesZeroAmountPair(t *testing.T) {
	// Zero-amount lines are compared like any other; two identical ones are
	// still a full-score duplicate.
	a := entry(0, 0, 0)
	b := entry(1, 0, 0)

	anomalies := testEngine().checkDuplicates([]model.LedgerEntry{a, b})
	require.Len(t, anomalies, 1)
	assert.InDelta(t, 1.0, anomalies[0].Confidence, 0.001)
	assert.Equal(t, []int{0, 1}, anomalies[0].Lines)
}
