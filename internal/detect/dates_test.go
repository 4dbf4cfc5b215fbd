package detect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

func TestCheckUnparseableDates(t *testing.T) {
	a := entry(0, 100, 0)
	b := entry(1, 0, 100)
	b.EntryDate = time.Time{}
	b.RawEntryDate = "15/06/2023"

	anomalies := testEngine().checkUnparseableDates([]model.LedgerEntry{a, b})
	require.Len(t, anomalies, 1)
	assert.Equal(t, model.TypeDateInconsistency, anomalies[0].Type)
	assert.Equal(t, []int{1}, anomalies[0].Lines)
	assert.Contains(t, anomalies[0].Evidence["examples"], "15/06/2023")
}

func TestCheckWeekendMinority(t *testing.T) {
	saturday := time.Date(2023, 6, 17, 10, 0, 0, 0, time.UTC)

	t.Run("minority flagged", func(t *testing.T) {
		entries := make([]model.LedgerEntry, 0, 100)
		for i := 0; i < 99; i++ {
			entries = append(entries, entry(i, 100, 0))
		}
		weekend := entry(99, 100, 0)
		weekend.EntryDate = saturday
		entries = append(entries, weekend)

		anomalies := testEngine().checkWeekendMinority(entries)
		require.Len(t, anomalies, 1)
		assert.Equal(t, []int{99}, anomalies[0].Lines)
	})

	t.Run("routine weekend activity not flagged", func(t *testing.T) {
		entries := make([]model.LedgerEntry, 0, 10)
		for i := 0; i < 10; i++ {
			e := entry(i, 100, 0)
			if i%2 == 0 {
				e.EntryDate = saturday
			}
			entries = append(entries, e)
		}

		assert.Empty(t, testEngine().checkWeekendMinority(entries))
	})
}

func TestCheckSequenceGaps(t *testing.T) {
	var entries []model.LedgerEntry
	for i, num := range []string{"AC1", "AC2", "AC3", "AC10", "AC11"} {
		e := entry(i, 100, 0)
		e.EntryNum = num
		entries = append(entries, e)
	}

	anomalies := testEngine().checkSequenceGaps(entries)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 3, anomalies[0].Evidence["after"])
	assert.Equal(t, 10, anomalies[0].Evidence["before"])
	assert.Equal(t, 6, anomalies[0].Evidence["missing"])
}

func TestCheckSequenceGapsTopFive(t *testing.T) {
	var entries []model.LedgerEntry
	// Seven gaps of increasing size.
	n := 1
	for i := 0; i < 8; i++ {
		e := entry(i, 100, 0)
		e.EntryNum = fmt.Sprintf("OD%d", n)
		entries = append(entries, e)
		n += 4 + i
	}

	anomalies := testEngine().checkSequenceGaps(entries)
	assert.Len(t, anomalies, 5)
}

func TestCheckDateColumnCoherence(t *testing.T) {
	t.Run("document after booking date", func(t *testing.T) {
		e := entry(0, 100, 0)
		e.PieceDate = e.EntryDate.AddDate(0, 0, 10)

		anomalies := testEngine().checkDateColumnCoherence([]model.LedgerEntry{e})
		require.Len(t, anomalies, 1)
		assert.InDelta(t, 0.7, anomalies[0].Confidence, 0.001)
		assert.Equal(t, "piece_date", anomalies[0].Evidence["first_column"])
	})

	t.Run("large gap between booking and validation", func(t *testing.T) {
		e := entry(0, 100, 0)
		e.ValidDate = e.EntryDate.AddDate(0, 0, 90)

		anomalies := testEngine().checkDateColumnCoherence([]model.LedgerEntry{e})
		require.Len(t, anomalies, 1)
		assert.InDelta(t, 0.5, anomalies[0].Confidence, 0.001)
	})

	t.Run("document long before booking clean", func(t *testing.T) {
		// The document/booking pair is governed by the order rule only; a
		// late booking of an old invoice is legitimate.
		e := entry(0, 100, 0)
		e.PieceDate = e.EntryDate.AddDate(0, 0, -90)

		assert.Empty(t, testEngine().checkDateColumnCoherence([]model.LedgerEntry{e}))
	})

	t.Run("document shortly before booking clean", func(t *testing.T) {
		e := entry(0, 100, 0)
		e.PieceDate = e.EntryDate.AddDate(0, 0, -3)
		e.ValidDate = e.EntryDate.AddDate(0, 0, 2)

		assert.Empty(t, testEngine().checkDateColumnCoherence([]model.LedgerEntry{e}))
	})
}

func TestCheckFutureDates(t *testing.T) {
	eng := testEngine() // detection time 2024-03-01

	future := entry(0, 100, 0)
	future.EntryDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	past := entry(1, 0, 100)

	anomalies := eng.checkFutureDates([]model.LedgerEntry{future, past})
	require.Len(t, anomalies, 1)
	assert.Equal(t, []int{0}, anomalies[0].Lines)
	assert.InDelta(t, 0.9, anomalies[0].Confidence, 0.001)
}
