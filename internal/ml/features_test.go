package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fecaudit/fecaudit/internal/model"
)

func TestExtractFeaturesShapes(t *testing.T) {
	entries := []model.LedgerEntry{
		{Debit: 100, AccountNum: "601000"},
		{Credit: 50, AccountNum: "411000"},
	}

	features := ExtractFeatures(entries)
	for _, group := range Groups {
		require.Len(t, features[group], 2, group)
		for _, row := range features[group] {
			assert.Len(t, row, len(FeatureNames[group]), group)
		}
	}
}

func TestAmountFeatures(t *testing.T) {
	e := model.LedgerEntry{Debit: 1234.56}
	row := amountFeatures(&e)

	assert.InDelta(t, 1234.56, row[0], 1e-9)
	assert.InDelta(t, 0.56, row[2], 1e-9)  // mod 1
	assert.InDelta(t, 4.56, row[3], 1e-9)  // mod 10
	assert.InDelta(t, 34.56, row[4], 1e-9) // mod 100
}

func TestDateFeatures(t *testing.T) {
	t.Run("monday is weekday zero", func(t *testing.T) {
		e := model.LedgerEntry{EntryDate: time.Date(2023, 6, 12, 10, 30, 0, 0, time.UTC)}
		row := dateFeatures(&e)

		assert.Equal(t, 0.0, row[0])
		assert.Equal(t, 12.0, row[1])
		assert.Equal(t, 6.0, row[2])
		assert.Equal(t, 10.0, row[3])
		assert.Equal(t, 30.0, row[4])
		assert.Equal(t, 0.0, row[5]) // not weekend
		assert.Equal(t, 1.0, row[6]) // business hours
	})

	t.Run("sunday night", func(t *testing.T) {
		e := model.LedgerEntry{EntryDate: time.Date(2023, 6, 18, 23, 0, 0, 0, time.UTC)}
		row := dateFeatures(&e)

		assert.Equal(t, 6.0, row[0])
		assert.Equal(t, 1.0, row[5]) // weekend
		assert.Equal(t, 0.0, row[6]) // outside business hours
	})

	t.Run("unparseable date gets neutral vector", func(t *testing.T) {
		e := model.LedgerEntry{RawEntryDate: "garbage"}
		assert.Equal(t, neutralDateFeatures, dateFeatures(&e))
	})
}

func TestBalanceFeatures(t *testing.T) {
	tests := []struct {
		name    string
		account string
		hotIdx  int
	}{
		{"asset class", "218300", 3},
		{"liability class", "401000", 4},
		{"expense class", "601000", 5},
		{"revenue class", "706000", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := model.LedgerEntry{AccountNum: tt.account, Debit: 100, Credit: 30}
			row := balanceFeatures(&e)

			assert.InDelta(t, 70, row[0], 1e-9)
			assert.InDelta(t, 130, row[1], 1e-9)
			for i := 3; i <= 6; i++ {
				want := 0.0
				if i == tt.hotIdx {
					want = 1.0
				}
				assert.Equal(t, want, row[i], "one-hot index %d", i)
			}
		})
	}
}
