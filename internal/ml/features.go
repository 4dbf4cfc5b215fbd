package ml

import (
	"math"

	"github.com/fecaudit/fecaudit/internal/model"
)

// Feature group names. Each group feeds its own scaler and sub-model.
const (
	GroupAmount       = "amount"
	GroupDatePatterns = "date_patterns"
	GroupBalance      = "balance"
)

// Groups lists the sub-model names in their fixed training order.
var Groups = []string{GroupAmount, GroupDatePatterns, GroupBalance}

// FeatureNames documents the column layout of each feature group.
var FeatureNames = map[string][]string{
	GroupAmount: {
		"amount", "amount_log", "amount_round", "amount_mod10", "amount_mod100",
	},
	GroupDatePatterns: {
		"weekday", "day", "month", "hour", "minute", "is_weekend", "is_business_hours",
	},
	GroupBalance: {
		"balance_diff", "total_amount", "account_class",
		"is_asset", "is_liability", "is_expense", "is_revenue",
	},
}

// neutralDateFeatures stands in for entries whose date cannot be parsed: a
// mid-month Wednesday at noon, inside business hours.
var neutralDateFeatures = []float64{2, 15, 6, 12, 0, 0, 1}

// FeatureSet holds one feature matrix per group, row-aligned with the input
// entries.
type FeatureSet map[string][][]float64

// ExtractFeatures builds the three per-entry feature tables used by the
// sub-models.
func ExtractFeatures(entries []model.LedgerEntry) FeatureSet {
	amount := make([][]float64, len(entries))
	dates := make([][]float64, len(entries))
	balance := make([][]float64, len(entries))

	for i := range entries {
		e := &entries[i]
		amount[i] = amountFeatures(e)
		dates[i] = dateFeatures(e)
		balance[i] = balanceFeatures(e)
	}

	return FeatureSet{
		GroupAmount:       amount,
		GroupDatePatterns: dates,
		GroupBalance:      balance,
	}
}

func amountFeatures(e *model.LedgerEntry) []float64 {
	amount := e.Amount()
	var amountLog float64
	if amount > 0 {
		amountLog = math.Log1p(amount)
	}
	return []float64{
		amount,
		amountLog,
		math.Mod(amount, 1),
		math.Mod(amount, 10),
		math.Mod(amount, 100),
	}
}

func dateFeatures(e *model.LedgerEntry) []float64 {
	if !e.HasEntryDate() {
		out := make([]float64, len(neutralDateFeatures))
		copy(out, neutralDateFeatures)
		return out
	}

	d := e.EntryDate
	// Monday=0 ... Sunday=6, matching how the models were trained.
	weekday := (int(d.Weekday()) + 6) % 7
	hour := d.Hour()

	var isWeekend, isBusinessHours float64
	if weekday >= 5 {
		isWeekend = 1
	}
	if hour >= 8 && hour <= 18 {
		isBusinessHours = 1
	}

	return []float64{
		float64(weekday),
		float64(d.Day()),
		float64(int(d.Month())),
		float64(hour),
		float64(d.Minute()),
		isWeekend,
		isBusinessHours,
	}
}

func balanceFeatures(e *model.LedgerEntry) []float64 {
	class := e.AccountClass()

	var isAsset, isLiability, isExpense, isRevenue float64
	switch {
	case class >= 1 && class <= 3:
		isAsset = 1
	case class == 4 || class == 5:
		isLiability = 1
	case class == 6:
		isExpense = 1
	case class == 7:
		isRevenue = 1
	}

	return []float64{
		e.Debit - e.Credit,
		e.Debit + e.Credit,
		float64(class),
		isAsset,
		isLiability,
		isExpense,
		isRevenue,
	}
}
