package generate

import (
	"fmt"
	"time"

	"github.com/fecaudit/fecaudit/internal/fec"
)

// injectAnomalies corrupts a sample of the generated records so the result
// contains known-bad data at the configured rate. Each picked record gets one
// randomly chosen corruption.
func (g *Generator) injectAnomalies(records []fec.Record) []fec.Record {
	count := int(float64(len(records)) * g.cfg.AnomalyRate)
	if count == 0 {
		return records
	}

	picked := g.rng.Perm(len(records))[:count]
	for _, idx := range picked {
		switch g.rng.Intn(5) {
		case 0:
			records = g.injectDuplicate(records, idx)
		case 1:
			g.injectImbalance(records, idx)
		case 2:
			g.injectRoundAmount(records[idx])
		case 3:
			g.injectWeekendBooking(records[idx])
		default:
			g.injectMissingData(records[idx])
		}
	}
	return records
}

// injectDuplicate appends a near-copy of the record, sometimes nudging the
// amount by cents or the date by a day to mimic a double-keyed entry.
func (g *Generator) injectDuplicate(records []fec.Record, idx int) []fec.Record {
	dup := make(fec.Record, len(records[idx]))
	for k, v := range records[idx] {
		dup[k] = v
	}

	if g.rng.Float64() < 0.3 {
		nudge := []string{"-0.01", "0.01", "-0.10", "0.10"}[g.rng.Intn(4)]
		if dup["debit_montant"] != "0" {
			dup["debit_montant"] = addCents(dup["debit_montant"], nudge)
		} else if dup["credit_montant"] != "0" {
			dup["credit_montant"] = addCents(dup["credit_montant"], nudge)
		}
	}
	if g.rng.Float64() < 0.3 {
		if t, err := time.Parse("2006-01-02T15:04:05", dup["ecr_date"]); err == nil {
			days := []int{-1, 1}[g.rng.Intn(2)]
			dup["ecr_date"] = t.AddDate(0, 0, days).Format("2006-01-02T15:04:05")
		}
	}
	return append(records, dup)
}

func addCents(amount, delta string) string {
	var a, d float64
	fmt.Sscanf(amount, "%f", &a)
	fmt.Sscanf(delta, "%f", &d)
	return formatAmount(round2(a + d))
}

// injectImbalance inflates one side of a voucher so its lines no longer sum
// to zero.
func (g *Generator) injectImbalance(records []fec.Record, idx int) {
	num := records[idx]["ecr_num"]
	if num == "" {
		return
	}
	for i := range records {
		if records[i]["ecr_num"] != num {
			continue
		}
		factor := 1.05 + g.rng.Float64()*0.15
		if records[i]["debit_montant"] != "0" {
			records[i]["debit_montant"] = scaleAmount(records[i]["debit_montant"], factor)
			return
		}
		if records[i]["credit_montant"] != "0" {
			records[i]["credit_montant"] = scaleAmount(records[i]["credit_montant"], factor)
			return
		}
	}
}

func scaleAmount(amount string, factor float64) string {
	var a float64
	fmt.Sscanf(amount, "%f", &a)
	return formatAmount(round2(a * factor))
}

var roundAmounts = []string{"1000", "2000", "5000", "10000", "20000", "50000", "100000"}
var roundMentions = []string{"Paiement", "Versement", "Règlement", "Avance", "Acompte"}

func (g *Generator) injectRoundAmount(rec fec.Record) {
	amount := g.pick(roundAmounts)
	if g.rng.Float64() < 0.5 {
		rec["debit_montant"] = amount
		rec["credit_montant"] = "0"
	} else {
		rec["credit_montant"] = amount
		rec["debit_montant"] = "0"
	}
	rec["ecriture_lib"] = fmt.Sprintf("%s - %s EUR", g.pick(roundMentions), amount)
}

// injectWeekendBooking moves the entry date to the nearest weekend and to an
// off-hours time.
func (g *Generator) injectWeekendBooking(rec fec.Record) {
	t, err := time.Parse("2006-01-02T15:04:05", rec["ecr_date"])
	if err != nil {
		return
	}
	daysToSaturday := (int(time.Saturday) - int(t.Weekday()) + 7) % 7
	if g.rng.Float64() < 0.5 {
		daysToSaturday++
	}
	t = t.AddDate(0, 0, daysToSaturday)
	hours := []int{1, 2, 3, 4, 22, 23}
	t = time.Date(t.Year(), t.Month(), t.Day(), hours[g.rng.Intn(len(hours))], g.rng.Intn(60), 0, 0, time.UTC)
	rec["ecr_date"] = t.Format("2006-01-02T15:04:05")
}

var clearableFields = []string{"compte_num", "compte_lib", "ecriture_lib", "piece_ref", "piece_date"}

func (g *Generator) injectMissingData(rec fec.Record) {
	n := 1 + g.rng.Intn(2)
	for _, i := range g.rng.Perm(len(clearableFields))[:n] {
		rec[clearableFields[i]] = ""
	}
}
