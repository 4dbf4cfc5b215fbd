// Package generate produces synthetic FEC ledger data for model training and
// testing. Output is balanced double-entry bookkeeping over a French chart of
// accounts, with an optional rate of injected anomalies.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fecaudit/fecaudit/internal/fec"
)

// Config controls one generation run. The zero value is filled with defaults
// by New.
type Config struct {
	StartDate   time.Time
	EndDate     time.Time
	CompanyName string
	Count       int
	AnomalyRate float64
	Seed        int64
}

type Generator struct {
	rng *rand.Rand
	cfg Config
}

func New(cfg Config) *Generator {
	if cfg.CompanyName == "" {
		cfg.CompanyName = "EMPRESA_TEST"
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if cfg.EndDate.IsZero() || cfg.EndDate.Before(cfg.StartDate) {
		cfg.EndDate = cfg.StartDate.AddDate(0, 11, 30)
	}
	if cfg.Count <= 0 {
		cfg.Count = 1000
	}
	cfg.AnomalyRate = math.Max(0, math.Min(1, cfg.AnomalyRate))
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate produces raw ledger records. Each voucher balances to zero before
// anomaly injection; a zero anomaly rate therefore yields a ledger where
// debits and credits match exactly.
func (g *Generator) Generate() []fec.Record {
	days := int(g.cfg.EndDate.Sub(g.cfg.StartDate).Hours()/24) + 1
	perDay := g.cfg.Count / days
	if perDay < 1 {
		perDay = 1
	}

	var records []fec.Record
	remaining := g.cfg.Count
	entryNum := 1
	for day := 0; day < days && remaining > 0; day++ {
		date := g.cfg.StartDate.AddDate(0, 0, day)
		// Skip weekends so weekend lines only come from injection.
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dayCount := perDay + g.rng.Intn(5) - 2
		if dayCount < 1 {
			dayCount = 1
		}
		if dayCount > remaining {
			dayCount = remaining
		}
		for i := 0; i < dayCount; i++ {
			switch g.rng.Intn(4) {
			case 0:
				records = append(records, g.expenseVoucher(date, entryNum)...)
			case 1:
				records = append(records, g.salesVoucher(date, entryNum)...)
			case 2:
				records = append(records, g.salaryVoucher(date, entryNum)...)
			default:
				records = append(records, g.miscVoucher(date, entryNum)...)
			}
			entryNum++
			remaining--
		}
	}

	if g.cfg.AnomalyRate > 0 {
		records = g.injectAnomalies(records)
	}
	return records
}

// amount draws a uniform amount whose decimal part stays away from .00/.99,
// so clean ledgers do not trip the near-round heuristic by accident.
func (g *Generator) amount(low, high float64) float64 {
	whole := math.Floor(low + g.rng.Float64()*(high-low))
	return whole + 0.02 + math.Round(g.rng.Float64()*95)/100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (g *Generator) businessTime(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		8+g.rng.Intn(10), g.rng.Intn(60), 0, 0, time.UTC)
}

func (g *Generator) line(journal, num string, date time.Time, account, pieceRef, lib string, debit, credit float64) fec.Record {
	return fec.Record{
		"journal_code":   journal,
		"journal_lib":    journals[journal],
		"ecr_num":        num,
		"ecr_date":       date.Format("2006-01-02T15:04:05"),
		"compte_num":     account,
		"compte_lib":     accounts[account],
		"comp_aux_num":   "",
		"comp_aux_lib":   "",
		"piece_ref":      pieceRef,
		"piece_date":     date.Format("2006-01-02T15:04:05"),
		"ecriture_lib":   lib,
		"debit_montant":  formatAmount(debit),
		"credit_montant": formatAmount(credit),
		"valid_date":     "",
		"id_devise":      "EUR",
	}
}

func formatAmount(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", v)
}

func (g *Generator) expenseVoucher(date time.Time, n int) []fec.Record {
	amount := g.amount(100, 5000)
	tva := round2(amount * 0.2)
	supplier := g.pick(companyNames)
	lib := fmt.Sprintf("%s - %s", g.pick(expenseDescriptions), supplier)
	ts := g.businessTime(date)
	num := fmt.Sprintf("AC%d", n)
	ref := fmt.Sprintf("FC%06d", g.rng.Intn(1000000))

	debit := g.line("AC", num, ts, g.pickAccountClass("6"), ref, lib, amount, 0)
	vat := g.line("AC", num, ts, "445660", ref, lib, tva, 0)
	credit := g.line("AC", num, ts, "401000", ref, lib, 0, round2(amount+tva))
	credit["comp_aux_num"] = truncate(supplier, 10)
	credit["comp_aux_lib"] = supplier
	return []fec.Record{debit, vat, credit}
}

func (g *Generator) salesVoucher(date time.Time, n int) []fec.Record {
	amount := g.amount(500, 10000)
	tva := round2(amount * 0.2)
	customer := g.pick(companyNames)
	lib := fmt.Sprintf("%s - %s", g.pick(salesDescriptions), customer)
	ts := g.businessTime(date)
	num := fmt.Sprintf("VE%d", n)
	ref := fmt.Sprintf("FV%06d", g.rng.Intn(1000000))

	debit := g.line("VE", num, ts, "411000", ref, lib, round2(amount+tva), 0)
	debit["comp_aux_num"] = truncate(customer, 10)
	debit["comp_aux_lib"] = customer
	revenue := g.line("VE", num, ts, g.pickAccountClass("7"), ref, lib, 0, amount)
	vat := g.line("VE", num, ts, "445710", ref, lib, 0, tva)
	return []fec.Record{debit, revenue, vat}
}

func (g *Generator) salaryVoucher(date time.Time, n int) []fec.Record {
	net := g.amount(2000, 10000)
	charges := round2(net * 0.5)
	lib := fmt.Sprintf("Salaires %s %d", frenchMonths[date.Month()-1], date.Year())
	ts := time.Date(date.Year(), date.Month(), 28, 14, g.rng.Intn(60), 0, 0, time.UTC)
	// Payroll is booked on the 28th, or the last business day before it.
	for wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday; wd = ts.Weekday() {
		ts = ts.AddDate(0, 0, -1)
	}
	num := fmt.Sprintf("OD%d", n)
	ref := fmt.Sprintf("PAIE%02d%d", int(date.Month()), date.Year())

	return []fec.Record{
		g.line("OD", num, ts, "641100", ref, lib, round2(net+charges), 0),
		g.line("OD", num, ts, "431000", ref, lib, 0, charges),
		g.line("OD", num, ts, "421000", ref, lib, 0, net),
	}
}

func (g *Generator) miscVoucher(date time.Time, n int) []fec.Record {
	amount := g.amount(100, 2000)
	lib := g.pick(miscDescriptions)
	ts := g.businessTime(date)
	num := fmt.Sprintf("OD%d", n)
	ref := fmt.Sprintf("OD%05d", g.rng.Intn(100000))

	debitAccount := g.pick(accountNumbers)
	creditAccount := debitAccount
	for creditAccount == debitAccount {
		creditAccount = g.pick(accountNumbers)
	}

	return []fec.Record{
		g.line("OD", num, ts, debitAccount, ref, lib, amount, 0),
		g.line("OD", num, ts, creditAccount, ref, lib, 0, amount),
	}
}

func (g *Generator) pick(choices []string) string {
	return choices[g.rng.Intn(len(choices))]
}

func (g *Generator) pickAccountClass(prefix string) string {
	var candidates []string
	for _, acc := range accountNumbers {
		if acc[:1] == prefix {
			candidates = append(candidates, acc)
		}
	}
	return g.pick(candidates)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
