// Package fec loads and normalizes FEC (Fichier des Écritures Comptables)
// ledger exports into the canonical entry representation.
package fec

import (
	"strconv"
	"strings"
	"time"

	"github.com/fecaudit/fecaudit/internal/model"
)

// Record is a raw ledger line as parsed from a file: a mapping of source
// field name to string value.
type Record map[string]string

// Field aliases: official FEC column names on the left, the snake_case names
// used by the generator and the JSON output on the right. Matching is done on
// the lowercased header.
var fieldAliases = map[string]string{
	"journalcode":   "journal_code",
	"journallib":    "journal_lib",
	"ecriturenum":   "ecr_num",
	"ecrituredate":  "ecr_date",
	"comptenum":     "compte_num",
	"comptelib":     "compte_lib",
	"compauxnum":    "comp_aux_num",
	"compauxlib":    "comp_aux_lib",
	"pieceref":      "piece_ref",
	"piecedate":     "piece_date",
	"ecriturelib":   "ecriture_lib",
	"debit":         "debit_montant",
	"credit":        "credit_montant",
	"validdate":     "valid_date",
}

// Normalize coerces heterogeneous raw records into canonical ledger entries.
// It is a pure transform: amounts that fail to parse become 0.0, dates that
// fail to parse keep their raw string and a zero time value, and unrecognized
// fields are preserved on the entry rather than discarded. Line indices are
// assigned here, once, in input order.
func Normalize(records []Record) []model.LedgerEntry {
	entries := make([]model.LedgerEntry, 0, len(records))
	for i, rec := range records {
		canonical := make(map[string]string, len(rec))
		for key, value := range rec {
			canonical[canonicalField(key)] = value
		}

		entry := model.LedgerEntry{
			LineIndex:    i,
			JournalCode:  canonical["journal_code"],
			JournalLabel: canonical["journal_lib"],
			EntryNum:     canonical["ecr_num"],
			AccountNum:   canonical["compte_num"],
			AccountLabel: canonical["compte_lib"],
			AuxNum:       canonical["comp_aux_num"],
			AuxLabel:     canonical["comp_aux_lib"],
			PieceRef:     canonical["piece_ref"],
			Description:  canonical["ecriture_lib"],
			Debit:        parseAmount(canonical["debit_montant"]),
			Credit:       parseAmount(canonical["credit_montant"]),
			RawEntryDate: canonical["ecr_date"],
			RawPieceDate: canonical["piece_date"],
			RawValidDate: canonical["valid_date"],
		}
		entry.EntryDate = ParseDate(entry.RawEntryDate)
		entry.PieceDate = ParseDate(entry.RawPieceDate)
		entry.ValidDate = ParseDate(entry.RawValidDate)

		// Keep fields without a canonical slot for feature extraction
		// and evidence payloads.
		for key, value := range canonical {
			if !knownFields[key] {
				if entry.Raw == nil {
					entry.Raw = make(map[string]string)
				}
				entry.Raw[key] = value
			}
		}

		entries = append(entries, entry)
	}
	return entries
}

var knownFields = map[string]bool{
	"journal_code": true, "journal_lib": true,
	"ecr_num": true, "ecr_date": true,
	"compte_num": true, "compte_lib": true,
	"comp_aux_num": true, "comp_aux_lib": true,
	"piece_ref": true, "piece_date": true,
	"ecriture_lib": true, "valid_date": true,
	"debit_montant": true, "credit_montant": true,
}

func canonicalField(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := fieldAliases[key]; ok {
		return alias
	}
	return key
}

// parseAmount parses a FEC amount field. French exports commonly use a comma
// as the decimal separator. Parse failures coerce to 0.0 so a bad amount
// surfaces as a balance anomaly instead of aborting the load.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102",
}

// ParseDate parses a FEC date in ISO-8601 or compact YYYYMMDD form. The zero
// time is the sentinel for missing or unparseable dates; downstream checks
// flag those rather than the loader rejecting them.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
