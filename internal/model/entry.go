// Package model defines the core domain types shared across the application.
package model

import (
	"time"
)

// LedgerEntry represents a single line of a FEC ledger export in canonical form.
// Exactly one of Debit/Credit is normally non-zero; violations are flagged by
// the detection rules rather than rejected at load time.
type LedgerEntry struct {
	EntryDate    time.Time
	PieceDate    time.Time
	ValidDate    time.Time
	JournalCode  string
	JournalLabel string
	EntryNum     string
	AccountNum   string
	AccountLabel string
	AuxNum       string
	AuxLabel     string
	PieceRef     string
	Description  string

	// Raw date strings as they appeared in the source record. A non-empty
	// raw string paired with a zero time value marks an unparseable date.
	RawEntryDate string
	RawPieceDate string
	RawValidDate string

	// Raw preserves source fields that have no canonical slot, so feature
	// extraction and evidence payloads can still reach them.
	Raw map[string]string

	Debit  float64
	Credit float64

	// LineIndex is the zero-based position of this line in the source batch.
	// It is assigned once by the normalizer and is the sole cross-reference
	// key used by anomalies.
	LineIndex int
}

// Amount returns the magnitude of the entry: the larger of debit and credit.
func (e *LedgerEntry) Amount() float64 {
	if e.Debit > e.Credit {
		return e.Debit
	}
	return e.Credit
}

// HasEntryDate reports whether the entry date parsed successfully.
func (e *LedgerEntry) HasEntryDate() bool {
	return !e.EntryDate.IsZero()
}

// AccountClass returns the leading digit of the account number (1-8 in the
// French chart of accounts), or 0 when the account number is missing or does
// not start with a digit.
func (e *LedgerEntry) AccountClass() int {
	if e.AccountNum == "" {
		return 0
	}
	c := e.AccountNum[0]
	if c < '0' || c > '9' {
		return 0
	}
	return int(c - '0')
}

// Flatten returns the entry as a flat map of primitives under its wire field
// names, suitable for JSON output and evidence payloads.
func (e *LedgerEntry) Flatten() map[string]any {
	out := map[string]any{
		"line_index":     e.LineIndex,
		"journal_code":   e.JournalCode,
		"journal_lib":    e.JournalLabel,
		"ecr_num":        e.EntryNum,
		"compte_num":     e.AccountNum,
		"compte_lib":     e.AccountLabel,
		"comp_aux_num":   e.AuxNum,
		"comp_aux_lib":   e.AuxLabel,
		"piece_ref":      e.PieceRef,
		"ecriture_lib":   e.Description,
		"debit_montant":  e.Debit,
		"credit_montant": e.Credit,
	}
	if e.HasEntryDate() {
		out["ecr_date"] = e.EntryDate.Format(time.RFC3339)
	} else {
		out["ecr_date"] = e.RawEntryDate
	}
	if !e.PieceDate.IsZero() {
		out["piece_date"] = e.PieceDate.Format(time.RFC3339)
	}
	if !e.ValidDate.IsZero() {
		out["valid_date"] = e.ValidDate.Format(time.RFC3339)
	}
	return out
}
