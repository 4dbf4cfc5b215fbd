package generate

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/fecaudit/fecaudit/internal/fec"
)

// fecColumns maps output column order to record keys, using the official FEC
// header names.
var fecColumns = []struct {
	header string
	key    string
}{
	{"JournalCode", "journal_code"},
	{"JournalLib", "journal_lib"},
	{"EcritureNum", "ecr_num"},
	{"EcritureDate", "ecr_date"},
	{"CompteNum", "compte_num"},
	{"CompteLib", "compte_lib"},
	{"CompAuxNum", "comp_aux_num"},
	{"CompAuxLib", "comp_aux_lib"},
	{"PieceRef", "piece_ref"},
	{"PieceDate", "piece_date"},
	{"EcritureLib", "ecriture_lib"},
	{"Debit", "debit_montant"},
	{"Credit", "credit_montant"},
	{"ValidDate", "valid_date"},
	{"Idevise", "id_devise"},
}

// WriteFile writes records as a semicolon-delimited FEC file.
func WriteFile(path string, records []fec.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	header := make([]string, len(fecColumns))
	for i, col := range fecColumns {
		header[i] = col.header
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(fecColumns))
	for _, rec := range records {
		for i, col := range fecColumns {
			row[i] = rec[col.key]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
