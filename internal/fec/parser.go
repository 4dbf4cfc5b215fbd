package fec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/fecaudit/fecaudit/internal/common"
)

// maxRows bounds how many lines a single parse will load. FEC exports for a
// full fiscal year can run into millions of lines; past this point the file
// should be split.
const maxRows = 1_000_000

// ParseFile reads a FEC export from disk, detecting the delimiter and text
// encoding, and returns its lines as raw records keyed by the header row.
func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FEC file: %w", err)
	}
	return Parse(data)
}

// Parse parses raw FEC file contents.
func Parse(data []byte) ([]Record, error) {
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	delimiter := detectDelimiter(text)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, common.NewUserError("FEC file has no header row", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to parse FEC row %d: %w", len(records)+2, readErr)
		}

		rec := make(Record, len(header))
		for i, field := range header {
			if i < len(row) {
				rec[field] = row[i]
			}
		}
		records = append(records, rec)

		if len(records) >= maxRows {
			break
		}
	}

	return records, nil
}

// decode returns the file contents as UTF-8 text. FEC exports are commonly
// encoded in ISO-8859-1 or Windows-1252 rather than UTF-8.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("unsupported FEC file encoding")
}

// detectDelimiter picks the most frequent candidate delimiter in the first
// kilobyte of the file. FEC mandates tab or pipe, but semicolon-separated
// exports are common in practice.
func detectDelimiter(text string) rune {
	sample := text
	if len(sample) > 1024 {
		sample = sample[:1024]
	}

	best := ';'
	bestCount := 0
	for _, candidate := range []rune{';', ',', '\t', '|'} {
		if n := strings.Count(sample, string(candidate)); n > bestCount {
			best = candidate
			bestCount = n
		}
	}
	return best
}
