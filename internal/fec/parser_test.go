package fec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSemicolonDelimited(t *testing.T) {
	data := []byte("JournalCode;EcritureNum;Debit;Credit\nAC;AC1;100,00;0\nAC;AC1;0;100,00\n")

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "AC", records[0]["JournalCode"])
	assert.Equal(t, "100,00", records[0]["Debit"])
	assert.Equal(t, "100,00", records[1]["Credit"])
}

func TestParseTabDelimited(t *testing.T) {
	data := []byte("JournalCode\tCompteNum\tDebit\nVE\t706000\t250.00\n")

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "706000", records[0]["CompteNum"])
}

func TestParseStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("JournalCode;Debit\nAC;10\n")...)

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AC", records[0]["JournalCode"])
}

func TestParseLatin1Encoding(t *testing.T) {
	// "Opérations" with é as ISO-8859-1 byte 0xE9.
	data := []byte("JournalCode;EcritureLib\nOD;Op\xe9rations diverses\n")

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Opérations diverses", records[0]["EcritureLib"])
}

func TestParseShortRows(t *testing.T) {
	data := []byte("JournalCode;CompteNum;Debit\nAC;401000\n")

	records, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "401000", records[0]["CompteNum"])
	_, ok := records[0]["Debit"]
	assert.False(t, ok)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := Parse([]byte(""))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("JournalCode;Debit\nBQ;42\n"), 0o644))

	records, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BQ", records[0]["JournalCode"])
}
