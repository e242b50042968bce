// Package leadcsv parses uploaded lead files, detects the email column,
// derives campaign labels from filenames and writes CSV exports.
package leadcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xavierca1/leadbase/internal/entity"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}

	candidateDelimiters = []rune{',', ';', '\t', '|'}
)

// Table is a parsed file: ordered headers and ordered rows.
type Table struct {
	Headers   []string
	Rows      []entity.CSVRow
	Delimiter rune
	Encoding  string
}

// Parse reads delimited text with a header row. Encoding and delimiter are
// detected from the content.
func Parse(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	text, enc, err := decode(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	delim := detectDelimiter(firstLine(text))

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1

	var header []string
	for {
		header, err = reader.Read()
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if !blankRecord(header) {
			break
		}
	}

	table := &Table{
		Headers:   uniqueHeaders(header),
		Delimiter: delim,
		Encoding:  enc,
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if blankRecord(record) {
			continue
		}

		row := make(entity.CSVRow, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return table, nil
}

func decode(data []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return string(out), "utf-16le", err
	case bytes.HasPrefix(data, bomUTF16BE):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return string(out), "utf-16be", err
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), "utf-8", nil
	case utf8.Valid(data):
		return string(data), "utf-8", nil
	default:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		return string(out), "windows-1252", err
	}
}

// firstLine returns the first non-blank line, which is the header row the
// csv reader will see.
func firstLine(text string) string {
	for text != "" {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			text = ""
		}
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// detectDelimiter counts candidate delimiters outside quoted sections of
// the header line. Ties resolve to the earlier candidate.
func detectDelimiter(line string) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		counts[r]++
	}

	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}

// uniqueHeaders names blank headers by position and suffixes repeats
// ("email", "email_1", ...).
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}
