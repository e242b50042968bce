package leadcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)
	repeatedDashes      = regexp.MustCompile(`-{2,}`)
)

// Write serializes rows as UTF-8 comma separated text with a header row.
// Missing keys are written as empty cells.
func Write(w io.Writer, headers []string, rows []entity.CSVRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = row[h]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Slug lower-cases label and keeps it safe for use in a filename.
func Slug(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = whitespacePattern.ReplaceAllString(s, "-")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	s = repeatedDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-.")
}

// ExportFilename builds "<label>-<YYYY-MM-DD>.csv".
func ExportFilename(label string, day time.Time) string {
	slug := Slug(label)
	if slug == "" {
		slug = "leads-export"
	}
	return fmt.Sprintf("%s-%s.csv", slug, day.Format("2006-01-02"))
}
