package usecase

import (
	"context"

	"github.com/xavierca1/leadbase/internal/entity"
)

// InvalidRow points at a row whose email was blank or malformed.
// Row is the 1-based position among data rows.
type InvalidRow struct {
	Row   int    `json:"row"`
	Value string `json:"value"`
}

type Classification struct {
	NewRows []entity.CSVRow
	// DuplicateRows holds the uploaded rows; Duplicates the stored leads
	// they matched, index for index.
	DuplicateRows []entity.CSVRow
	Duplicates    []entity.Lead
	Invalid       []InvalidRow
}

// ValidRows returns new and duplicate rows, new first.
func (c *Classification) ValidRows() []entity.CSVRow {
	out := make([]entity.CSVRow, 0, len(c.NewRows)+len(c.DuplicateRows))
	out = append(out, c.NewRows...)
	return append(out, c.DuplicateRows...)
}

// ClassifyDuplicates splits rows into new, duplicate and invalid using a
// single batched lookup. Every row lands in exactly one bucket.
func ClassifyDuplicates(ctx context.Context, finder entity.LeadFinder, rows []entity.CSVRow, emailColumn string) (*Classification, error) {
	c := &Classification{}

	normalized := make([]string, len(rows))
	var lookup []string
	seen := make(map[string]bool)

	for i, row := range rows {
		raw := row[emailColumn]
		if !IsValidEmail(raw) {
			c.Invalid = append(c.Invalid, InvalidRow{Row: i + 1, Value: raw})
			continue
		}
		email := NormalizeEmail(raw)
		normalized[i] = email
		if !seen[email] {
			seen[email] = true
			lookup = append(lookup, email)
		}
	}

	existing := make(map[string]entity.Lead)
	if len(lookup) > 0 {
		found, err := finder.FindByEmails(ctx, lookup)
		if err != nil {
			return nil, storeError("duplicate check", err)
		}
		for _, l := range found {
			existing[NormalizeEmail(l.Email)] = l
		}
	}

	for i, row := range rows {
		email := normalized[i]
		if email == "" {
			continue
		}
		if lead, ok := existing[email]; ok {
			c.DuplicateRows = append(c.DuplicateRows, row)
			c.Duplicates = append(c.Duplicates, lead)
			continue
		}
		c.NewRows = append(c.NewRows, row)
	}

	return c, nil
}
