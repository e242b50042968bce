package usecase

import (
	"regexp"
	"strings"

	"github.com/xavierca1/leadbase/internal/entity"
)

// Deliberately permissive: one "@", no whitespace, a dot in the domain.
// Whitespace includes Unicode separators and the BOM, not only ASCII.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail lower-cases and trims. It is idempotent.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// displayNameCandidates is tried in order; a candidate with several fields
// only matches when all of them are non-empty.
var displayNameCandidates = [][]string{
	{"first_name", "last_name"},
	{"first name", "last name"},
	{"firstname", "lastname"},
	{"name"},
	{"full_name"},
	{"full name"},
}

// DisplayName derives a human name from the row, falling back to the email.
func DisplayName(row entity.CSVRow, email string) string {
	byHeader := make(map[string]string, len(row))
	for k, v := range row {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, seen := byHeader[key]; !seen || byHeader[key] == "" {
			byHeader[key] = strings.TrimSpace(v)
		}
	}

	for _, fields := range displayNameCandidates {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			v := byHeader[f]
			if v == "" {
				break
			}
			parts = append(parts, v)
		}
		if len(parts) == len(fields) {
			return strings.Join(parts, " ")
		}
	}
	return email
}
