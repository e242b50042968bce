package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/leadbase/internal/entity"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.com", true},
		{" a@b.com ", true},
		{"first.last+tag@sub.example.co", true},
		{"not-an-email", false},
		{"", false},
		{"a@b", false},
		{"a b@c.com", false},
		{"a@@b.com", false},
		{"@b.com", false},
		{"a@b.c", true}, // permissive by contract
		{"a\u00a0b@c.com", false},
		{"a@b\u3000c.com", false},
		{"a\u2028b@c.com", false},
		{"a@b.com\ufeffx", false},
		{"a\vb@c.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.input))
		})
	}
}

func TestNormalizeEmailIsIdempotent(t *testing.T) {
	for _, e := range []string{"a@b.com", "Ana.Silva@Example.COM", "x+y@z.io"} {
		padded := " " + strings.ToUpper(e) + " \t"
		assert.Equal(t, NormalizeEmail(e), NormalizeEmail(padded))
		assert.Equal(t, NormalizeEmail(e), NormalizeEmail(NormalizeEmail(e)))
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		row  entity.CSVRow
		want string
	}{
		{"first and last", entity.CSVRow{"First_Name": " Ana ", "last_name": "Silva"}, "Ana Silva"},
		{"spaced headers", entity.CSVRow{"First Name": "Bob", "Last Name": "Lee", "Name": "ignored"}, "Bob Lee"},
		{"compact headers", entity.CSVRow{"firstname": "Cy", "lastname": "Ng"}, "Cy Ng"},
		{"partial pair falls through", entity.CSVRow{"first_name": "Dee", "name": "Dee Dee"}, "Dee Dee"},
		{"full name", entity.CSVRow{"Full Name": "Eve Adams"}, "Eve Adams"},
		{"fallback", entity.CSVRow{"company": "Acme"}, "x@y.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.row, "x@y.com"))
		})
	}
}
