package leadcsv

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadbase/internal/entity"
)

func TestParseCommaSeparated(t *testing.T) {
	input := "Email,First Name,Last Name\r\nana@example.com,Ana,Silva\r\n\r\nbob@example.com,Bob,\r\n"

	table, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Email", "First Name", "Last Name"}, table.Headers)
	assert.Equal(t, ',', table.Delimiter)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "ana@example.com", table.Rows[0]["Email"])
	assert.Equal(t, "Silva", table.Rows[0]["Last Name"])
	assert.Equal(t, "", table.Rows[1]["Last Name"])
}

func TestParseDetectsDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim rune
	}{
		{"semicolon", "email;name\na@b.com;A\n", ';'},
		{"tab", "email\tname\na@b.com\tA\n", '\t'},
		{"pipe", "email|name\na@b.com|A\n", '|'},
		{"quoted comma ignored", "\"email;x\";name\na@b.com;A\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.delim, table.Delimiter)
			require.Len(t, table.Rows, 1)
			assert.Equal(t, "A", table.Rows[0]["name"])
		})
	}
}

func TestParseDetectsDelimiterAfterLeadingBlankLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim rune
	}{
		{"blank line", "\nname;email\nAnn;ann@x.com\nBob;bob@x.com\n", ';'},
		{"crlf", "\r\nname;email\r\nAnn;ann@x.com\r\nBob;bob@x.com\r\n", ';'},
		{"whitespace line", "  \t\nname|email\nAnn|ann@x.com\nBob|bob@x.com\n", '|'},
		{"several blanks tab", "\n\n\nname\temail\nAnn\tann@x.com\nBob\tbob@x.com\n", '\t'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.delim, table.Delimiter)
			assert.Equal(t, []string{"name", "email"}, table.Headers)
			require.Len(t, table.Rows, 2)
			assert.Equal(t, "ann@x.com", table.Rows[0]["email"])
			assert.Equal(t, "Bob", table.Rows[1]["name"])
		})
	}
}

func TestParseStripsUTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("email\na@b.com\n")...)

	table, err := Parse(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, table.Headers)
	assert.Equal(t, "utf-8", table.Encoding)
}

func TestParseUTF16LE(t *testing.T) {
	text := "email,name\na@b.com,Zoë\n"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, r := range text {
		buf.WriteByte(byte(r))
		buf.WriteByte(byte(r >> 8))
	}

	table, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", table.Encoding)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Zoë", table.Rows[0]["name"])
}

func TestParseWindows1252Fallback(t *testing.T) {
	// 0xE9 is "é" in Windows-1252 and invalid on its own in UTF-8.
	input := []byte("email,name\na@b.com,Ren\xe9\n")

	table, err := Parse(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", table.Encoding)
	assert.Equal(t, "René", table.Rows[0]["name"])
}

func TestParseDeduplicatesHeaders(t *testing.T) {
	table, err := Parse(strings.NewReader("email,email,,email\na,b,c,d\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "email_1", "column_3", "email_2"}, table.Headers)
	assert.Equal(t, "d", table.Rows[0]["email_2"])
}

func TestParseShortAndLongRows(t *testing.T) {
	table, err := Parse(strings.NewReader("email,name,company\na@b.com\nc@d.com,C,Co,extra\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0]["company"])
	assert.Equal(t, "Co", table.Rows[1]["company"])
	assert.Len(t, table.Rows[1], 3)
}

func TestParseEmptyInputs(t *testing.T) {
	for _, input := range []string{"", "   \n\n", "email,name\n", "email,name\n,\n"} {
		_, err := Parse(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrEmptyFile, "input %q", input)
	}
}

func TestParseMalformedQuotes(t *testing.T) {
	_, err := Parse(strings.NewReader("email,name\n\"a@b.com,Ana\nb@c.com,B\"x\n"))
	require.Error(t, err)

	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestDetectEmailColumn(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    string
		found   bool
	}{
		{"exact", []string{"Name", " Email "}, " Email ", true},
		{"alias order beats header order", []string{"Mail", "E-mail"}, "E-mail", true},
		{"substring", []string{"Name", "Primary Email Addr"}, "Primary Email Addr", true},
		{"exact preferred over substring", []string{"Work Email Verified", "work email"}, "work email", true},
		{"none", []string{"Name", "Phone"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectEmailColumn(tt.headers)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindEmailColumns(t *testing.T) {
	headers := []string{"Name", "Email", "Phone", "Work Email", "mailing_list"}
	assert.Equal(t, []string{"Email", "Work Email", "mailing_list"}, FindEmailColumns(headers))
	assert.Empty(t, FindEmailColumns([]string{"Name"}))
}

func TestResolveEmailColumn(t *testing.T) {
	col, err := ResolveEmailColumn([]string{"Name", "Email"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Email", col)

	col, err = ResolveEmailColumn([]string{"Email", "Work Email"}, "work email")
	require.NoError(t, err)
	assert.Equal(t, "Work Email", col)

	_, err = ResolveEmailColumn([]string{"Email"}, "Contact")
	assert.ErrorIs(t, err, ErrNoEmailColumn)

	_, err = ResolveEmailColumn([]string{"Name"}, "")
	assert.ErrorIs(t, err, ErrNoEmailColumn)

	_, err = ResolveEmailColumn([]string{"Work Email", "Email"}, "")
	var ambiguous *AmbiguousColumnError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"Work Email", "Email"}, ambiguous.Candidates)
	assert.Equal(t, "Email", ambiguous.Suggested)
}

func TestExtractCampaignName(t *testing.T) {
	tests := map[string]string{
		"summer-leads-2024-01-15.csv":     "Summer Leads",
		"WEBINAR_attendees_20240115.CSV":  "Webinar Attendees",
		"01-15-2024_trade show.csv":       "Trade Show",
		"uploads/q3--outbound__list.csv":  "Q3 Outbound List",
		`C:\exports\partner list.tsv`:     "Partner List",
		"2024-01-15.csv":                  DefaultCampaign,
		"":                                DefaultCampaign,
		"élan-vital.csv":                  "Élan Vital",
		"acme.inc leads.csv":              "Acme.inc Leads",
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ExtractCampaignName(input))
		})
	}
}

func TestExtractCampaignNameIsDeterministic(t *testing.T) {
	for _, name := range []string{"a-b-c.csv", "x_20240101_y.csv", "  spaced   out .csv"} {
		first := ExtractCampaignName(name)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ExtractCampaignName(name))
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	rows := []entity.CSVRow{
		{"email": "a@b.com", "note": "says \"hi\", twice"},
		{"email": "c@d.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"email", "note"}, rows))

	table, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "says \"hi\", twice", table.Rows[0]["note"])
	assert.Equal(t, "", table.Rows[1]["note"])
}

func TestExportFilename(t *testing.T) {
	day := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "leads-export-2024-03-09.csv", ExportFilename("leads-export", day))
	assert.Equal(t, "summer-leads-2024-03-09.csv", ExportFilename("Summer Leads", day))
	assert.Equal(t, "leads-export-2024-03-09.csv", ExportFilename("  ", day))
	assert.Equal(t, "q3-list-2024-03-09.csv", ExportFilename("Q3 / List!", day))
}
